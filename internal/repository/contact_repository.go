package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/carparking/internal/model"
)

const contactColumns = "id, name, email, message, created_at"

// ContactRepo is the MySQL ContactStore.
type ContactRepo struct{ db *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func scanContact(s rowScanner) (model.Contact, error) {
	var c model.Contact
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt)
	return c, err
}

func (r *ContactRepo) CreateContact(ctx context.Context, c model.Contact) (model.Contact, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (name, email, message) VALUES (?,?,?)", c.Name, c.Email, c.Message)
	if err != nil {
		return model.Contact{}, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contact{}, err
	}
	return r.GetContact(ctx, uint64(id))
}

func (r *ContactRepo) GetContact(ctx context.Context, id uint64) (model.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id=? LIMIT 1", id))
	return c, classify(err)
}

func (r *ContactRepo) ListContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM contacts ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactRepo) UpdateContact(ctx context.Context, c model.Contact) (model.Contact, error) {
	if _, err := r.GetContact(ctx, c.ID); err != nil {
		return model.Contact{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE contacts SET name=?, email=?, message=? WHERE id=?", c.Name, c.Email, c.Message, c.ID); err != nil {
		return model.Contact{}, classify(err)
	}
	return r.GetContact(ctx, c.ID)
}

func (r *ContactRepo) DeleteContact(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ContactRepo) CountContacts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&n)
	return n, err
}
