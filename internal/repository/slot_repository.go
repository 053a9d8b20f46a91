package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/carparking/internal/model"
)

const slotColumns = "id, spot_name, level, slot_type, rate_per_hour, is_available, created_at, updated_at"

// SlotRepo is the MySQL SlotStore.
type SlotRepo struct{ db *sql.DB }

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

func scanSlot(s rowScanner) (model.ParkingSlot, error) {
	var p model.ParkingSlot
	var slotType string
	err := s.Scan(&p.ID, &p.SpotName, &p.Level, &slotType, &p.RatePerHour, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt)
	p.SlotType = model.SlotType(slotType)
	return p, err
}

// CreateSlot inserts the slot then reads it back so defaults are populated.
func (r *SlotRepo) CreateSlot(ctx context.Context, s model.ParkingSlot) (model.ParkingSlot, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO parking_slots (spot_name, level, slot_type, rate_per_hour, is_available) VALUES (?,?,?,?,?)",
		s.SpotName, s.Level, string(s.SlotType), s.RatePerHour.StringFixed(2), s.IsAvailable)
	if err != nil {
		return model.ParkingSlot{}, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ParkingSlot{}, err
	}
	return r.GetSlot(ctx, uint64(id))
}

func (r *SlotRepo) GetSlot(ctx context.Context, id uint64) (model.ParkingSlot, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM parking_slots WHERE id=? LIMIT 1", id)
	p, err := scanSlot(row)
	if err != nil {
		return model.ParkingSlot{}, classify(err)
	}
	return p, nil
}

func (r *SlotRepo) ListSlots(ctx context.Context, onlyAvailable bool) ([]model.ParkingSlot, error) {
	q := "SELECT " + slotColumns + " FROM parking_slots"
	if onlyAvailable {
		q += " WHERE is_available = TRUE"
	}
	q += " ORDER BY id ASC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ParkingSlot{}
	for rows.Next() {
		p, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateSlot holds SELECT ... FOR UPDATE on the row while fn computes the new
// values, the same lock CreateBooking takes, so an edit never overwrites the
// availability a booking just committed.
func (r *SlotRepo) UpdateSlot(ctx context.Context, id uint64, fn func(cur model.ParkingSlot) (model.ParkingSlot, error)) (model.ParkingSlot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ParkingSlot{}, classifyLock(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := scanSlot(tx.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM parking_slots WHERE id=? FOR UPDATE", id))
	if err != nil {
		return model.ParkingSlot{}, classifyLock(err)
	}
	next, err := fn(cur)
	if err != nil {
		return model.ParkingSlot{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE parking_slots SET spot_name=?, level=?, slot_type=?, rate_per_hour=?, is_available=? WHERE id=?",
		next.SpotName, next.Level, string(next.SlotType), next.RatePerHour.StringFixed(2), next.IsAvailable, id); err != nil {
		return model.ParkingSlot{}, classifyLock(err)
	}
	if err := tx.Commit(); err != nil {
		return model.ParkingSlot{}, classifyLock(err)
	}
	committed = true
	return r.GetSlot(ctx, id)
}

// SetSlotAvailability is idempotent: writing the current value is not an error.
func (r *SlotRepo) SetSlotAvailability(ctx context.Context, id uint64, available bool) (model.ParkingSlot, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE parking_slots SET is_available=? WHERE id=?", available, id); err != nil {
		return model.ParkingSlot{}, classify(err)
	}
	// RowsAffected is 0 for an unchanged row, so existence is checked by reading back.
	return r.GetSlot(ctx, id)
}

// DeleteSlot relies on the ON DELETE CASCADE foreign key to drop bookings.
func (r *SlotRepo) DeleteSlot(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM parking_slots WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SlotRepo) CountSlots(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM parking_slots").Scan(&n)
	return n, err
}
