package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/carparking/internal/model"
)

const bookingColumns = "id, parking_slot_id, start_time, duration, mobile_number, license_plate, total_amount, created_at"

// BookingRepo is the MySQL BookingStore.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.ParkingSlotID, &b.StartTime, &b.Duration, &b.MobileNumber, &b.LicensePlate, &b.TotalAmount, &b.CreatedAt)
	return b, err
}

// WithinTx begins a transaction, hands it to fn and commits only when fn
// succeeds.  Any other exit rolls back, releasing the slot lock.
func (r *BookingRepo) WithinTx(ctx context.Context, fn func(tx BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyLock(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyLock(err)
	}
	committed = true
	return nil
}

type bookingTx struct{ tx *sql.Tx }

// LockSlot takes the row lock with SELECT ... FOR UPDATE.  A concurrent
// booking of the same slot blocks here until this transaction ends.
func (t *bookingTx) LockSlot(ctx context.Context, slotID uint64) (model.ParkingSlot, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM parking_slots WHERE id=? FOR UPDATE", slotID)
	p, err := scanSlot(row)
	if err != nil {
		return model.ParkingSlot{}, classifyLock(err)
	}
	return p, nil
}

func (t *bookingTx) InsertBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	var total any
	if b.TotalAmount.Valid {
		total = b.TotalAmount.Decimal.StringFixed(2)
	}
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO bookings (parking_slot_id, start_time, duration, mobile_number, license_plate, total_amount) VALUES (?,?,?,?,?,?)",
		b.ParkingSlotID, b.StartTime.UTC(), b.Duration, b.MobileNumber, b.LicensePlate, total)
	if err != nil {
		return model.Booking{}, classifyLock(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	// select back inside the transaction to pick up created_at
	row := t.tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=?", id)
	out, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, classifyLock(err)
	}
	return out, nil
}

func (t *bookingTx) SetSlotAvailability(ctx context.Context, slotID uint64, available bool) error {
	// the row is already locked by LockSlot, so this cannot wait
	_, err := t.tx.ExecContext(ctx, "UPDATE parking_slots SET is_available=? WHERE id=?", available, slotID)
	return classifyLock(err)
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id)
	b, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, classify(err)
	}
	return b, nil
}

func (r *BookingRepo) ListBookings(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+bookingColumns+" FROM bookings ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBookingContact changes only the driver's contact columns; the amount,
// slot and schedule of a booking are frozen once created.
func (r *BookingRepo) UpdateBookingContact(ctx context.Context, id uint64, mobile, plate string) (model.Booking, error) {
	if _, err := r.GetBooking(ctx, id); err != nil {
		return model.Booking{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET mobile_number=?, license_plate=? WHERE id=?", mobile, plate, id); err != nil {
		return model.Booking{}, classify(err)
	}
	return r.GetBooking(ctx, id)
}

// DeleteBooking leaves the slot's availability untouched.
func (r *BookingRepo) DeleteBooking(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BookingRepo) CountBookings(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&n)
	return n, err
}

func (r *BookingRepo) SumTotalAmount(ctx context.Context) (decimal.NullDecimal, error) {
	var sum decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, "SELECT SUM(total_amount) FROM bookings").Scan(&sum)
	return sum, err
}
