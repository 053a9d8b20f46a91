package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/carparking/internal/model"
)

// SlotStore persists parking slots.
type SlotStore interface {
	CreateSlot(ctx context.Context, s model.ParkingSlot) (model.ParkingSlot, error)
	GetSlot(ctx context.Context, id uint64) (model.ParkingSlot, error)
	// ListSlots returns slots in insertion (id) order, optionally only the
	// available ones.
	ListSlots(ctx context.Context, onlyAvailable bool) ([]model.ParkingSlot, error)
	// UpdateSlot reads the slot under an exclusive lock, passes it to fn and
	// writes back what fn returns.  A booking cannot commit in between.
	UpdateSlot(ctx context.Context, id uint64, fn func(cur model.ParkingSlot) (model.ParkingSlot, error)) (model.ParkingSlot, error)
	SetSlotAvailability(ctx context.Context, id uint64, available bool) (model.ParkingSlot, error)
	// DeleteSlot removes the slot and every booking that references it.
	DeleteSlot(ctx context.Context, id uint64) error
	CountSlots(ctx context.Context) (int64, error)
}

// BookingTx is the set of writes a booking creation performs while holding
// the slot's lock.  Implementations are only valid inside WithinTx.
type BookingTx interface {
	// LockSlot reads the slot and holds an exclusive lock on it until the
	// transaction ends.
	LockSlot(ctx context.Context, slotID uint64) (model.ParkingSlot, error)
	InsertBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	SetSlotAvailability(ctx context.Context, slotID uint64, available bool) error
}

// BookingStore persists bookings.
type BookingStore interface {
	// WithinTx runs fn in a transaction that commits only when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx BookingTx) error) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBookingContact(ctx context.Context, id uint64, mobile, plate string) (model.Booking, error)
	DeleteBooking(ctx context.Context, id uint64) error
	CountBookings(ctx context.Context) (int64, error)
	// SumTotalAmount is invalid (SQL NULL) when no bookings exist.
	SumTotalAmount(ctx context.Context) (decimal.NullDecimal, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id uint64) error
	CountUsers(ctx context.Context) (int64, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a live token or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	// PurgeStale deletes tokens that expired or were revoked before cutoff.
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ContactStore persists support messages.
type ContactStore interface {
	CreateContact(ctx context.Context, c model.Contact) (model.Contact, error)
	GetContact(ctx context.Context, id uint64) (model.Contact, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
	UpdateContact(ctx context.Context, c model.Contact) (model.Contact, error)
	DeleteContact(ctx context.Context, id uint64) error
	CountContacts(ctx context.Context) (int64, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

var (
	_ SlotStore    = (*SlotRepo)(nil)
	_ BookingStore = (*BookingRepo)(nil)
	_ UserStore    = (*UserRepo)(nil)
	_ TokenStore   = (*TokenRepo)(nil)
	_ ContactStore = (*ContactRepo)(nil)
)
