// Package memory provides an in-process implementation of every repository
// store.  It backs STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository"
)

// Store keeps all tables in maps guarded by one RWMutex.  Booking
// transactions hold the write lock for their whole duration, which gives the
// same per-slot exclusion as a row lock (and more).
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	slots      map[uint64]model.ParkingSlot
	slotSeq    uint64
	bookings   map[uint64]model.Booking
	bookingSeq uint64
	users      map[uint64]model.User
	userSeq    uint64
	tokens     map[string]model.RefreshToken
	tokenSeq   uint64
	contacts   map[uint64]model.Contact
	contactSeq uint64
}

var (
	_ repository.SlotStore    = (*Store)(nil)
	_ repository.BookingStore = (*Store)(nil)
	_ repository.UserStore    = (*Store)(nil)
	_ repository.TokenStore   = (*Store)(nil)
	_ repository.ContactStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		slots:    map[uint64]model.ParkingSlot{},
		bookings: map[uint64]model.Booking{},
		users:    map[uint64]model.User{},
		tokens:   map[string]model.RefreshToken{},
		contacts: map[uint64]model.Contact{},
	}
}

func sortedByID[T any](m map[uint64]T) []T {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// ----- slots -----

func (s *Store) spotNameTaken(name string, exceptID uint64) bool {
	for id, sl := range s.slots {
		if id != exceptID && sl.SpotName == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateSlot(_ context.Context, sl model.ParkingSlot) (model.ParkingSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spotNameTaken(sl.SpotName, 0) {
		return model.ParkingSlot{}, repository.ErrDuplicate
	}
	s.slotSeq++
	now := s.now()
	sl.ID = s.slotSeq
	sl.RatePerHour = sl.RatePerHour.Round(2)
	sl.CreatedAt, sl.UpdatedAt = now, now
	s.slots[sl.ID] = sl
	return sl, nil
}

func (s *Store) GetSlot(_ context.Context, id uint64) (model.ParkingSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[id]
	if !ok {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	return sl, nil
}

func (s *Store) ListSlots(_ context.Context, onlyAvailable bool) ([]model.ParkingSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := sortedByID(s.slots)
	if !onlyAvailable {
		return all, nil
	}
	out := make([]model.ParkingSlot, 0, len(all))
	for _, sl := range all {
		if sl.IsAvailable {
			out = append(out, sl)
		}
	}
	return out, nil
}

// UpdateSlot runs fn under the write lock, so it sees every committed booking.
func (s *Store) UpdateSlot(ctx context.Context, id uint64, fn func(cur model.ParkingSlot) (model.ParkingSlot, error)) (model.ParkingSlot, error) {
	if err := ctx.Err(); err != nil {
		return model.ParkingSlot{}, repository.ErrLockContention
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.slots[id]
	if !ok {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	sl, err := fn(cur)
	if err != nil {
		return model.ParkingSlot{}, err
	}
	if s.spotNameTaken(sl.SpotName, id) {
		return model.ParkingSlot{}, repository.ErrDuplicate
	}
	sl.ID = id
	sl.CreatedAt = cur.CreatedAt
	sl.UpdatedAt = s.now()
	sl.RatePerHour = sl.RatePerHour.Round(2)
	s.slots[id] = sl
	return sl, nil
}

func (s *Store) SetSlotAvailability(_ context.Context, id uint64, available bool) (model.ParkingSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	if sl.IsAvailable != available {
		sl.IsAvailable = available
		sl.UpdatedAt = s.now()
		s.slots[id] = sl
	}
	return sl, nil
}

func (s *Store) DeleteSlot(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.slots, id)
	for bid, b := range s.bookings {
		if b.ParkingSlotID == id {
			delete(s.bookings, bid)
		}
	}
	return nil
}

func (s *Store) CountSlots(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.slots)), nil
}

// ----- bookings -----

// WithinTx stages the writes made through the BookingTx and applies them
// only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, availability: map[uint64]bool{}}
	if err := fn(tx); err != nil {
		return err
	}
	now := s.now()
	for _, b := range tx.inserted {
		s.bookings[b.ID] = b
	}
	for id, v := range tx.availability {
		sl := s.slots[id]
		if sl.IsAvailable != v {
			sl.IsAvailable = v
			sl.UpdatedAt = now
			s.slots[id] = sl
		}
	}
	return nil
}

type memTx struct {
	s            *Store
	inserted     []model.Booking
	availability map[uint64]bool
}

func (t *memTx) LockSlot(ctx context.Context, slotID uint64) (model.ParkingSlot, error) {
	if err := ctx.Err(); err != nil {
		return model.ParkingSlot{}, repository.ErrLockContention
	}
	sl, ok := t.s.slots[slotID]
	if !ok {
		return model.ParkingSlot{}, repository.ErrNotFound
	}
	if v, staged := t.availability[slotID]; staged {
		sl.IsAvailable = v
	}
	return sl, nil
}

func (t *memTx) InsertBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	if _, ok := t.s.slots[b.ParkingSlotID]; !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	t.s.bookingSeq++
	b.ID = t.s.bookingSeq
	b.StartTime = b.StartTime.UTC()
	b.CreatedAt = t.s.now()
	if b.TotalAmount.Valid {
		b.TotalAmount.Decimal = b.TotalAmount.Decimal.Round(2)
	}
	t.inserted = append(t.inserted, b)
	return b, nil
}

func (t *memTx) SetSlotAvailability(_ context.Context, slotID uint64, available bool) error {
	if _, ok := t.s.slots[slotID]; !ok {
		return repository.ErrNotFound
	}
	t.availability[slotID] = available
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBookings(context.Context) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.bookings), nil
}

func (s *Store) UpdateBookingContact(_ context.Context, id uint64, mobile, plate string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	b.MobileNumber, b.LicensePlate = mobile, plate
	s.bookings[id] = b
	return b, nil
}

func (s *Store) DeleteBooking(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) CountBookings(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.bookings)), nil
}

// SumTotalAmount mirrors SQL SUM: NULL when there is nothing to add and
// NULL amounts are skipped.
func (s *Store) SumTotalAmount(context.Context) (decimal.NullDecimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum decimal.NullDecimal
	for _, b := range s.bookings {
		if !b.TotalAmount.Valid {
			continue
		}
		sum.Decimal = sum.Decimal.Add(b.TotalAmount.Decimal)
		sum.Valid = true
	}
	return sum, nil
}

// ----- users -----

func (s *Store) CreateUser(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrDuplicate
		}
	}
	s.userSeq++
	now := s.now()
	u.ID = s.userSeq
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.users), nil
}

func (s *Store) DeleteUser(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for h, tok := range s.tokens {
		if tok.UserID == id {
			delete(s.tokens, h)
		}
	}
	return nil
}

func (s *Store) CountUsers(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// ----- refresh tokens -----

func (s *Store) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tokenHash]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	s.tokenSeq++
	s.tokens[tokenHash] = model.RefreshToken{
		ID:        s.tokenSeq,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp.UTC(),
		CreatedAt: s.now(),
	}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.RevokedAt != nil || s.now().After(tok.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return tok.UserID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.RevokedAt != nil {
		return nil
	}
	now := s.now()
	tok.RevokedAt = &now
	s.tokens[tokenHash] = tok
	return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for h, tok := range s.tokens {
		if tok.UserID == userID && tok.RevokedAt == nil {
			tok.RevokedAt = &now
			s.tokens[h] = tok
		}
	}
	return nil
}

func (s *Store) PurgeStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for h, tok := range s.tokens {
		if tok.ExpiresAt.Before(cutoff) || (tok.RevokedAt != nil && tok.RevokedAt.Before(cutoff)) {
			delete(s.tokens, h)
			n++
		}
	}
	return n, nil
}

// ----- contacts -----

func (s *Store) CreateContact(_ context.Context, c model.Contact) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contactSeq++
	c.ID = s.contactSeq
	c.CreatedAt = s.now()
	s.contacts[c.ID] = c
	return c, nil
}

func (s *Store) GetContact(_ context.Context, id uint64) (model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return model.Contact{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListContacts(context.Context) ([]model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.contacts), nil
}

func (s *Store) UpdateContact(_ context.Context, c model.Contact) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contacts[c.ID]
	if !ok {
		return model.Contact{}, repository.ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	s.contacts[c.ID] = c
	return c, nil
}

func (s *Store) DeleteContact(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *Store) CountContacts(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.contacts)), nil
}
