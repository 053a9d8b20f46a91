package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository/memory"
)

func rate(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSlotCreateDefaults(t *testing.T) {
	reg := NewSlotRegistry(memory.New())

	s, err := reg.Create(context.Background(), SlotInput{
		SpotName:    ptr(" A1 "),
		Level:       ptr("L1"),
		RatePerHour: rate("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "A1", s.SpotName)
	assert.Equal(t, model.SlotStandard, s.SlotType)
	assert.True(t, s.IsAvailable)
	assert.Equal(t, "7.50", s.RatePerHour.StringFixed(2))
}

func TestSlotCreateValidation(t *testing.T) {
	reg := NewSlotRegistry(memory.New())
	ctx := context.Background()

	cases := []struct {
		name string
		in   SlotInput
		kind error
	}{
		{"no spot name", SlotInput{Level: ptr("L1"), RatePerHour: rate("1")}, ErrMissingParameter},
		{"no level", SlotInput{SpotName: ptr("A1"), RatePerHour: rate("1")}, ErrMissingParameter},
		{"no rate", SlotInput{SpotName: ptr("A1"), Level: ptr("L1")}, ErrMissingParameter},
		{"bad type", SlotInput{SpotName: ptr("A1"), Level: ptr("L1"), SlotType: ptr("luxury"), RatePerHour: rate("1")}, ErrInvalidParameter},
		{"negative rate", SlotInput{SpotName: ptr("A1"), Level: ptr("L1"), RatePerHour: rate("-1")}, ErrInvalidParameter},
		{"three decimals", SlotInput{SpotName: ptr("A1"), Level: ptr("L1"), RatePerHour: rate("1.005")}, ErrInvalidParameter},
		{"rate too large", SlotInput{SpotName: ptr("A1"), Level: ptr("L1"), RatePerHour: rate("10000")}, ErrInvalidParameter},
		{"long level", SlotInput{SpotName: ptr("A1"), Level: ptr("LEVEL-ELEVEN"), RatePerHour: rate("1")}, ErrInvalidParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlotCreateDuplicateName(t *testing.T) {
	reg := NewSlotRegistry(memory.New())
	ctx := context.Background()
	in := SlotInput{SpotName: ptr("A1"), Level: ptr("L1"), SlotType: ptr("VIP"), RatePerHour: rate("20")}

	s, err := reg.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.SlotVIP, s.SlotType)

	_, err = reg.Create(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, "duplicate", Code(err))
}

func TestSlotAvailabilityAndRelease(t *testing.T) {
	store := memory.New()
	reg := NewSlotRegistry(store)
	ctx := context.Background()
	a := seedSlot(t, store, "A1", "1.00")
	b := seedSlot(t, store, "B1", "1.00")

	_, err := reg.SetAvailability(ctx, a.ID, false)
	require.NoError(t, err)
	// idempotent
	s, err := reg.SetAvailability(ctx, a.ID, false)
	require.NoError(t, err)
	assert.False(t, s.IsAvailable)

	avail, err := reg.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, b.ID, avail[0].ID)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	s, err = reg.Release(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, s.IsAvailable)

	_, err = reg.SetAvailability(ctx, 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlotUpdateAndReplace(t *testing.T) {
	store := memory.New()
	reg := NewSlotRegistry(store)
	ctx := context.Background()
	a := seedSlot(t, store, "A1", "1.00")
	seedSlot(t, store, "B1", "1.00")

	s, err := reg.Update(ctx, a.ID, SlotInput{RatePerHour: rate("3.25")})
	require.NoError(t, err)
	assert.Equal(t, "A1", s.SpotName)
	assert.Equal(t, "3.25", s.RatePerHour.StringFixed(2))

	_, err = reg.Update(ctx, a.ID, SlotInput{SpotName: ptr("B1")})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = reg.Replace(ctx, a.ID, SlotInput{SpotName: ptr("A2"), Level: ptr("L2")})
	assert.ErrorIs(t, err, ErrMissingParameter)

	s, err = reg.Replace(ctx, a.ID, SlotInput{SpotName: ptr("A2"), Level: ptr("L2"), RatePerHour: rate("4")})
	require.NoError(t, err)
	assert.Equal(t, "A2", s.SpotName)
	assert.Equal(t, "L2", s.Level)

	_, err = reg.Update(ctx, 999, SlotInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlotDeleteRemovesBookings(t *testing.T) {
	store := memory.New()
	reg := NewSlotRegistry(store)
	engine := NewBookingEngine(store, nil)
	ctx := context.Background()
	a := seedSlot(t, store, "A1", "1.00")

	b, err := engine.CreateBooking(ctx, validRequest(a.ID, 1))
	require.NoError(t, err)

	require.NoError(t, reg.Delete(ctx, a.ID))
	_, err = engine.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, reg.Delete(ctx, a.ID), ErrNotFound)
}

// bookingBeforeWrite commits a booking on the slot right before the edit
// reaches the store, after the caller already decided what to change.
type bookingBeforeWrite struct {
	*memory.Store
	engine *BookingEngine
	t      *testing.T
}

func (s bookingBeforeWrite) UpdateSlot(ctx context.Context, id uint64, fn func(model.ParkingSlot) (model.ParkingSlot, error)) (model.ParkingSlot, error) {
	_, err := s.engine.CreateBooking(ctx, validRequest(id, 1))
	require.NoError(s.t, err)
	return s.Store.UpdateSlot(ctx, id, fn)
}

func TestSlotEditKeepsConcurrentBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewBookingEngine(store, nil)
	slot := seedSlot(t, store, "A1", "10.00")
	reg := NewSlotRegistry(bookingBeforeWrite{Store: store, engine: engine, t: t})

	s, err := reg.Update(ctx, slot.ID, SlotInput{RatePerHour: rate("12.00")})
	require.NoError(t, err)
	assert.Equal(t, "12.00", s.RatePerHour.StringFixed(2))
	assert.False(t, s.IsAvailable)

	_, err = engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	n, err := engine.CountBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
