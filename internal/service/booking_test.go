package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/repository/memory"
)

func validRequest(slotID uint64, hours float64) BookingRequest {
	return BookingRequest{
		SlotID:        ptr(slotID),
		DurationHours: hours,
		MobileNumber:  "0123456789",
		LicensePlate:  "AB-123",
	}
}

func TestCreateBookingComputesTotalAndTakesSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "10.00")
	pub := &recordingPublisher{}
	engine := NewBookingEngine(store, pub)
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time { return start }

	b, err := engine.CreateBooking(ctx, validRequest(slot.ID, 3))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, slot.ID, b.ParkingSlotID)
	assert.Equal(t, uint32(3), b.Duration)
	assert.Equal(t, start, b.StartTime)
	require.True(t, b.TotalAmount.Valid)
	assert.Equal(t, "30.00", b.TotalAmount.Decimal.StringFixed(2))

	after, err := store.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, after.IsAvailable)

	require.Len(t, pub.bookings, 1)
	assert.Equal(t, b.ID, pub.bookings[0].ID)
}

func TestCreateBookingKeepsRequestedStartTime(t *testing.T) {
	store := memory.New()
	slot := seedSlot(t, store, "A1", "2.50")
	engine := NewBookingEngine(store, nil)

	start := time.Date(2030, 1, 2, 15, 4, 0, 0, time.FixedZone("X", 3600))
	req := validRequest(slot.ID, 2)
	req.StartTime = &start
	b, err := engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, b.StartTime.Equal(start))
	assert.Equal(t, time.UTC, b.StartTime.Location())
	assert.Equal(t, "5.00", b.TotalAmount.Decimal.StringFixed(2))
}

func TestCreateBookingRejectsSecondBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "10.00")
	engine := NewBookingEngine(store, nil)

	_, err := engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	require.NoError(t, err)

	_, err = engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	require.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, "Slot is already booked", err.Error())
	assert.Equal(t, "slot_unavailable", Code(err))

	n, err := engine.CountBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateBookingRejectsBadDurations(t *testing.T) {
	for _, d := range []float64{0, -1, 2.5, 0.5} {
		ctx := context.Background()
		store := memory.New()
		slot := seedSlot(t, store, "A1", "10.00")
		engine := NewBookingEngine(store, nil)

		_, err := engine.CreateBooking(ctx, validRequest(slot.ID, d))
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %v", d)

		after, err := store.GetSlot(ctx, slot.ID)
		require.NoError(t, err)
		assert.True(t, after.IsAvailable, "duration %v", d)
		n, _ := store.CountBookings(ctx)
		assert.Zero(t, n, "duration %v", d)
	}
}

func TestCreateBookingRejectsTotalOverflow(t *testing.T) {
	store := memory.New()
	slot := seedSlot(t, store, "A1", "9999.99")
	engine := NewBookingEngine(store, nil)

	_, err := engine.CreateBooking(context.Background(), validRequest(slot.ID, 100000))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCreateBookingUnknownSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewBookingEngine(store, nil)

	_, err := engine.CreateBooking(ctx, validRequest(999, 1))
	require.ErrorIs(t, err, ErrNotFound)

	n, err := engine.CountBookings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateBookingMissingSlotID(t *testing.T) {
	engine := NewBookingEngine(memory.New(), nil)
	req := validRequest(1, 1)
	req.SlotID = nil

	_, err := engine.CreateBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestCreateBookingValidatesContactAfterDuration(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "10.00")
	engine := NewBookingEngine(store, nil)

	req := validRequest(slot.ID, 2.5)
	req.MobileNumber = ""
	_, err := engine.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	req = validRequest(slot.ID, 2)
	req.MobileNumber = ""
	_, err = engine.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrMissingParameter)

	req = validRequest(slot.ID, 2)
	req.LicensePlate = "THIS-PLATE-IS-WAY-TOO-LONG"
	_, err = engine.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	after, err := store.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, after.IsAvailable)
}

func TestCreateBookingConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "4.00")
	engine := NewBookingEngine(store, nil)

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		refused   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateBooking(ctx, validRequest(slot.ID, 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrConcurrencyConflict):
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, refused)
	count, err := engine.CountBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateBookingExpiredContextIsConflict(t *testing.T) {
	store := memory.New()
	slot := seedSlot(t, store, "A1", "4.00")
	engine := NewBookingEngine(store, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}

func TestCreateBookingPublishFailureKeepsBooking(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "1.00")
	engine := NewBookingEngine(store, &recordingPublisher{err: errors.New("broker down")})

	b, err := engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	require.NoError(t, err)
	_, err = engine.Get(ctx, b.ID)
	assert.NoError(t, err)
}

func TestUpdateContactAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	slot := seedSlot(t, store, "A1", "10.00")
	engine := NewBookingEngine(store, nil)

	b, err := engine.CreateBooking(ctx, validRequest(slot.ID, 1))
	require.NoError(t, err)

	updated, err := engine.UpdateContact(ctx, b.ID, nil, ptr(" XY-999 "))
	require.NoError(t, err)
	assert.Equal(t, "XY-999", updated.LicensePlate)
	assert.Equal(t, "0123456789", updated.MobileNumber)
	assert.Equal(t, b.TotalAmount.Decimal.String(), updated.TotalAmount.Decimal.String())

	_, err = engine.UpdateContact(ctx, b.ID, ptr(""), nil)
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = engine.UpdateContact(ctx, 999, ptr("1"), nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, engine.Delete(ctx, b.ID))
	_, err = engine.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, engine.Delete(ctx, b.ID), ErrNotFound)

	// deleting the booking does not free the slot
	after, err := store.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, after.IsAvailable)
}

func TestSumTotalAmount(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := NewBookingEngine(store, nil)

	sum, err := engine.SumTotalAmount(ctx)
	require.NoError(t, err)
	assert.False(t, sum.Valid)

	a := seedSlot(t, store, "A1", "10.00")
	b := seedSlot(t, store, "B1", "2.25")
	_, err = engine.CreateBooking(ctx, validRequest(a.ID, 3))
	require.NoError(t, err)
	_, err = engine.CreateBooking(ctx, validRequest(b.ID, 2))
	require.NoError(t, err)

	sum, err = engine.SumTotalAmount(ctx)
	require.NoError(t, err)
	require.True(t, sum.Valid)
	assert.True(t, sum.Decimal.Equal(decimal.RequireFromString("34.50")))
}

func TestWholeHours(t *testing.T) {
	h, err := wholeHours(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), h)

	_, err = wholeHours(5e9)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
