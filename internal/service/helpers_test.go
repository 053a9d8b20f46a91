package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository/memory"
)

// recordingPublisher captures events instead of sending them anywhere.
type recordingPublisher struct {
	mu       sync.Mutex
	bookings []model.Booking
	contacts []model.Contact
	err      error
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, b model.Booking, _ model.ParkingSlot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, b)
	return p.err
}

func (p *recordingPublisher) PublishContactCreated(_ context.Context, c model.Contact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contacts = append(p.contacts, c)
	return p.err
}

func seedSlot(t *testing.T, store *memory.Store, name, rate string) model.ParkingSlot {
	t.Helper()
	s, err := store.CreateSlot(context.Background(), model.ParkingSlot{
		SpotName:    name,
		Level:       "L1",
		SlotType:    model.SlotStandard,
		RatePerHour: decimal.RequireFromString(rate),
		IsAvailable: true,
	})
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }
