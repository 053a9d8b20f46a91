package service

import (
	"context"

	"github.com/iliyamo/carparking/internal/model"
)

// EventPublisher receives domain events after the corresponding write has
// committed.  Delivery is best effort: a publish error is logged and never
// undoes the write.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, b model.Booking, slot model.ParkingSlot) error
	PublishContactCreated(ctx context.Context, c model.Contact) error
}
