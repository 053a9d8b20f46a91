// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/carparking/internal/model"
)

// BookingCreatedEvent is published once a booking has committed.  It carries
// enough of the slot to log or notify without querying the database.
type BookingCreatedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	SlotID        uint64 `json:"parking_slot_id"`
	SpotName      string `json:"spot_name"`
	Level         string `json:"level"`
	SlotType      string `json:"slot_type"`
	StartTime     string `json:"start_time"`
	DurationHours uint32 `json:"duration_hours"`
	MobileNumber  string `json:"mobile_number"`
	LicensePlate  string `json:"license_plate"`
	TotalAmount   string `json:"total_amount"` // fixed two decimals, "" when unknown
	CreatedAt     string `json:"created_at"`
}

// ContactCreatedEvent is published for every new support message.
type ContactCreatedEvent struct {
	ContactID uint64 `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func NewBookingCreatedEvent(b model.Booking, slot model.ParkingSlot) BookingCreatedEvent {
	ev := BookingCreatedEvent{
		BookingID:     b.ID,
		SlotID:        b.ParkingSlotID,
		SpotName:      slot.SpotName,
		Level:         slot.Level,
		SlotType:      string(slot.SlotType),
		StartTime:     b.StartTime.UTC().Format(time.RFC3339),
		DurationHours: b.Duration,
		MobileNumber:  b.MobileNumber,
		LicensePlate:  b.LicensePlate,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.TotalAmount.Valid {
		ev.TotalAmount = b.TotalAmount.Decimal.StringFixed(2)
	}
	return ev
}

func NewContactCreatedEvent(c model.Contact) ContactCreatedEvent {
	return ContactCreatedEvent{
		ContactID: c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
