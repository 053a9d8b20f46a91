package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotType classifies a parking slot.  The set is closed; anything else is
// rejected at the service boundary.
type SlotType string

const (
	SlotStandard SlotType = "standard"
	SlotPremium  SlotType = "premium"
	SlotVIP      SlotType = "vip"
)

// Valid reports whether t is one of the known slot types.
func (t SlotType) Valid() bool {
	switch t {
	case SlotStandard, SlotPremium, SlotVIP:
		return true
	}
	return false
}

// ParkingSlot mirrors a row of the `parking_slots` table.
//
// Fields:
//  ID          – primary key identifier.
//  SpotName    – unique human readable key such as "A1".
//  Level       – floor or zone grouping.
//  SlotType    – standard, premium or vip.
//  RatePerHour – hourly price, DECIMAL(6,2).
//  IsAvailable – true when the slot can be booked.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type ParkingSlot struct {
	ID          uint64          // parking_slots.id
	SpotName    string          // parking_slots.spot_name
	Level       string          // parking_slots.level
	SlotType    SlotType        // parking_slots.slot_type
	RatePerHour decimal.Decimal // parking_slots.rate_per_hour
	IsAvailable bool            // parking_slots.is_available
	CreatedAt   time.Time       // parking_slots.created_at
	UpdatedAt   time.Time       // parking_slots.updated_at
}
