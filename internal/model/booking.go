package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking records the reservation of one parking slot for a whole number of
// hours.  TotalAmount is computed once at creation from the slot's hourly
// rate and never recomputed.
//
// Fields:
//  ID            – primary key identifier.
//  ParkingSlotID – slot being reserved.
//  StartTime     – when the reservation starts (defaults to creation time).
//  Duration      – length in whole hours, at least 1.
//  MobileNumber  – contact number of the driver.
//  LicensePlate  – plate of the parked vehicle.
//  TotalAmount   – duration × rate, DECIMAL(10,2), nullable in storage.
//  CreatedAt     – creation timestamp.
type Booking struct {
	ID            uint64              // bookings.id
	ParkingSlotID uint64              // bookings.parking_slot_id
	StartTime     time.Time           // bookings.start_time
	Duration      uint32              // bookings.duration
	MobileNumber  string              // bookings.mobile_number
	LicensePlate  string              // bookings.license_plate
	TotalAmount   decimal.NullDecimal // bookings.total_amount
	CreatedAt     time.Time           // bookings.created_at
}
