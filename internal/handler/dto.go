package handler

import (
	"time"

	"github.com/iliyamo/carparking/internal/model"
)

// Response shapes.  Money is rendered as a string with exactly two decimals.

type slotResp struct {
	ID          uint64    `json:"id"`
	SpotName    string    `json:"spot_name"`
	Level       string    `json:"level"`
	SlotType    string    `json:"slot_type"`
	RatePerHour string    `json:"rate_per_hour"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSlotResp(s model.ParkingSlot) slotResp {
	return slotResp{
		ID:          s.ID,
		SpotName:    s.SpotName,
		Level:       s.Level,
		SlotType:    string(s.SlotType),
		RatePerHour: s.RatePerHour.StringFixed(2),
		IsAvailable: s.IsAvailable,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toSlotResps(in []model.ParkingSlot) []slotResp {
	out := make([]slotResp, 0, len(in))
	for _, s := range in {
		out = append(out, toSlotResp(s))
	}
	return out
}

type bookingResp struct {
	ID           uint64    `json:"id"`
	ParkingSlot  uint64    `json:"parking_slot"`
	StartTime    time.Time `json:"start_time"`
	Duration     uint32    `json:"duration"`
	MobileNumber string    `json:"mobile_number"`
	LicensePlate string    `json:"license_plate"`
	TotalAmount  *string   `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBookingResp(b model.Booking) bookingResp {
	r := bookingResp{
		ID:           b.ID,
		ParkingSlot:  b.ParkingSlotID,
		StartTime:    b.StartTime,
		Duration:     b.Duration,
		MobileNumber: b.MobileNumber,
		LicensePlate: b.LicensePlate,
		CreatedAt:    b.CreatedAt,
	}
	if b.TotalAmount.Valid {
		s := b.TotalAmount.Decimal.StringFixed(2)
		r.TotalAmount = &s
	}
	return r
}

func toBookingResps(in []model.Booking) []bookingResp {
	out := make([]bookingResp, 0, len(in))
	for _, b := range in {
		out = append(out, toBookingResp(b))
	}
	return out
}

type userResp struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

type contactResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func toContactResp(c model.Contact) contactResp {
	return contactResp{ID: c.ID, Name: c.Name, Email: c.Email, Message: c.Message, CreatedAt: c.CreatedAt}
}
