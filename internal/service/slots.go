package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository"
)

// maxRate is the largest value a DECIMAL(6,2) column holds.
var maxRate = decimal.RequireFromString("9999.99")

// SlotRegistry is the authoritative access point to parking slots and their
// availability flag.  Writes go straight to the store, so a SetAvailability
// is visible to the next Get or ListAvailable.
type SlotRegistry struct {
	store repository.SlotStore
}

func NewSlotRegistry(store repository.SlotStore) *SlotRegistry {
	if store == nil {
		panic("nil store passed to NewSlotRegistry")
	}
	return &SlotRegistry{store: store}
}

// SlotInput carries slot attributes from the API.  Nil fields are "not
// supplied": Create applies defaults, Update keeps the current value.
type SlotInput struct {
	SpotName    *string
	Level       *string
	SlotType    *string
	RatePerHour *decimal.Decimal
	IsAvailable *bool
}

type slotFields struct {
	SpotName string `json:"spot_name" validate:"required,max=50"`
	Level    string `json:"level" validate:"required,max=10"`
	SlotType string `json:"slot_type" validate:"required,oneof=standard premium vip"`
}

func (r *SlotRegistry) Get(ctx context.Context, id uint64) (model.ParkingSlot, error) {
	s, err := r.store.GetSlot(ctx, id)
	return s, fromStore(err, "parking slot")
}

// ListAvailable returns bookable slots in insertion order.
func (r *SlotRegistry) ListAvailable(ctx context.Context) ([]model.ParkingSlot, error) {
	return r.store.ListSlots(ctx, true)
}

func (r *SlotRegistry) List(ctx context.Context) ([]model.ParkingSlot, error) {
	return r.store.ListSlots(ctx, false)
}

// SetAvailability is idempotent.
func (r *SlotRegistry) SetAvailability(ctx context.Context, id uint64, available bool) (model.ParkingSlot, error) {
	s, err := r.store.SetSlotAvailability(ctx, id, available)
	return s, fromStore(err, "parking slot")
}

// Release is the operator action that makes a booked slot bookable again.
// Deleting a booking does not do this on its own.
func (r *SlotRegistry) Release(ctx context.Context, id uint64) (model.ParkingSlot, error) {
	return r.SetAvailability(ctx, id, true)
}

func (r *SlotRegistry) Count(ctx context.Context) (int64, error) {
	return r.store.CountSlots(ctx)
}

// Create validates in and inserts a new slot.  slot_type defaults to
// standard and is_available to true.
func (r *SlotRegistry) Create(ctx context.Context, in SlotInput) (model.ParkingSlot, error) {
	s := model.ParkingSlot{SlotType: model.SlotStandard, IsAvailable: true}
	if in.RatePerHour == nil {
		// checked before applyInput so the message names the field
		if err := checkStruct(mergedFields(s, in)); err != nil {
			return model.ParkingSlot{}, err
		}
		return model.ParkingSlot{}, fail(ErrMissingParameter, "rate_per_hour is required")
	}
	s, err := applySlotInput(s, in)
	if err != nil {
		return model.ParkingSlot{}, err
	}
	created, err := r.store.CreateSlot(ctx, s)
	if err != nil {
		return model.ParkingSlot{}, fromStore(err, "parking slot "+s.SpotName)
	}
	return created, nil
}

// Update applies the supplied fields to an existing slot.  The fields are
// merged into the row as it stands under the store's lock, so a booking
// committed just before keeps the slot unavailable.
func (r *SlotRegistry) Update(ctx context.Context, id uint64, in SlotInput) (model.ParkingSlot, error) {
	name := "parking slot"
	updated, err := r.store.UpdateSlot(ctx, id, func(cur model.ParkingSlot) (model.ParkingSlot, error) {
		next, err := applySlotInput(cur, in)
		name = "parking slot " + next.SpotName
		return next, err
	})
	if err != nil {
		return model.ParkingSlot{}, fromStore(err, name)
	}
	return updated, nil
}

// Replace is Update with every required attribute demanded, as for Create.
func (r *SlotRegistry) Replace(ctx context.Context, id uint64, in SlotInput) (model.ParkingSlot, error) {
	if in.SpotName == nil {
		return model.ParkingSlot{}, fail(ErrMissingParameter, "spot_name is required")
	}
	if in.Level == nil {
		return model.ParkingSlot{}, fail(ErrMissingParameter, "level is required")
	}
	if in.RatePerHour == nil {
		return model.ParkingSlot{}, fail(ErrMissingParameter, "rate_per_hour is required")
	}
	return r.Update(ctx, id, in)
}

// Delete removes the slot together with its bookings.
func (r *SlotRegistry) Delete(ctx context.Context, id uint64) error {
	return fromStore(r.store.DeleteSlot(ctx, id), "parking slot")
}

func mergedFields(s model.ParkingSlot, in SlotInput) slotFields {
	f := slotFields{SpotName: s.SpotName, Level: s.Level, SlotType: string(s.SlotType)}
	if in.SpotName != nil {
		f.SpotName = strings.TrimSpace(*in.SpotName)
	}
	if in.Level != nil {
		f.Level = strings.TrimSpace(*in.Level)
	}
	if in.SlotType != nil {
		f.SlotType = strings.ToLower(strings.TrimSpace(*in.SlotType))
	}
	return f
}

func applySlotInput(s model.ParkingSlot, in SlotInput) (model.ParkingSlot, error) {
	f := mergedFields(s, in)
	if err := checkStruct(f); err != nil {
		return model.ParkingSlot{}, err
	}
	s.SpotName, s.Level, s.SlotType = f.SpotName, f.Level, model.SlotType(f.SlotType)

	if in.RatePerHour != nil {
		rate := *in.RatePerHour
		switch {
		case rate.IsNegative():
			return model.ParkingSlot{}, fail(ErrInvalidParameter, "rate_per_hour must not be negative")
		case !rate.Equal(rate.Round(2)):
			return model.ParkingSlot{}, fail(ErrInvalidParameter, "rate_per_hour must have at most 2 decimal places")
		case rate.GreaterThan(maxRate):
			return model.ParkingSlot{}, fail(ErrInvalidParameter, "rate_per_hour must be at most %s", maxRate.StringFixed(2))
		}
		s.RatePerHour = rate.Round(2)
	}
	if in.IsAvailable != nil {
		s.IsAvailable = *in.IsAvailable
	}
	return s, nil
}
