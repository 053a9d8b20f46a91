package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository"
)

const instrumentation = "github.com/iliyamo/carparking/internal/service"

var (
	// largest value a DECIMAL(10,2) total can hold
	maxTotal = decimal.RequireFromString("99999999.99")
	// duration is stored as INT UNSIGNED
	maxDuration = float64(math.MaxUint32)
)

// BookingRequest is the input of CreateBooking.  SlotID is a pointer so an
// absent slot can be told apart from id 0.
type BookingRequest struct {
	SlotID        *uint64
	DurationHours float64
	MobileNumber  string
	LicensePlate  string
	StartTime     *time.Time // nil means now
}

type bookingContact struct {
	MobileNumber string `json:"mobile_number" validate:"required,max=15"`
	LicensePlate string `json:"license_plate" validate:"required,max=20"`
}

// BookingEngine validates and executes bookings.  The check of the slot's
// availability, the insert and the flip to unavailable run in one
// transaction under the slot's row lock, so at most one booking can win a
// given slot.
type BookingEngine struct {
	bookings repository.BookingStore
	events   EventPublisher

	// Now supplies the default start time.
	Now func() time.Time
	// TxTimeout bounds lock waits; zero leaves it to the store.
	TxTimeout time.Duration

	tracer   trace.Tracer
	created  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewBookingEngine wires the engine.  events may be nil.
func NewBookingEngine(bookings repository.BookingStore, events EventPublisher) *BookingEngine {
	if bookings == nil {
		panic("nil store passed to NewBookingEngine")
	}
	e := &BookingEngine{
		bookings: bookings,
		events:   events,
		Now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer(instrumentation),
	}
	meter := otel.Meter(instrumentation)
	var err error
	if e.created, err = meter.Int64Counter("parking.bookings.created",
		metric.WithDescription("Bookings committed"),
		metric.WithUnit("{booking}")); err != nil {
		e.created = noop.Int64Counter{}
	}
	if e.rejected, err = meter.Int64Counter("parking.bookings.rejected",
		metric.WithDescription("Booking attempts refused, by error code"),
		metric.WithUnit("{booking}")); err != nil {
		e.rejected = noop.Int64Counter{}
	}
	return e
}

// CreateBooking checks, in order: slot id present, slot exists, slot
// available, duration a whole number of hours >= 1, contact fields.  The
// total is duration × rate, fixed at creation.  Lock contention surfaces as
// ErrConcurrencyConflict and leaves no trace in storage.
func (e *BookingEngine) CreateBooking(ctx context.Context, req BookingRequest) (model.Booking, error) {
	ctx, span := e.tracer.Start(ctx, "BookingEngine.CreateBooking")
	defer span.End()

	booking, slot, err := e.createBooking(ctx, req)
	if err != nil {
		code := Code(err)
		if code == "" {
			code = "internal"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		e.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
		logging.Debug(ctx).Err(err).Str("code", code).Msg("booking rejected")
		return model.Booking{}, err
	}

	span.SetAttributes(
		attribute.Int64("parking.slot_id", int64(slot.ID)),
		attribute.Int64("parking.booking_id", int64(booking.ID)),
	)
	e.created.Add(ctx, 1, metric.WithAttributes(attribute.String("slot_type", string(slot.SlotType))))
	logging.Info(ctx).
		Uint64("booking_id", booking.ID).
		Uint64("slot_id", slot.ID).
		Str("total_amount", booking.TotalAmount.Decimal.StringFixed(2)).
		Msg("booking created")

	if e.events != nil {
		if err := e.events.PublishBookingCreated(ctx, booking, slot); err != nil {
			logging.Warn(ctx).Err(err).Uint64("booking_id", booking.ID).Msg("publish booking.created failed")
		}
	}
	return booking, nil
}

func (e *BookingEngine) createBooking(ctx context.Context, req BookingRequest) (model.Booking, model.ParkingSlot, error) {
	if req.SlotID == nil {
		return model.Booking{}, model.ParkingSlot{}, fail(ErrMissingParameter, "parking_slot is required")
	}
	slotID := *req.SlotID

	if e.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TxTimeout)
		defer cancel()
	}

	var (
		booking model.Booking
		slot    model.ParkingSlot
	)
	err := e.bookings.WithinTx(ctx, func(tx repository.BookingTx) error {
		var err error
		slot, err = tx.LockSlot(ctx, slotID)
		if err != nil {
			return fromStore(err, "parking slot")
		}
		if !slot.IsAvailable {
			return fail(ErrSlotUnavailable, "Slot is already booked")
		}
		hours, err := wholeHours(req.DurationHours)
		if err != nil {
			return err
		}
		contact := bookingContact{
			MobileNumber: strings.TrimSpace(req.MobileNumber),
			LicensePlate: strings.TrimSpace(req.LicensePlate),
		}
		if err := checkStruct(contact); err != nil {
			return err
		}

		total := slot.RatePerHour.Mul(decimal.NewFromInt(int64(hours)))
		if total.GreaterThan(maxTotal) {
			return fail(ErrInvalidDuration, "duration is too long for this slot's rate")
		}
		start := e.Now()
		if req.StartTime != nil {
			start = req.StartTime.UTC()
		}

		booking, err = tx.InsertBooking(ctx, model.Booking{
			ParkingSlotID: slot.ID,
			StartTime:     start,
			Duration:      hours,
			MobileNumber:  contact.MobileNumber,
			LicensePlate:  contact.LicensePlate,
			TotalAmount:   decimal.NewNullDecimal(total.Round(2)),
		})
		if err != nil {
			return fromStore(err, "booking")
		}
		if err := tx.SetSlotAvailability(ctx, slot.ID, false); err != nil {
			return fromStore(err, "parking slot")
		}
		slot.IsAvailable = false
		return nil
	})
	if err != nil {
		// commit and begin failures come back from the store untranslated
		if errors.Is(err, repository.ErrLockContention) || errors.Is(err, context.DeadlineExceeded) {
			err = fail(ErrConcurrencyConflict, "parking slot is being booked concurrently, retry")
		}
		return model.Booking{}, model.ParkingSlot{}, err
	}
	return booking, slot, nil
}

// wholeHours accepts integral values in [1, MaxUint32].
func wholeHours(d float64) (uint32, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d != math.Trunc(d) {
		return 0, fail(ErrInvalidDuration, "duration must be a whole number of hours")
	}
	if d < 1 {
		return 0, fail(ErrInvalidDuration, "duration must be at least 1 hour")
	}
	if d > maxDuration {
		return 0, fail(ErrInvalidDuration, "duration is too long")
	}
	return uint32(d), nil
}

func (e *BookingEngine) Get(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := e.bookings.GetBooking(ctx, id)
	return b, fromStore(err, "booking")
}

func (e *BookingEngine) List(ctx context.Context) ([]model.Booking, error) {
	return e.bookings.ListBookings(ctx)
}

// UpdateContact edits the driver's mobile number and plate.  Nothing else on
// a booking is mutable.
func (e *BookingEngine) UpdateContact(ctx context.Context, id uint64, mobile, plate *string) (model.Booking, error) {
	cur, err := e.Get(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	contact := bookingContact{MobileNumber: cur.MobileNumber, LicensePlate: cur.LicensePlate}
	if mobile != nil {
		contact.MobileNumber = strings.TrimSpace(*mobile)
	}
	if plate != nil {
		contact.LicensePlate = strings.TrimSpace(*plate)
	}
	if err := checkStruct(contact); err != nil {
		return model.Booking{}, err
	}
	b, err := e.bookings.UpdateBookingContact(ctx, id, contact.MobileNumber, contact.LicensePlate)
	return b, fromStore(err, "booking")
}

// Delete removes the booking.  The slot stays unavailable until an operator
// releases it.
func (e *BookingEngine) Delete(ctx context.Context, id uint64) error {
	return fromStore(e.bookings.DeleteBooking(ctx, id), "booking")
}

func (e *BookingEngine) CountBookings(ctx context.Context) (int64, error) {
	return e.bookings.CountBookings(ctx)
}

// SumTotalAmount is invalid when there are no bookings.
func (e *BookingEngine) SumTotalAmount(ctx context.Context) (decimal.NullDecimal, error) {
	return e.bookings.SumTotalAmount(ctx)
}
