package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/service"
)

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	Bookings *service.BookingEngine
}

func NewBookingHandler(bookings *service.BookingEngine) *BookingHandler {
	if bookings == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

type createBookingReq struct {
	ParkingSlot  flexNumber `json:"parking_slot"`
	Duration     flexNumber `json:"duration"`
	MobileNumber string     `json:"mobile_number"`
	LicensePlate string     `json:"license_plate"`
	StartTime    *time.Time `json:"start_time"`
}

func (r createBookingReq) request() (service.BookingRequest, bool) {
	req := service.BookingRequest{
		DurationHours: r.Duration.Value,
		MobileNumber:  r.MobileNumber,
		LicensePlate:  r.LicensePlate,
		StartTime:     r.StartTime,
	}
	// 0 counts as absent, as does an empty string
	if r.ParkingSlot.Set && r.ParkingSlot.Value != 0 {
		if math.IsNaN(r.ParkingSlot.Value) || r.ParkingSlot.Value < 0 || r.ParkingSlot.Value > math.MaxInt64 {
			return req, false
		}
		id := uint64(r.ParkingSlot.Value)
		if float64(id) != r.ParkingSlot.Value {
			return req, false
		}
		req.SlotID = &id
	}
	return req, true
}

// Create handles POST /api/bookings.  A lock conflict is retried once before
// it is reported to the client as 409.
func (h *BookingHandler) Create(c echo.Context) error {
	var body createBookingReq
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req, ok := body.request()
	if !ok {
		return badRequest(c, "parking_slot must be a slot id")
	}

	b, err := h.create(c, req)
	if errors.Is(err, service.ErrConcurrencyConflict) {
		logging.Debug(c.Request().Context()).Msg("booking conflict, retrying once")
		b, err = h.create(c, req)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

func (h *BookingHandler) create(c echo.Context, req service.BookingRequest) (model.Booking, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.Bookings.CreateBooking(ctx, req)
}

func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResps(list))
}

func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

type updateBookingReq struct {
	MobileNumber *string `json:"mobile_number"`
	LicensePlate *string `json:"license_plate"`
}

// Update edits the contact fields of a booking.  PUT needs both of them.
func (h *BookingHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if c.Request().Method == http.MethodPut && (req.MobileNumber == nil || req.LicensePlate == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mobile_number and license_plate are required", "code": "missing_parameter"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.UpdateContact(ctx, id, req.MobileNumber, req.LicensePlate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Delete removes the booking.  The slot stays booked until released.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Bookings.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Bookings.CountBookings(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_bookings": n})
}

// TotalAmount answers {"total_amount": null} when there are no bookings.
func (h *BookingHandler) TotalAmount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.Bookings.SumTotalAmount(ctx)
	if err != nil {
		return writeError(c, err)
	}
	var total *string
	if sum.Valid {
		s := sum.Decimal.StringFixed(2)
		total = &s
	}
	return c.JSON(http.StatusOK, echo.Map{"total_amount": total})
}
