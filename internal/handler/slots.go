package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/carparking/internal/service"
)

// SlotHandler serves /api/parking-slots.
type SlotHandler struct {
	Slots *service.SlotRegistry
}

func NewSlotHandler(slots *service.SlotRegistry) *SlotHandler {
	if slots == nil {
		panic("nil registry passed to NewSlotHandler")
	}
	return &SlotHandler{Slots: slots}
}

type slotReq struct {
	SpotName    *string          `json:"spot_name"`
	Level       *string          `json:"level"`
	SlotType    *string          `json:"slot_type"`
	RatePerHour *decimal.Decimal `json:"rate_per_hour"`
	IsAvailable *bool            `json:"is_available"`
}

func (r slotReq) input() service.SlotInput {
	return service.SlotInput{
		SpotName:    r.SpotName,
		Level:       r.Level,
		SlotType:    r.SlotType,
		RatePerHour: r.RatePerHour,
		IsAvailable: r.IsAvailable,
	}
}

func (h *SlotHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Slots.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResps(slots))
}

// ListAvailable handles GET /api/parking-slots/available_slots.
func (h *SlotHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Slots.ListAvailable(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResps(slots))
}

func (h *SlotHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Slots.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResp(s))
}

func (h *SlotHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Slots.Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_parkingslots": n})
}

func (h *SlotHandler) Create(c echo.Context) error {
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Slots.Create(ctx, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toSlotResp(s))
}

// Update serves PUT (every required field) and PATCH (any subset).
func (h *SlotHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	update := h.Slots.Update
	if c.Request().Method == http.MethodPut {
		update = h.Slots.Replace
	}
	s, err := update(ctx, id, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResp(s))
}

// Delete removes the slot and, through the cascade, its bookings.
func (h *SlotHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Slots.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Release makes a booked slot available again.
func (h *SlotHandler) Release(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid slot id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Slots.Release(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResp(s))
}

