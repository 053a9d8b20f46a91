package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carparking/internal/service"
)

// ContactHandler serves the support form and its operator views.
type ContactHandler struct {
	Contacts *service.Contacts
}

func NewContactHandler(contacts *service.Contacts) *ContactHandler {
	if contacts == nil {
		panic("nil contacts passed to NewContactHandler")
	}
	return &ContactHandler{Contacts: contacts}
}

func (h *ContactHandler) Create(c echo.Context) error {
	var req service.ContactInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ct, err := h.Contacts.Create(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toContactResp(ct))
}

func (h *ContactHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Contacts.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]contactResp, 0, len(list))
	for _, ct := range list {
		out = append(out, toContactResp(ct))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ContactHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid contact id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ct, err := h.Contacts.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toContactResp(ct))
}

func (h *ContactHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid contact id")
	}
	var req service.ContactInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ct, err := h.Contacts.Update(ctx, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toContactResp(ct))
}

func (h *ContactHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid contact id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Contacts.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Count serves both /api/contacts/count and /api/support/count.
func (h *ContactHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Contacts.Count(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_contacts": n})
}
