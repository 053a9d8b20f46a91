package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

var statusByCode = map[string]int{
	"missing_parameter":    http.StatusBadRequest,
	"invalid_parameter":    http.StatusBadRequest,
	"invalid_duration":     http.StatusBadRequest,
	"not_found":            http.StatusNotFound,
	"slot_unavailable":     http.StatusConflict,
	"concurrency_conflict": http.StatusConflict,
	"duplicate":            http.StatusConflict,
	"invalid_credentials":  http.StatusUnauthorized,
}

// writeError renders a service error as {"error", "code"}.  Anything outside
// the service taxonomy is logged and hidden behind a 500.
func writeError(c echo.Context, err error) error {
	code := service.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		logging.Error(c.Request().Context()).Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error", "code": "internal"})
	}
	return c.JSON(status, echo.Map{"error": err.Error(), "code": code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "invalid_parameter"})
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// flexNumber accepts a JSON number or a numeric string, as browser form
// clients send either.  Set reports whether the field was present and
// non-empty.  A value that is not a number is kept as NaN so the service
// reports it with the field's own error, in its usual order.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = flexNumber{}
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		v = math.NaN()
	}
	*n = flexNumber{Value: v, Set: true}
	return nil
}
