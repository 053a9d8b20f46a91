package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/service"
)

func TestFlexNumber(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		set   bool
	}{
		{`3`, 3, true},
		{`"3"`, 3, true},
		{`2.5`, 2.5, true},
		{`""`, 0, false},
		{`null`, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var n flexNumber
			require.NoError(t, json.Unmarshal([]byte(tc.in), &n))
			assert.Equal(t, tc.value, n.Value)
			assert.Equal(t, tc.set, n.Set)
		})
	}

	for _, bad := range []string{`"three"`, `" 2.5"`, `true`, `{}`} {
		var n flexNumber
		require.NoError(t, json.Unmarshal([]byte(bad), &n), bad)
		assert.True(t, n.Set, bad)
		assert.True(t, math.IsNaN(n.Value), bad)
	}
}

func TestCreateBookingReqSlotID(t *testing.T) {
	decodeReq := func(body string) createBookingReq {
		var r createBookingReq
		require.NoError(t, json.Unmarshal([]byte(body), &r))
		return r
	}

	req, ok := decodeReq(`{"parking_slot":"7","duration":2}`).request()
	require.True(t, ok)
	require.NotNil(t, req.SlotID)
	assert.Equal(t, uint64(7), *req.SlotID)
	assert.Equal(t, float64(2), req.DurationHours)

	req, ok = decodeReq(`{"parking_slot":0,"duration":2}`).request()
	assert.True(t, ok)
	assert.Nil(t, req.SlotID)

	for _, bad := range []string{`{"parking_slot":-1}`, `{"parking_slot":1.5}`, `{"parking_slot":1e30}`, `{"parking_slot":"abc"}`} {
		_, ok = decodeReq(bad).request()
		assert.False(t, ok, bad)
	}
}

func TestWriteError(t *testing.T) {
	e := echo.New()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{service.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{service.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body["code"])
		if tc.code == "internal" {
			assert.NotContains(t, body["error"], "disk")
		}
	}
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for in, want := range map[string]bool{"12": true, "0": false, "-3": false, "x": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(in)
		_, ok := parseID(c)
		assert.Equal(t, want, ok, in)
	}
}
