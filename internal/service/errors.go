package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/carparking/internal/repository"
)

// Error kinds returned by the services.  Callers compare with errors.Is; the
// concrete error usually carries a more specific human readable message.
var (
	ErrMissingParameter    = errors.New("missing parameter")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNotFound            = errors.New("not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrDuplicate           = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

var errorCodes = []struct {
	kind error
	code string
}{
	{ErrMissingParameter, "missing_parameter"},
	{ErrInvalidParameter, "invalid_parameter"},
	{ErrNotFound, "not_found"},
	{ErrSlotUnavailable, "slot_unavailable"},
	{ErrInvalidDuration, "invalid_duration"},
	{ErrConcurrencyConflict, "concurrency_conflict"},
	{ErrDuplicate, "duplicate"},
	{ErrInvalidCredentials, "invalid_credentials"},
}

// Code returns the machine readable kind of err, or "" for errors that are
// not part of the service taxonomy.
func Code(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return ""
}

// detailError pairs a kind with a message meant for the API client.
type detailError struct {
	kind error
	msg  string
}

func (e *detailError) Error() string { return e.msg }
func (e *detailError) Unwrap() error { return e.kind }

func fail(kind error, format string, args ...any) error {
	return &detailError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// fromStore translates repository sentinels for the entity named by what.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fail(ErrNotFound, "%s not found", what)
	case errors.Is(err, repository.ErrDuplicate):
		return fail(ErrDuplicate, "%s already exists", what)
	case errors.Is(err, repository.ErrLockContention):
		return fail(ErrConcurrencyConflict, "%s is being modified concurrently, retry", what)
	}
	return err
}
