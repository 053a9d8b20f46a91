package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	other := errors.New("boom")
	missingTable := &mysql.MySQLError{Number: 1146}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'A1'"}, ErrDuplicate},
		{"lock wait", &mysql.MySQLError{Number: 1205}, ErrLockContention},
		{"deadlock wrapped", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1213}), ErrLockContention},
		{"other mysql", missingTable, missingTable},
		{"unknown", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.in))
		})
	}
}

func TestClassifyLockDeadline(t *testing.T) {
	assert.ErrorIs(t, classifyLock(context.DeadlineExceeded), ErrLockContention)
	assert.ErrorIs(t, classifyLock(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), context.DeadlineExceeded)
}
