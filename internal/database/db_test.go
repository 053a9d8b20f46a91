package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	o := Options{User: "parking", Pass: "pw", Host: "db", Port: "3306", Name: "parking"}
	dsn := o.DSN()
	assert.True(t, strings.HasPrefix(dsn, "parking:pw@tcp(db:3306)/parking?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "loc=UTC")

	o.Pass = ""
	assert.True(t, strings.HasPrefix(o.DSN(), "parking@tcp(db:3306)/parking?"))
}

func TestSchemaCascadesBookings(t *testing.T) {
	var bookings string
	for _, stmt := range schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS bookings") {
			bookings = stmt
		}
	}
	assert.Contains(t, bookings, "ON DELETE CASCADE")
	assert.Contains(t, bookings, "DECIMAL(10,2) NULL")
}
