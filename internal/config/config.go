package config // package config loads application configuration from environment variables

import (
	"errors"  // errors joins validation failures into one value
	"fmt"     // fmt formats validation messages
	"os"      // os provides access to environment variables
	"strings" // strings normalises list values
	"time"    // time parses durations
)

// Storage drivers understood by the server.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secondary concerns (cache, rate limit, queue,
// notifications, jobs) have their own loaders in sibling files.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	StorageDriver    string        // "mysql" (default) or "memory"
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	JWTSecret        string        // secret used to sign JWTs
	AccessTTLMin     int           // access token time‑to‑live in minutes
	RefreshTTLDays   int           // refresh token time‑to‑live in days
	BcryptCost       int           // bcrypt cost for password hashing
	AdminEmails      []string      // accounts registered with these emails get the ADMIN role
	BookingTxTimeout time.Duration // upper bound for one booking transaction
	OTelEnabled      bool          // export traces and metrics over OTLP
	OTelServiceName  string        // service.name resource attribute
	OTelEndpoint     string        // OTLP/HTTP collector endpoint
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables are reported together in the returned
// error instead of terminating the process.
func Load() (Config, error) {
	cfg := Config{
		Env:              os.Getenv("APP_ENV"),
		Port:             os.Getenv("APP_PORT"),
		StorageDriver:    strings.ToLower(envStr("STORAGE_DRIVER", DriverMySQL)),
		DBUser:           os.Getenv("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTTLMin:     envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:   envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:       envInt("BCRYPT_COST", 10),
		AdminEmails:      envList("ADMIN_EMAILS"),
		BookingTxTimeout: envDur("BOOKING_TX_TIMEOUT", 5*time.Second),
		OTelEnabled:      envBool("OTEL_ENABLED", false),
		OTelServiceName:  envStr("OTEL_SERVICE_NAME", "carparking"),
		OTelEndpoint:     envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}
	for i, e := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(e)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	required := map[string]string{
		"APP_ENV":    c.Env,
		"APP_PORT":   c.Port,
		"JWT_SECRET": c.JWTSecret,
	}
	switch c.StorageDriver {
	case DriverMySQL:
		required["DB_USER"] = c.DBUser
		required["DB_HOST"] = c.DBHost
		required["DB_PORT"] = c.DBPort
		required["DB_NAME"] = c.DBName
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	for _, key := range sortedKeys(required) {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
	}
	if c.AccessTTLMin < 1 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if c.RefreshTTLDays < 1 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost))
	}
	if c.BookingTxTimeout <= 0 {
		errs = append(errs, errors.New("BOOKING_TX_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// IsAdminEmail reports whether the normalised email belongs to an operator.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}
