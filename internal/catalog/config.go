package catalog

import (
	"time"

	"github.com/koustreak/erdview/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds the client's connection and timeout settings.
type Config struct {
	// Driver selects the registered Dialect (e.g. DriverPostgres).
	Driver Driver `koanf:"driver"`

	// Timeouts
	ConnectTimeout time.Duration `koanf:"connect_timeout"` // opening a session and the liveness probe
	QueryTimeout   time.Duration `koanf:"query_timeout"`   // every catalog call and RunQuery

	// MaxConns caps the session's pool. One keeps the single-connection model.
	MaxConns int `koanf:"max_conns"`

	// MaxReconnectAttempts is reported against, never enforced.
	MaxReconnectAttempts int `koanf:"max_reconnect_attempts"`

	// HealthCheckInterval is how often the live session is pinged. Zero disables it.
	HealthCheckInterval time.Duration `koanf:"health_check_interval"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Driver:               DriverPostgres,
		ConnectTimeout:       10 * time.Second,
		QueryTimeout:         30 * time.Second,
		MaxConns:             1,
		MaxReconnectAttempts: 5,
		HealthCheckInterval:  15 * time.Second,
	}
}

// Validate rejects settings that would make every call fail.
func (c Config) Validate() error {
	if c.QueryTimeout <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "catalog query timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "catalog connect timeout must be positive")
	}
	if c.MaxConns < 1 {
		return errs.New(errs.ErrKindInvalidInput, "catalog max conns must be at least 1")
	}
	if c.HealthCheckInterval < 0 {
		return errs.New(errs.ErrKindInvalidInput, "catalog health check interval must not be negative")
	}
	return nil
}
