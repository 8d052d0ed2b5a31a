package crud

import (
	"log/slog"
	"time"
)

// Config holds the immutable behavior knobs of a Handler. Start from
// DefaultConfig and adjust; the zero value disables timestamping.
type Config struct {
	// Timestamps enables created_at/updated_at management.
	// Default: true.
	Timestamps bool

	// SoftDelete enables the two-step delete policy: the first delete
	// flips the deletion marker, a second delete removes the record.
	// Default: false.
	SoftDelete bool

	// Hooks receives lifecycle callbacks after mutating store calls.
	// Default: NoopHooks.
	Hooks Hooks

	// Logger receives operation logs. Default: slog.Default().
	Logger *slog.Logger

	// Now supplies timestamps. Default: time.Now. Override in tests.
	Now func() time.Time
}

// DefaultConfig returns the default behavior: timestamps on, soft delete
// off.
func DefaultConfig() Config {
	return Config{
		Timestamps: true,
	}
}

// validate fills unset optional fields.
func (c *Config) validate() {
	if c.Hooks == nil {
		c.Hooks = NoopHooks{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
