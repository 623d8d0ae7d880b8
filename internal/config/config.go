// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"

	"github.com/okian/quicktodo/internal/domain/model"
)

// Server flavors accepted by the flavor key.
const (
	FlavorTasks   = model.FlavorTasks
	FlavorRecords = model.FlavorRecords
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address.
	Addr string `koanf:"addr"`

	// Flavor selects which todo server this process runs: tasks or records.
	Flavor string `koanf:"flavor"`

	// Seed starts the tasks flavor with its three sample tasks.
	Seed bool `koanf:"seed"`

	// DemoListing makes GET /todos on the records flavor answer with the
	// fixed demo payload instead of the stored records.
	DemoListing bool `koanf:"demo_listing"`

	// CORSAllowedOrigins lists origins allowed to call the API. "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":3000",
		Flavor:             FlavorRecords,
		Seed:               true,
		DemoListing:        true,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    30 * time.Second,
	}
}
