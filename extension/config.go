package extension

import "time"

// Config holds the academy extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.academy" or "academy" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableSeed prevents inserting the default catalog on start.
	DisableSeed bool `json:"disable_seed" mapstructure:"disable_seed" yaml:"disable_seed"`

	// Driver selects the store backend: memory, sqlite, postgres or mongo
	// (default: memory). Ignored when a store is provided with WithStore.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DSN is the backend connection string.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// BonusPoints is the purchase bonus awarded per unlocked course
	// (default: 100).
	BonusPoints int `json:"bonus_points" mapstructure:"bonus_points" yaml:"bonus_points"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        "memory",
		BonusPoints:   100,
		PluginTimeout: 5 * time.Second,
	}
}
