package extension

import (
	"time"

	"github.com/xraph/academy"
	"github.com/xraph/academy/observability"
	"github.com/xraph/academy/plugin"
	"github.com/xraph/academy/store"
)

// Option configures the academy Forge extension.
type Option func(*Extension)

// WithStore sets the store for the academy engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithAcademyOption passes an academy.Option through to the underlying engine.
func WithAcademyOption(opt academy.Option) Option {
	return func(e *Extension) {
		e.academyOpts = append(e.academyOpts, opt)
	}
}

// WithPlugin registers an academy plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.academyOpts = append(e.academyOpts, academy.WithPlugin(p))
	}
}

// WithMetrics registers the metrics plugin backed by factory, for example
// observability.NewPrometheusFactory.
func WithMetrics(factory observability.MetricFactory) Option {
	return WithPlugin(observability.NewMetricsExtension(factory))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableSeed prevents seeding the default catalog on start.
func WithDisableSeed() Option {
	return func(e *Extension) { e.config.DisableSeed = true }
}

// WithBackend selects the store backend by driver name and DSN.
func WithBackend(driver, dsn string) Option {
	return func(e *Extension) {
		e.config.Driver = driver
		e.config.DSN = dsn
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithBonusPoints sets the purchase bonus.
func WithBonusPoints(points int) Option {
	return func(e *Extension) { e.config.BonusPoints = points }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
