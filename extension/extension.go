// Package extension provides the Forge extension adapter for academy.
//
// It implements the forge.Extension interface to integrate the academy
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.academy" or "academy" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/academy"
	"github.com/xraph/academy/store"
	"github.com/xraph/academy/store/backend"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "academy"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Points ledger and course access for sports education"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts academy as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *academy.Academy
	store       store.Store
	academyOpts []academy.Option
}

// New creates a new academy Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying academy instance.
// This is nil until Register is called.
func (e *Extension) Engine() *academy.Academy { return e.engine }

// Register implements [forge.Extension]. It loads configuration, opens
// the configured store, builds the engine, and registers it in the DI
// container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := backend.Open(context.Background(), e.config.Driver, e.config.DSN)
		if err != nil {
			return fmt.Errorf("academy: open store: %w", err)
		}
		e.store = s
	}

	e.engine = academy.New(e.store, e.buildAcademyOpts()...)

	return vessel.Provide(fapp.Container(), func() (*academy.Academy, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("academy: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if !e.config.DisableSeed {
		seeded, err := e.engine.Seed(ctx)
		if err != nil {
			return err
		}
		if seeded {
			e.Logger().Info("academy: default catalog seeded")
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("academy: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildAcademyOpts constructs academy.Option values from the resolved config.
func (e *Extension) buildAcademyOpts() []academy.Option {
	opts := make([]academy.Option, 0, len(e.academyOpts)+2)

	if e.config.BonusPoints > 0 {
		opts = append(opts, academy.WithBonusPoints(e.config.BonusPoints))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, academy.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Pass-through options go last so they win.
	opts = append(opts, e.academyOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("academy: configuration is required but not found in config files; " +
				"ensure 'extensions.academy' or 'academy' key exists in your config")
		}
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("academy: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_seed", e.config.DisableSeed),
		forge.F("driver", e.config.Driver),
		forge.F("bonus_points", e.config.BonusPoints),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.academy", "academy"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("academy: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("academy: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.BonusPoints == 0 {
		cfg.BonusPoints = defaults.BonusPoints
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableSeed {
		yamlConfig.DisableSeed = true
	}

	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.DSN == "" && programmaticConfig.DSN != "" {
		yamlConfig.DSN = programmaticConfig.DSN
	}
	if yamlConfig.BonusPoints == 0 && programmaticConfig.BonusPoints != 0 {
		yamlConfig.BonusPoints = programmaticConfig.BonusPoints
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return e.mergeWithDefaults(yamlConfig)
}
