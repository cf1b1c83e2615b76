// Package extension provides the Forge extension adapter for the demurrage
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with store selection, DI registration,
// optional genesis and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.demurrage" or
// "demurrage" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/observability"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/store/memory"
	"github.com/xraph/demurrage/store/mongo"
	"github.com/xraph/demurrage/store/postgres"
	"github.com/xraph/demurrage/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "demurrage"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Demurrage token ledger with a lazily accrued holding fee"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the demurrage ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *demurrage.Ledger
	store      store.Store
	ledgerOpts []demurrage.Option

	// now supplies the genesis time.
	now func() time.Time
}

// New creates a new demurrage Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *demurrage.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// opens the store, builds the ledger and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := openStore(context.Background(), e.config.Store)
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = demurrage.New(e.store, e.buildLedgerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*demurrage.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension]. It migrates the store and applies
// the configured genesis once.
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("demurrage: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if err := e.applyGenesis(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(ctx); err != nil {
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
		return errors.New("demurrage: store not initialized")
	}
	return e.store.Ping(ctx)
}

func (e *Extension) applyGenesis(ctx context.Context) error {
	if e.config.Genesis == nil {
		return nil
	}

	g, err := e.config.Genesis.Build()
	if err != nil {
		return fmt.Errorf("demurrage: genesis: %w", err)
	}

	tok, err := e.engine.Initialize(ctx, g, uint64(e.now().Unix()))
	if errors.Is(err, demurrage.ErrAlreadyInitialized) {
		e.Logger().Debug("demurrage: token already initialized, genesis skipped")
		return nil
	}
	if err != nil {
		return err
	}

	e.Logger().Info("demurrage: token initialized",
		forge.F("name", tok.Name),
		forge.F("symbol", tok.Symbol),
		forge.F("owner", tok.Owner.Hex()),
	)
	return nil
}

// buildLedgerOpts constructs demurrage.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []demurrage.Option {
	opts := make([]demurrage.Option, 0, len(e.ledgerOpts)+2)

	if e.config.HookTimeout > 0 {
		opts = append(opts, demurrage.WithHookTimeout(e.config.HookTimeout))
	}

	if e.config.Metrics {
		factory := observability.NewPrometheusFactory(nil,
			observability.WithNamespace(e.config.MetricsNamespace),
		)
		opts = append(opts, demurrage.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// openStore builds the store named by cfg.Driver.
func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return memory.New(), nil
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, errors.New("demurrage: sqlite store requires a dsn (file path)")
		}
		return sqlite.Open(cfg.DSN)
	case DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case DriverMongo:
		database := cfg.Database
		if database == "" {
			database = DefaultConfig().Store.Database
		}
		return mongo.Open(ctx, cfg.DSN, database)
	default:
		return nil, fmt.Errorf("demurrage: unknown store driver %q", cfg.Driver)
	}
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("demurrage: configuration is required but not found in config files; " +
				"ensure 'extensions.demurrage' or 'demurrage' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("demurrage: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("store_driver", e.config.Store.Driver),
		forge.F("genesis", e.config.Genesis != nil),
		forge.F("hook_timeout", e.config.HookTimeout),
		forge.F("metrics", e.config.Metrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.demurrage", "demurrage"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("demurrage: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("demurrage: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	if cfg.Store.Database == "" {
		cfg.Store.Database = defaults.Store.Database
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.Metrics {
		yamlConfig.Metrics = true
	}

	if yamlConfig.Store.Driver == "" {
		yamlConfig.Store = programmaticConfig.Store
	}
	if yamlConfig.Genesis == nil {
		yamlConfig.Genesis = programmaticConfig.Genesis
	}
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if yamlConfig.MetricsNamespace == "" {
		yamlConfig.MetricsNamespace = programmaticConfig.MetricsNamespace
	}

	return mergeWithDefaults(yamlConfig)
}
