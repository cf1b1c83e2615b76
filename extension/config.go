package extension

import (
	"time"

	"github.com/xraph/demurrage/internal/config"
	"github.com/xraph/demurrage/plugin"
)

// GenesisConfig is the file form of the token genesis. Addresses are 0x
// hex and rates are percentages ("2.5%") or raw integers.
type GenesisConfig = config.Genesis

// Store drivers accepted in StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// StoreConfig selects the ledger store when none is set with WithStore.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres or mongo (default: memory).
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DSN is the SQLite file path, the Postgres connection string or the
	// MongoDB URI.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// Database is the MongoDB database name (default: "demurrage").
	Database string `json:"database" mapstructure:"database" yaml:"database"`
}

// Config holds the demurrage extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.demurrage" or "demurrage" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Store selects and configures the backend.
	Store StoreConfig `json:"store" mapstructure:"store" yaml:"store"`

	// Genesis, when set, initializes the token on start unless it already
	// is.
	Genesis *GenesisConfig `json:"genesis,omitempty" mapstructure:"genesis" yaml:"genesis,omitempty"`

	// HookTimeout bounds each plugin hook invocation (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// Metrics registers the Prometheus metrics plugin on the default
	// registerer.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `json:"metrics_namespace" mapstructure:"metrics_namespace" yaml:"metrics_namespace"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Driver:   DriverMemory,
			Database: "demurrage",
		},
		HookTimeout: plugin.DefaultHookTimeout,
	}
}
