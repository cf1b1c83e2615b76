package extension

import (
	"time"

	"github.com/xraph/demurrage"
	audithook "github.com/xraph/demurrage/audit_hook"
	"github.com/xraph/demurrage/oracle"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/store"
)

// Option configures the demurrage Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger, overriding Config.Store.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a demurrage.Option through to the underlying ledger.
func WithLedgerOption(opt demurrage.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, demurrage.WithPlugin(p))
	}
}

// WithAuditRecorder registers the audit hook plugin writing to r.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return WithPlugin(audithook.New(r, opts...))
}

// WithOracles sets the resolver consulted at mint time.
func WithOracles(r oracle.Resolver) Option {
	return WithLedgerOption(demurrage.WithOracles(r))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithGenesis initializes the token on start unless it already is.
func WithGenesis(g GenesisConfig) Option {
	return func(e *Extension) { e.config.Genesis = &g }
}

// WithHookTimeout bounds each plugin hook invocation.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}

// WithMetrics registers the Prometheus metrics plugin.
func WithMetrics(namespace string) Option {
	return func(e *Extension) {
		e.config.Metrics = true
		e.config.MetricsNamespace = namespace
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithClock sets the time source used for the genesis timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}
