package demurrage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/demurrage/oracle"
	"github.com/xraph/demurrage/plugin"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

// Ledger is the token engine. It is the stable façade in front of the
// persisted state: the logic that mutates that state is selected per call
// from the version recorded in the token configuration.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	oracles oracle.Resolver
	logger  *slog.Logger

	// mu serialises operations so every caller observes a total order.
	mu sync.RWMutex
}

// Call identifies who invokes a mutating operation and at which ledger
// time. Time is supplied by the host and must be non-zero.
type Call struct {
	Sender common.Address
	Time   uint64
}

// At is shorthand for Call{Sender: sender, Time: t}.
func At(sender common.Address, t uint64) Call {
	return Call{Sender: sender, Time: t}
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithHookTimeout bounds each plugin hook invocation.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithOracles sets the resolver used to reach the reserve oracle at mint
// time. Without one, minting under a configured oracle fails.
func WithOracles(r oracle.Resolver) Option {
	return func(l *Ledger) {
		l.oracles = r
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("demurrage: migrate: %w", err)
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started", "plugins", l.plugins.Count())
	return nil
}

// Stop notifies plugins and closes the store.
func (l *Ledger) Stop(ctx context.Context) error {
	l.plugins.EmitShutdown(ctx)
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// ──────────────────────────────────────────────────
// Operation plumbing
// ──────────────────────────────────────────────────

// mutate runs fn against a fresh working set and commits the result in one
// store call. When fn fails nothing is written, including fees settled
// before the failure. Events are emitted only after a successful commit.
func (l *Ledger) mutate(ctx context.Context, call Call, op string, fn func(tx *txn, lg logic) error) error {
	if call.Time == 0 {
		return ErrInvalidTimestamp
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tok, err := l.store.GetToken(ctx)
	if err != nil {
		return err
	}

	lg, err := logicFor(tok.Version)
	if err != nil {
		return err
	}

	tx := newTxn(ctx, l.store, tok, call.Time)
	if err := fn(tx, lg); err != nil {
		l.logger.Debug("operation rejected",
			"op", op,
			"sender", call.Sender.Hex(),
			"time", call.Time,
			"error", err,
		)
		return err
	}

	if b := tx.batch(); !b.IsEmpty() {
		if err := l.store.Commit(ctx, b); err != nil {
			return fmt.Errorf("demurrage: %s: commit: %w", op, err)
		}
	}

	l.logger.Debug("operation committed",
		"op", op,
		"sender", call.Sender.Hex(),
		"time", call.Time,
		"version", lg.version(),
		"events", len(tx.events),
	)

	for _, ev := range tx.events {
		l.plugins.Emit(ctx, ev)
	}
	return nil
}

// view loads the token configuration under the read lock.
func (l *Ledger) view(ctx context.Context, fn func(tok *token.Token) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tok, err := l.store.GetToken(ctx)
	if err != nil {
		return err
	}
	return fn(tok)
}
