package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/demurrage/event"
)

// DefaultHookTimeout bounds a single hook invocation.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches events to the
// hooks each one implements. Hook lists are cached at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit             []OnInit
	onShutdown         []OnShutdown
	onTransfer         []OnTransfer
	onApproval         []OnApproval
	onMint             []OnMint
	onBurn             []OnBurn
	onFeeCollected     []OnFeeCollected
	onFeeRateChanged   []OnFeeRateChanged
	onExemptionChanged []OnExemptionChanged
	onRoleChanged      []OnRoleChanged
	onUpgraded         []OnUpgraded
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransfer); ok {
		r.onTransfer = append(r.onTransfer, v)
	}
	if v, ok := p.(OnApproval); ok {
		r.onApproval = append(r.onApproval, v)
	}
	if v, ok := p.(OnMint); ok {
		r.onMint = append(r.onMint, v)
	}
	if v, ok := p.(OnBurn); ok {
		r.onBurn = append(r.onBurn, v)
	}
	if v, ok := p.(OnFeeCollected); ok {
		r.onFeeCollected = append(r.onFeeCollected, v)
	}
	if v, ok := p.(OnFeeRateChanged); ok {
		r.onFeeRateChanged = append(r.onFeeRateChanged, v)
	}
	if v, ok := p.(OnExemptionChanged); ok {
		r.onExemptionChanged = append(r.onExemptionChanged, v)
	}
	if v, ok := p.(OnRoleChanged); ok {
		r.onRoleChanged = append(r.onRoleChanged, v)
	}
	if v, ok := p.(OnUpgraded); ok {
		r.onUpgraded = append(r.onUpgraded, v)
	}

	r.logger.Debug("plugin registered", "plugin", p.Name())
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnInit", func() error { return p.OnInit(ctx, l) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, p := range hooks {
		r.call(ctx, p.Name(), "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// Emit dispatches a ledger event to every plugin implementing its hook.
func (r *Registry) Emit(ctx context.Context, ev event.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch e := ev.(type) {
	case *event.Transfer:
		for _, p := range r.onTransfer {
			r.call(ctx, p.Name(), "OnTransfer", func() error { return p.OnTransfer(ctx, e) })
		}
	case *event.Approval:
		for _, p := range r.onApproval {
			r.call(ctx, p.Name(), "OnApproval", func() error { return p.OnApproval(ctx, e) })
		}
	case *event.Mint:
		for _, p := range r.onMint {
			r.call(ctx, p.Name(), "OnMint", func() error { return p.OnMint(ctx, e) })
		}
	case *event.Burn:
		for _, p := range r.onBurn {
			r.call(ctx, p.Name(), "OnBurn", func() error { return p.OnBurn(ctx, e) })
		}
	case *event.FeeCollected:
		for _, p := range r.onFeeCollected {
			r.call(ctx, p.Name(), "OnFeeCollected", func() error { return p.OnFeeCollected(ctx, e) })
		}
	case *event.FeeRateChanged:
		for _, p := range r.onFeeRateChanged {
			r.call(ctx, p.Name(), "OnFeeRateChanged", func() error { return p.OnFeeRateChanged(ctx, e) })
		}
	case *event.ExemptionChanged:
		for _, p := range r.onExemptionChanged {
			r.call(ctx, p.Name(), "OnExemptionChanged", func() error { return p.OnExemptionChanged(ctx, e) })
		}
	case *event.RoleChanged:
		for _, p := range r.onRoleChanged {
			r.call(ctx, p.Name(), "OnRoleChanged", func() error { return p.OnRoleChanged(ctx, e) })
		}
	case *event.Upgraded:
		for _, p := range r.onUpgraded {
			r.call(ctx, p.Name(), "OnUpgraded", func() error { return p.OnUpgraded(ctx, e) })
		}
	default:
		r.logger.Warn("plugin: unknown event type", "type", fmt.Sprintf("%T", ev))
	}
}

func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout runs fn and gives up after the registry timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
