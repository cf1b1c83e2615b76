// Package plugin provides an extensible plugin system for the token ledger.
// Plugins hook into lifecycle and ledger events by implementing any subset
// of the hook interfaces below. Hooks run after an operation has been
// committed; a failing hook is logged and never undoes the operation.
package plugin

import (
	"context"

	"github.com/xraph/demurrage/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *demurrage.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, e *event.Transfer) error
}

type OnApproval interface {
	Plugin
	OnApproval(ctx context.Context, e *event.Approval) error
}

type OnMint interface {
	Plugin
	OnMint(ctx context.Context, e *event.Mint) error
}

type OnBurn interface {
	Plugin
	OnBurn(ctx context.Context, e *event.Burn) error
}

// OnFeeCollected is called once per account whose settlement deducted a
// non-zero fee.
type OnFeeCollected interface {
	Plugin
	OnFeeCollected(ctx context.Context, e *event.FeeCollected) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

type OnFeeRateChanged interface {
	Plugin
	OnFeeRateChanged(ctx context.Context, e *event.FeeRateChanged) error
}

type OnExemptionChanged interface {
	Plugin
	OnExemptionChanged(ctx context.Context, e *event.ExemptionChanged) error
}

type OnRoleChanged interface {
	Plugin
	OnRoleChanged(ctx context.Context, e *event.RoleChanged) error
}

type OnUpgraded interface {
	Plugin
	OnUpgraded(ctx context.Context, e *event.Upgraded) error
}
