// Package audithook bridges ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTransfer         = (*Extension)(nil)
	_ plugin.OnApproval         = (*Extension)(nil)
	_ plugin.OnMint             = (*Extension)(nil)
	_ plugin.OnBurn             = (*Extension)(nil)
	_ plugin.OnFeeCollected     = (*Extension)(nil)
	_ plugin.OnFeeRateChanged   = (*Extension)(nil)
	_ plugin.OnExemptionChanged = (*Extension)(nil)
	_ plugin.OnRoleChanged      = (*Extension)(nil)
	_ plugin.OnUpgraded         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, ev *event.Transfer) error {
	return e.record(ctx, ActionTransfer, SeverityInfo, ResourceAccount, ev.From.Hex(), CategoryTransfer, ev.Meta,
		"from", ev.From.Hex(),
		"to", ev.To.Hex(),
		"amount", ev.Amount.Dec(),
	)
}

// OnApproval implements plugin.OnApproval.
func (e *Extension) OnApproval(ctx context.Context, ev *event.Approval) error {
	return e.record(ctx, ActionApproval, SeverityInfo, ResourceAllowance, ev.Owner.Hex(), CategoryTransfer, ev.Meta,
		"owner", ev.Owner.Hex(),
		"spender", ev.Spender.Hex(),
		"amount", ev.Amount.Dec(),
	)
}

// ──────────────────────────────────────────────────
// Supply hooks
// ──────────────────────────────────────────────────

// OnMint implements plugin.OnMint.
func (e *Extension) OnMint(ctx context.Context, ev *event.Mint) error {
	return e.record(ctx, ActionMint, SeverityInfo, ResourceSupply, ev.To.Hex(), CategorySupply, ev.Meta,
		"to", ev.To.Hex(),
		"amount", ev.Amount.Dec(),
		"total_supply", ev.TotalSupply.Dec(),
	)
}

// OnBurn implements plugin.OnBurn.
func (e *Extension) OnBurn(ctx context.Context, ev *event.Burn) error {
	return e.record(ctx, ActionBurn, SeverityInfo, ResourceSupply, ev.From.Hex(), CategorySupply, ev.Meta,
		"from", ev.From.Hex(),
		"amount", ev.Amount.Dec(),
		"total_supply", ev.TotalSupply.Dec(),
	)
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeeCollected implements plugin.OnFeeCollected.
func (e *Extension) OnFeeCollected(ctx context.Context, ev *event.FeeCollected) error {
	return e.record(ctx, ActionFeeCollected, SeverityInfo, ResourceFee, ev.Account.Hex(), CategoryFee, ev.Meta,
		"account", ev.Account.Hex(),
		"collector", ev.Collector.Hex(),
		"amount", ev.Amount.Dec(),
	)
}

// OnFeeRateChanged implements plugin.OnFeeRateChanged.
func (e *Extension) OnFeeRateChanged(ctx context.Context, ev *event.FeeRateChanged) error {
	action := ActionFeeRateChanged
	if ev.Reduction {
		action = ActionFeeRateReduced
	}
	return e.record(ctx, action, SeverityWarning, ResourceToken, "", CategoryGovernance, ev.Meta,
		"old_rate", ev.OldRate.Dec(),
		"new_rate", ev.NewRate.Dec(),
	)
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnExemptionChanged implements plugin.OnExemptionChanged.
func (e *Extension) OnExemptionChanged(ctx context.Context, ev *event.ExemptionChanged) error {
	action := ActionExemptionRevoked
	if ev.Exempt {
		action = ActionExemptionGranted
	}
	return e.record(ctx, action, SeverityWarning, ResourceAccount, ev.Account.Hex(), CategoryGovernance, ev.Meta,
		"account", ev.Account.Hex(),
	)
}

// OnRoleChanged implements plugin.OnRoleChanged.
func (e *Extension) OnRoleChanged(ctx context.Context, ev *event.RoleChanged) error {
	return e.record(ctx, ActionRoleChanged, SeverityWarning, ResourceToken, string(ev.Role), CategoryGovernance, ev.Meta,
		"role", string(ev.Role),
		"previous", ev.Previous.Hex(),
		"current", ev.Current.Hex(),
	)
}

// OnUpgraded implements plugin.OnUpgraded.
func (e *Extension) OnUpgraded(ctx context.Context, ev *event.Upgraded) error {
	return e.record(ctx, ActionLogicUpgraded, SeverityCritical, ResourceToken, "", CategoryGovernance, ev.Meta,
		"from", ev.From,
		"to", ev.To,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled. A
// recorder failure is logged, never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity string,
	resource, resourceID, category string,
	meta event.Meta,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	md := make(map[string]any, len(kvPairs)/2+2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		md[key] = kvPairs[i+1]
	}
	md["event_id"] = meta.ID.String()
	md["ledger_time"] = meta.Time

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   md,
		Outcome:    OutcomeSuccess,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
