// Package observability provides a metrics extension for the token ledger
// that records event counts and amounts through a MetricFactory.
package observability

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTransfer         = (*MetricsExtension)(nil)
	_ plugin.OnApproval         = (*MetricsExtension)(nil)
	_ plugin.OnMint             = (*MetricsExtension)(nil)
	_ plugin.OnBurn             = (*MetricsExtension)(nil)
	_ plugin.OnFeeCollected     = (*MetricsExtension)(nil)
	_ plugin.OnFeeRateChanged   = (*MetricsExtension)(nil)
	_ plugin.OnExemptionChanged = (*MetricsExtension)(nil)
	_ plugin.OnRoleChanged      = (*MetricsExtension)(nil)
	_ plugin.OnUpgraded         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity metrics. Amounts are observed in
// base units.
type MetricsExtension struct {
	factory MetricFactory

	// Balance metrics
	Transfers      Counter
	TransferAmount Histogram
	Approvals      Counter

	// Supply metrics
	Mints       Counter
	MintAmount  Histogram
	Burns       Counter
	BurnAmount  Histogram
	SupplyTotal Histogram

	// Fee metrics
	FeeSettlements Counter
	FeeCollected   Counter
	FeeAmount      Histogram
	FeeRateChanges Counter
	FeeRateCuts    Counter

	// Governance metrics
	ExemptionChanges Counter
	RoleChanges      Counter
	Upgrades         Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		Transfers:      factory.Counter("demurrage.transfer.count"),
		TransferAmount: factory.Histogram("demurrage.transfer.amount"),
		Approvals:      factory.Counter("demurrage.approval.count"),

		Mints:       factory.Counter("demurrage.mint.count"),
		MintAmount:  factory.Histogram("demurrage.mint.amount"),
		Burns:       factory.Counter("demurrage.burn.count"),
		BurnAmount:  factory.Histogram("demurrage.burn.amount"),
		SupplyTotal: factory.Histogram("demurrage.supply.total"),

		FeeSettlements: factory.Counter("demurrage.fee.settlements"),
		FeeCollected:   factory.Counter("demurrage.fee.collected"),
		FeeAmount:      factory.Histogram("demurrage.fee.amount"),
		FeeRateChanges: factory.Counter("demurrage.fee_rate.changes"),
		FeeRateCuts:    factory.Counter("demurrage.fee_rate.reductions"),

		ExemptionChanges: factory.Counter("demurrage.exemption.changes"),
		RoleChanges:      factory.Counter("demurrage.role.changes"),
		Upgrades:         factory.Counter("demurrage.logic.upgrades"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, e *event.Transfer) error {
	m.Transfers.Inc()
	m.TransferAmount.Observe(float(e.Amount))
	return nil
}

// OnApproval implements plugin.OnApproval.
func (m *MetricsExtension) OnApproval(_ context.Context, _ *event.Approval) error {
	m.Approvals.Inc()
	return nil
}

// OnMint implements plugin.OnMint.
func (m *MetricsExtension) OnMint(_ context.Context, e *event.Mint) error {
	m.Mints.Inc()
	m.MintAmount.Observe(float(e.Amount))
	m.SupplyTotal.Observe(float(e.TotalSupply))
	return nil
}

// OnBurn implements plugin.OnBurn.
func (m *MetricsExtension) OnBurn(_ context.Context, e *event.Burn) error {
	m.Burns.Inc()
	m.BurnAmount.Observe(float(e.Amount))
	m.SupplyTotal.Observe(float(e.TotalSupply))
	return nil
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeeCollected implements plugin.OnFeeCollected.
func (m *MetricsExtension) OnFeeCollected(_ context.Context, e *event.FeeCollected) error {
	amount := float(e.Amount)
	m.FeeSettlements.Inc()
	m.FeeCollected.Add(amount)
	m.FeeAmount.Observe(amount)
	return nil
}

// OnFeeRateChanged implements plugin.OnFeeRateChanged.
func (m *MetricsExtension) OnFeeRateChanged(_ context.Context, e *event.FeeRateChanged) error {
	m.FeeRateChanges.Inc()
	if e.Reduction {
		m.FeeRateCuts.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnExemptionChanged implements plugin.OnExemptionChanged.
func (m *MetricsExtension) OnExemptionChanged(_ context.Context, _ *event.ExemptionChanged) error {
	m.ExemptionChanges.Inc()
	return nil
}

// OnRoleChanged implements plugin.OnRoleChanged.
func (m *MetricsExtension) OnRoleChanged(_ context.Context, _ *event.RoleChanged) error {
	m.RoleChanges.Inc()
	return nil
}

// OnUpgraded implements plugin.OnUpgraded.
func (m *MetricsExtension) OnUpgraded(_ context.Context, _ *event.Upgraded) error {
	m.Upgrades.Inc()
	return nil
}

// float converts an amount for observation. Precision loss above 2^53 is
// acceptable for metrics.
func float(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	return v.Float64()
}
