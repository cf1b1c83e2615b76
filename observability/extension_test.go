package observability

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/id"
)

func TestMetricName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"demurrage.transfer.count", "demurrage_transfer_count"},
		{"demurrage.fee_rate.changes", "demurrage_fee_rate_changes"},
		{"observability-metrics", "observability_metrics"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := metricName(tt.in); got != tt.want {
				t.Errorf("Got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFeeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsExtension(NewPrometheusFactory(reg))
	ctx := context.Background()

	collector := common.HexToAddress("0x0000000000000000000000000000000000000003")
	for _, amount := range []uint64{250, 750} {
		ev := &event.FeeCollected{
			Meta:      event.NewMeta(id.PrefixFeeCollection, 1),
			Account:   common.HexToAddress("0x000000000000000000000000000000000000000a"),
			Collector: collector,
			Amount:    uint256.NewInt(amount),
		}
		if err := m.OnFeeCollected(ctx, ev); err != nil {
			t.Fatalf("OnFeeCollected: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.FeeCollected.(prometheus.Counter)); got != 1000 {
		t.Errorf("Got fee collected %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.FeeSettlements.(prometheus.Counter)); got != 2 {
		t.Errorf("Got settlements %v, want 2", got)
	}

	cut := &event.FeeRateChanged{
		Meta:      event.NewMeta(id.PrefixRateChange, 2),
		OldRate:   uint256.NewInt(2),
		NewRate:   uint256.NewInt(1),
		Reduction: true,
	}
	if err := m.OnFeeRateChanged(ctx, cut); err != nil {
		t.Fatalf("OnFeeRateChanged: %v", err)
	}
	if got := testutil.ToFloat64(m.FeeRateCuts.(prometheus.Counter)); got != 1 {
		t.Errorf("Got reductions %v, want 1", got)
	}
}

func TestTransferMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsExtension(NewPrometheusFactory(reg, WithNamespace("test")))

	ev := &event.Transfer{
		Meta:   event.NewMeta(id.PrefixTransfer, 1),
		From:   common.HexToAddress("0x000000000000000000000000000000000000000a"),
		To:     common.HexToAddress("0x000000000000000000000000000000000000000b"),
		Amount: uint256.NewInt(10),
	}
	if err := m.OnTransfer(context.Background(), ev); err != nil {
		t.Fatalf("OnTransfer: %v", err)
	}

	if got := testutil.ToFloat64(m.Transfers.(prometheus.Counter)); got != 1 {
		t.Errorf("Got transfers %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(reg, "test_demurrage_transfer_amount"); err != nil || n != 1 {
		t.Errorf("Got %d series (err %v), want 1", n, err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := NewPrometheusFactory(reg)

	a := f.Counter("demurrage.transfer.count")
	b := f.Counter("demurrage.transfer.count")
	a.Inc()
	b.Inc()

	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 2 {
		t.Errorf("Got %v, want 2", got)
	}
}
