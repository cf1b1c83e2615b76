package audithook

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/id"
)

type captured struct {
	events []*AuditEvent
}

func (c *captured) Record(_ context.Context, ev *AuditEvent) error {
	c.events = append(c.events, ev)
	return nil
}

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000000b")
)

func TestTransferRecorded(t *testing.T) {
	rec := &captured{}
	ext := New(rec)

	ev := &event.Transfer{
		Meta:   event.NewMeta(id.PrefixTransfer, 42),
		From:   alice,
		To:     bob,
		Amount: uint256.NewInt(1000),
	}
	if err := ext.OnTransfer(context.Background(), ev); err != nil {
		t.Fatalf("OnTransfer: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("Got %d events, want 1", len(rec.events))
	}
	got := rec.events[0]
	if got.Action != ActionTransfer {
		t.Errorf("Got action %q, want %q", got.Action, ActionTransfer)
	}
	if got.ResourceID != alice.Hex() {
		t.Errorf("Got resource id %q, want %q", got.ResourceID, alice.Hex())
	}
	if got.Metadata["amount"] != "1000" {
		t.Errorf("Got amount %v, want 1000", got.Metadata["amount"])
	}
	if got.Metadata["ledger_time"] != uint64(42) {
		t.Errorf("Got ledger_time %v, want 42", got.Metadata["ledger_time"])
	}
	if got.Metadata["event_id"] != ev.ID.String() {
		t.Errorf("Got event_id %v, want %v", got.Metadata["event_id"], ev.ID.String())
	}
}

func TestActionSelection(t *testing.T) {
	rate := &event.FeeRateChanged{
		Meta:      event.NewMeta(id.PrefixRateChange, 1),
		OldRate:   uint256.NewInt(2),
		NewRate:   uint256.NewInt(1),
		Reduction: true,
	}
	exempt := &event.ExemptionChanged{
		Meta:    event.NewMeta(id.PrefixExemption, 1),
		Account: alice,
		Exempt:  true,
	}

	tests := []struct {
		name string
		fire func(*Extension) error
		want string
	}{
		{"rate reduction", func(e *Extension) error { return e.OnFeeRateChanged(context.Background(), rate) }, ActionFeeRateReduced},
		{"exemption granted", func(e *Extension) error { return e.OnExemptionChanged(context.Background(), exempt) }, ActionExemptionGranted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captured{}
			if err := tt.fire(New(rec)); err != nil {
				t.Fatalf("hook: %v", err)
			}
			if len(rec.events) != 1 || rec.events[0].Action != tt.want {
				t.Errorf("Got %+v, want action %q", rec.events, tt.want)
			}
		})
	}
}

func TestActionFilters(t *testing.T) {
	mint := &event.Mint{
		Meta:        event.NewMeta(id.PrefixMint, 1),
		To:          alice,
		Amount:      uint256.NewInt(5),
		TotalSupply: uint256.NewInt(5),
	}

	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"all enabled", nil, 1},
		{"enabled list excludes mint", []Option{WithEnabledActions(ActionBurn)}, 0},
		{"enabled list includes mint", []Option{WithEnabledActions(ActionMint)}, 1},
		{"mint disabled", []Option{WithDisabledActions(ActionMint)}, 0},
		{"other action disabled", []Option{WithDisabledActions(ActionBurn)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captured{}
			ext := New(rec, tt.opts...)
			if err := ext.OnMint(context.Background(), mint); err != nil {
				t.Fatalf("OnMint: %v", err)
			}
			if len(rec.events) != tt.want {
				t.Errorf("Got %d events, want %d", len(rec.events), tt.want)
			}
		})
	}
}

func TestRecorderFailureSwallowed(t *testing.T) {
	ext := New(RecorderFunc(func(context.Context, *AuditEvent) error {
		return errors.New("backend down")
	}))

	ev := &event.Upgraded{Meta: event.NewMeta(id.PrefixUpgrade, 1), From: 1, To: 2}
	if err := ext.OnUpgraded(context.Background(), ev); err != nil {
		t.Errorf("Got %v, want nil", err)
	}
}
