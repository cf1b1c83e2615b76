package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/demurrage/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"Transfer", id.NewTransferID, "xfer_"},
		{"Approval", id.NewApprovalID, "appr_"},
		{"Mint", id.NewMintID, "mint_"},
		{"Burn", id.NewBurnID, "burn_"},
		{"FeeCollection", id.NewFeeCollectionID, "fee_"},
		{"RateChange", id.NewRateChangeID, "rate_"},
		{"Exemption", id.NewExemptionID, "exmp_"},
		{"RoleChange", id.NewRoleChangeID, "role_"},
		{"Upgrade", id.NewUpgradeID, "upg_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	original := id.NewTransferID()

	parsed, err := id.ParseWithPrefix(original.String(), id.PrefixTransfer)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("Got %q, want %q", parsed.String(), original.String())
	}

	if _, err := id.ParseWithPrefix(original.String(), id.PrefixBurn); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "not an id", "xfer_"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("Got %q/%q, want empty", i.String(), i.Prefix())
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		ID id.ID `json:"id"`
	}
	in := wrapper{ID: id.NewMintID()}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.ID.String() != in.ID.String() {
		t.Errorf("Got %q, want %q", out.ID.String(), in.ID.String())
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		s := id.NewTransferID().String()
		if seen[s] {
			t.Fatalf("duplicate ID: %s", s)
		}
		seen[s] = true
	}
}
