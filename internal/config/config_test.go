package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/fee"
)

const admin = "0x0000000000000000000000000000000000000001"

func TestDefaultPresets(t *testing.T) {
	tests := []struct {
		preset, symbol string
		rate           uint64
	}{
		{PresetSilver, "DSC", 2_500_000},
		{PresetGold, "DGC", 1_000_000},
		{"platinum", "DSC", 2_500_000},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			g, err := Default(tt.preset, admin).Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if g.Symbol != tt.symbol {
				t.Errorf("Got symbol %q, want %q", g.Symbol, tt.symbol)
			}
			if !g.FeeRate.Eq(uint256.NewInt(tt.rate)) || !g.MaxFee.Eq(uint256.NewInt(5_000_000)) {
				t.Errorf("Got rates %s/%s", g.FeeRate.Dec(), g.MaxFee.Dec())
			}
			if g.FeeYear != fee.DefaultYear || g.FeeChangeMinDelay != fee.DefaultMinDelay {
				t.Errorf("Got year %d delay %d", g.FeeYear, g.FeeChangeMinDelay)
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	doc := `name: Test Coin
symbol: TST
owner: "0x0000000000000000000000000000000000000001"
minter: "0x0000000000000000000000000000000000000002"
fee_collector: "0x0000000000000000000000000000000000000003"
fee_rate: "1%"
fee_change_min_delay: 24h
forgiveness: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	fg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fg.MaxFee != "5%" {
		t.Errorf("Got max fee %q, want preset 5%%", fg.MaxFee)
	}
	if fg.FeeChangeMinDelay != 24*time.Hour {
		t.Errorf("Got delay %v, want 24h", fg.FeeChangeMinDelay)
	}

	g, err := fg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Minter != common.HexToAddress("0x0000000000000000000000000000000000000002") {
		t.Errorf("Got minter %s", g.Minter.Hex())
	}
	if !g.FeeRate.Eq(uint256.NewInt(1_000_000)) {
		t.Errorf("Got fee rate %s, want 1000000", g.FeeRate.Dec())
	}
	if g.FeeChangeMinDelay != 86400 || !g.Forgiveness {
		t.Errorf("Got %+v", g)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	want := Default(PresetGold, admin)
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Got %+v, want %+v", got, want)
	}
}

func TestBuildErrors(t *testing.T) {
	g := Default(PresetSilver, "not-an-address")
	g.FeeRate = "lots"

	_, err := g.Build()
	var multi demurrage.MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("Got %v, want MultiError", err)
	}
	// owner, minter, fee_collector and fee_rate
	if len(multi.Errors) != 4 {
		t.Errorf("Got %d errors, want 4: %v", len(multi.Errors), multi.Errors)
	}
}

func TestDBPath(t *testing.T) {
	t.Setenv("DEMURRAGE_DB", "/tmp/env.db")

	if got := DBPath("ledger.db"); got != "ledger.db" {
		t.Errorf("Got %q, want flag value", got)
	}
	if got := DBPath(""); got != "/tmp/env.db" {
		t.Errorf("Got %q, want env value", got)
	}

	t.Setenv("DEMURRAGE_DB", "")
	if got := DBPath(""); got != "demurrage.db" {
		t.Errorf("Got %q, want default", got)
	}
}
