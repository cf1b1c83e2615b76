package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/types"
)

// Genesis is the file form of demurrage.Genesis. Addresses are 0x hex,
// rates are yearly percentages ("2.5%") or raw base-unit integers ("2500000").
type Genesis struct {
	Name     string `json:"name" mapstructure:"name" yaml:"name"`
	Symbol   string `json:"symbol" mapstructure:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" mapstructure:"decimals" yaml:"decimals"`

	Owner        string `json:"owner" mapstructure:"owner" yaml:"owner"`
	Minter       string `json:"minter" mapstructure:"minter" yaml:"minter"`
	FeeCollector string `json:"fee_collector" mapstructure:"fee_collector" yaml:"fee_collector"`
	Oracle       string `json:"oracle,omitempty" mapstructure:"oracle" yaml:"oracle,omitempty"`

	FeeRate           string        `json:"fee_rate" mapstructure:"fee_rate" yaml:"fee_rate"`
	MaxFee            string        `json:"max_fee" mapstructure:"max_fee" yaml:"max_fee"`
	FeeChangeMinDelay time.Duration `json:"fee_change_min_delay" mapstructure:"fee_change_min_delay" yaml:"fee_change_min_delay"`
	FeeYear           time.Duration `json:"fee_year,omitempty" mapstructure:"fee_year" yaml:"fee_year,omitempty"`

	Forgiveness bool   `json:"forgiveness" mapstructure:"forgiveness" yaml:"forgiveness"`
	Version     uint32 `json:"version,omitempty" mapstructure:"version" yaml:"version,omitempty"`
}

// Preset names accepted by Default.
const (
	PresetSilver = "silver"
	PresetGold   = "gold"
)

// Default returns a preset genesis with every role held by admin.
// An unknown preset falls back to silver.
func Default(preset, admin string) Genesis {
	g := Genesis{
		Name:              "Denario Silver Coin",
		Symbol:            "DSC",
		Decimals:          fee.DefaultDecimals,
		Owner:             admin,
		Minter:            admin,
		FeeCollector:      admin,
		FeeRate:           "2.5%",
		MaxFee:            "5%",
		FeeChangeMinDelay: time.Duration(fee.DefaultMinDelay) * time.Second,
		FeeYear:           time.Duration(fee.DefaultYear) * time.Second,
	}
	if preset == PresetGold {
		g.Name = "Denario Gold Coin"
		g.Symbol = "DGC"
		g.FeeRate = "1%"
	}
	return g
}

// Load reads a YAML genesis file. Missing fields are taken from the silver
// preset.
func Load(path string) (Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	g := Default(PresetSilver, "")
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Genesis{}, fmt.Errorf("parse genesis %s: %w", path, err)
	}
	return g, nil
}

// Save writes g as YAML.
func Save(path string, g Genesis) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode genesis: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Build converts the file form into a demurrage.Genesis. Field errors are
// collected, and Validate still runs in Initialize.
func (g Genesis) Build() (demurrage.Genesis, error) {
	var errs demurrage.MultiError

	addr := func(field, s string, optional bool) common.Address {
		if s == "" && optional {
			return common.Address{}
		}
		if !common.IsHexAddress(s) {
			errs.Add(demurrage.ValidationError{Field: field, Message: fmt.Sprintf("invalid address %q", s)})
			return common.Address{}
		}
		return common.HexToAddress(s)
	}

	out := demurrage.Genesis{
		Name:              g.Name,
		Symbol:            g.Symbol,
		Decimals:          g.Decimals,
		Owner:             addr("owner", g.Owner, false),
		Minter:            addr("minter", g.Minter, false),
		FeeCollector:      addr("fee_collector", g.FeeCollector, false),
		Oracle:            addr("oracle", g.Oracle, true),
		FeeChangeMinDelay: seconds(g.FeeChangeMinDelay),
		FeeYear:           seconds(g.FeeYear),
		Forgiveness:       g.Forgiveness,
		Version:           g.Version,
	}

	var err error
	if out.FeeRate, err = types.ParseRate(g.FeeRate, g.Decimals); err != nil {
		errs.Add(demurrage.ValidationError{Field: "fee_rate", Message: err.Error()})
	}
	if out.MaxFee, err = types.ParseRate(g.MaxFee, g.Decimals); err != nil {
		errs.Add(demurrage.ValidationError{Field: "max_fee", Message: err.Error()})
	}

	if errs.HasErrors() {
		return demurrage.Genesis{}, errs
	}
	return out, nil
}

func seconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}

// DBPath resolves the ledger file: the flag value, then $DEMURRAGE_DB,
// then ./demurrage.db.
func DBPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("DEMURRAGE_DB")); p != "" {
		return p
	}
	return "demurrage.db"
}
