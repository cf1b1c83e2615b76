// Package token defines the global configuration record of the ledger.
package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/types"
)

// Token is the single configuration record shared by every logic version.
//
// Fields are only ever appended. A newer logic version may read fields an
// older one never wrote and must treat their zero value as "unset".
type Token struct {
	types.Entity

	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply *uint256.Int   `json:"total_supply"`
	Owner       common.Address `json:"owner"`

	FeeRate           *uint256.Int `json:"fee_rate"`
	MaxFee            *uint256.Int `json:"max_fee"`
	LastFeeChange     uint64       `json:"last_fee_change"`
	FeeChangeMinDelay uint64       `json:"fee_change_min_delay"`
	FeeYear           uint64       `json:"fee_year"`

	FeeCollector common.Address `json:"fee_collector"`
	Minter       common.Address `json:"minter"`
	Oracle       common.Address `json:"oracle"`

	Version     uint32 `json:"version"`
	Forgiveness bool   `json:"forgiveness"`
}

// Schedule returns the fee schedule accounts are currently settled against.
func (t *Token) Schedule() fee.Schedule {
	return fee.Schedule{
		Rate:     t.FeeRate,
		Year:     t.FeeYear,
		Decimals: t.Decimals,
	}
}

// HasOracle reports whether minting is bounded by a reserve oracle.
func (t *Token) HasOracle() bool {
	return t.Oracle != (common.Address{})
}

// Clone returns a deep copy.
func (t *Token) Clone() *Token {
	c := *t
	c.TotalSupply = cloneInt(t.TotalSupply)
	c.FeeRate = cloneInt(t.FeeRate)
	c.MaxFee = cloneInt(t.MaxFee)
	return &c
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
