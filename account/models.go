// Package account defines the per-holder record of the token ledger.
package account

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/types"
)

// Account is one holder's entry in the ledger.
//
// NominalBalance is the balance as last settled, before any fee accrued
// since FeeLastPaid. FeeLastPaid is zero exactly when NominalBalance is
// zero, except for exempt accounts whose checkpoint is never consulted.
type Account struct {
	types.Entity

	Address        common.Address `json:"address"`
	NominalBalance *uint256.Int   `json:"nominal_balance"`
	FeeLastPaid    uint64         `json:"fee_last_paid"`
	Exempt         bool           `json:"exempt"`
}

// New returns an empty account for addr created at the given ledger time.
func New(addr common.Address, at uint64) *Account {
	return &Account{
		Entity:         types.NewEntity(at),
		Address:        addr,
		NominalBalance: new(uint256.Int),
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (a *Account) Clone() *Account {
	c := *a
	if a.NominalBalance != nil {
		c.NominalBalance = a.NominalBalance.Clone()
	} else {
		c.NominalBalance = new(uint256.Int)
	}
	return &c
}

// IsEmpty reports whether the account holds no nominal balance.
func (a *Account) IsEmpty() bool {
	return a.NominalBalance == nil || a.NominalBalance.IsZero()
}
