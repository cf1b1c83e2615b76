// Package allowance defines spending approvals between holders.
package allowance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/types"
)

// Allowance is the amount Spender may move out of Owner's balance.
// The maximum value is treated as unlimited and is never decremented.
type Allowance struct {
	types.Entity

	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

// Unlimited is the allowance value that is never spent down.
var Unlimited = new(uint256.Int).SetAllOne()

// New returns a zero allowance created at the given ledger time.
func New(owner, spender common.Address, at uint64) *Allowance {
	return &Allowance{
		Entity:  types.NewEntity(at),
		Owner:   owner,
		Spender: spender,
		Amount:  new(uint256.Int),
	}
}

// Clone returns a deep copy.
func (a *Allowance) Clone() *Allowance {
	c := *a
	if a.Amount != nil {
		c.Amount = a.Amount.Clone()
	} else {
		c.Amount = new(uint256.Int)
	}
	return &c
}

// IsUnlimited reports whether the allowance is never decremented.
func (a *Allowance) IsUnlimited() bool {
	return a.Amount != nil && a.Amount.Eq(Unlimited)
}

// Key identifies an allowance by its owner and spender.
type Key struct {
	Owner   common.Address
	Spender common.Address
}

// Key returns the allowance's identifying pair.
func (a *Allowance) Key() Key {
	return Key{Owner: a.Owner, Spender: a.Spender}
}
