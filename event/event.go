// Package event defines the notifications the ledger emits after a
// successful commit.
package event

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/id"
)

// Event is implemented by every event type.
type Event interface {
	EventMeta() Meta
}

// Meta is shared by all events. Time is the ledger time of the operation
// that produced the event.
type Meta struct {
	ID   id.ID  `json:"id"`
	Time uint64 `json:"time"`
}

// EventMeta implements Event.
func (m Meta) EventMeta() Meta { return m }

// NewMeta stamps a new event of the given kind.
func NewMeta(prefix id.Prefix, at uint64) Meta {
	return Meta{ID: id.New(prefix), Time: at}
}

// Transfer records a balance movement between two holders.
type Transfer struct {
	Meta
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

// Approval records an allowance being set.
type Approval struct {
	Meta
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

// Mint records new supply credited to the minter.
type Mint struct {
	Meta
	To          common.Address `json:"to"`
	Amount      *uint256.Int   `json:"amount"`
	TotalSupply *uint256.Int   `json:"total_supply"`
}

// Burn records supply removed from a holder.
type Burn struct {
	Meta
	From        common.Address `json:"from"`
	Amount      *uint256.Int   `json:"amount"`
	TotalSupply *uint256.Int   `json:"total_supply"`
}

// FeeCollected records a settled holding fee moved to the collector.
type FeeCollected struct {
	Meta
	Account   common.Address `json:"account"`
	Collector common.Address `json:"collector"`
	Amount    *uint256.Int   `json:"amount"`
}

// FeeRateChanged records a new fee rate. Reduction is set when the change
// bypassed the cooldown as a rate reduction.
type FeeRateChanged struct {
	Meta
	OldRate   *uint256.Int `json:"old_rate"`
	NewRate   *uint256.Int `json:"new_rate"`
	Reduction bool         `json:"reduction"`
}

// ExemptionChanged records an account entering or leaving the exempt set.
type ExemptionChanged struct {
	Meta
	Account common.Address `json:"account"`
	Exempt  bool           `json:"exempt"`
}

// Role names a privileged address in the token configuration.
type Role string

const (
	RoleFeeCollector Role = "fee_collector"
	RoleMinter       Role = "minter"
	RoleOracle       Role = "oracle"
	RoleOwner        Role = "owner"
)

// RoleChanged records a privileged address being replaced.
type RoleChanged struct {
	Meta
	Role     Role           `json:"role"`
	Previous common.Address `json:"previous"`
	Current  common.Address `json:"current"`
}

// Upgraded records a logic version change.
type Upgraded struct {
	Meta
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
}
