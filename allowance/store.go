package allowance

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store reads allowance records.
type Store interface {
	GetAllowance(ctx context.Context, owner, spender common.Address) (*Allowance, error)
	ListAllowances(ctx context.Context, owner common.Address) ([]*Allowance, error)
}
