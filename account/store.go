package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store reads account records. Writes go through the aggregate store's
// atomic Commit.
type Store interface {
	GetAccount(ctx context.Context, addr common.Address) (*Account, error)
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)
}

// ListOpts filters and pages account listings. Results are ordered by
// address.
type ListOpts struct {
	ExemptOnly bool
	NonEmpty   bool
	Limit      int
	Offset     int
}
