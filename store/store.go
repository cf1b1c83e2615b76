// Package store defines the aggregate persistence interface for the ledger.
package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	"github.com/xraph/demurrage/token"
)

// Store is the aggregate persistence interface.
// Each subsystem store is an interface; the aggregate composes them.
// A single backend (memory, sqlite, postgres, mongo) implements all of them.
//
// Reads return copies; mutating a returned record never changes stored
// state. All writes go through Commit, which applies a Batch atomically.
type Store interface {
	// Account operations
	GetAccount(ctx context.Context, addr common.Address) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)

	// Allowance operations
	GetAllowance(ctx context.Context, owner, spender common.Address) (*allowance.Allowance, error)
	ListAllowances(ctx context.Context, owner common.Address) ([]*allowance.Allowance, error)

	// Token configuration
	GetToken(ctx context.Context) (*token.Token, error)

	// Commit writes every record in b or none of them.
	Commit(ctx context.Context, b *Batch) error

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// Batch is the set of records an operation changed. Records are upserted
// by their natural key (address, owner+spender, singleton token).
type Batch struct {
	Token      *token.Token
	Accounts   []*account.Account
	Allowances []*allowance.Allowance
}

// IsEmpty reports whether the batch carries no writes.
func (b *Batch) IsEmpty() bool {
	return b == nil || (b.Token == nil && len(b.Accounts) == 0 && len(b.Allowances) == 0)
}

var (
	_ account.Store   = Store(nil)
	_ allowance.Store = Store(nil)
	_ token.Store     = Store(nil)
)
