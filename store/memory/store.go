// Package memory provides an in-process store.Store for tests and
// single-process deployments.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single lock. Records are
// copied on the way in and out.
type Store struct {
	mu     sync.RWMutex
	closed bool

	token      *token.Token
	accounts   map[common.Address]*account.Account
	allowances map[allowance.Key]*allowance.Allowance
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		accounts:   make(map[common.Address]*account.Account),
		allowances: make(map[allowance.Key]*allowance.Allowance),
	}
}

// ==================== Account Store ====================

func (s *Store) GetAccount(_ context.Context, addr common.Address) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	if a, ok := s.accounts[addr]; ok {
		return a.Clone(), nil
	}
	return nil, demurrage.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}

	var out []*account.Account
	for _, a := range s.accounts {
		if opts.ExemptOnly && !a.Exempt {
			continue
		}
		if opts.NonEmpty && a.IsEmpty() {
			continue
		}
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, func(a, b *account.Account) int {
		return bytes.Compare(a.Address.Bytes(), b.Address.Bytes())
	})

	return page(out, opts.Offset, opts.Limit), nil
}

// ==================== Allowance Store ====================

func (s *Store) GetAllowance(_ context.Context, owner, spender common.Address) (*allowance.Allowance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	if a, ok := s.allowances[allowance.Key{Owner: owner, Spender: spender}]; ok {
		return a.Clone(), nil
	}
	return nil, demurrage.ErrAllowanceNotFound
}

func (s *Store) ListAllowances(_ context.Context, owner common.Address) ([]*allowance.Allowance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}

	var out []*allowance.Allowance
	for key, a := range s.allowances {
		if key.Owner == owner {
			out = append(out, a.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *allowance.Allowance) int {
		return bytes.Compare(a.Spender.Bytes(), b.Spender.Bytes())
	})
	return out, nil
}

// ==================== Token Store ====================

func (s *Store) GetToken(_ context.Context) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, demurrage.ErrStoreClosed
	}
	if s.token == nil {
		return nil, demurrage.ErrNotInitialized
	}
	return s.token.Clone(), nil
}

// ==================== Commit ====================

// Commit applies the batch under the write lock, so readers observe either
// none or all of it.
func (s *Store) Commit(_ context.Context, b *ledgerstore.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return demurrage.ErrStoreClosed
	}
	if b.IsEmpty() {
		return nil
	}

	if b.Token != nil {
		s.token = b.Token.Clone()
	}
	for _, a := range b.Accounts {
		s.accounts[a.Address] = a.Clone()
	}
	for _, a := range b.Allowances {
		s.allowances[a.Key()] = a.Clone()
	}
	return nil
}

// ==================== Lifecycle ====================

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(context.Context) error { return nil }

// Ping reports whether the store is still open.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return demurrage.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
