// Package oracle provides reserve-value sources that bound minting.
//
// The ledger stores only the oracle's address. A Resolver maps that address
// to something that can report the locked reserve value at mint time.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrUnknownOracle is returned by a Resolver that has no oracle registered
// for an address.
var ErrUnknownOracle = errors.New("oracle: unknown oracle address")

// Oracle reports the reserve value backing the token supply, in base units.
type Oracle interface {
	LockedValue(ctx context.Context) (*uint256.Int, error)
}

// Resolver looks up the oracle deployed at an address.
type Resolver interface {
	Resolve(ctx context.Context, addr common.Address) (Oracle, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context) (*uint256.Int, error)

// LockedValue implements Oracle.
func (f Func) LockedValue(ctx context.Context) (*uint256.Int, error) {
	return f(ctx)
}

// Static is an Oracle with a settable locked value.
type Static struct {
	mu    sync.RWMutex
	value *uint256.Int
}

// NewStatic returns an oracle reporting value.
func NewStatic(value *uint256.Int) *Static {
	return &Static{value: value.Clone()}
}

// LockedValue implements Oracle.
func (s *Static) LockedValue(context.Context) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.Clone(), nil
}

// Set replaces the reported value.
func (s *Static) Set(value *uint256.Int) {
	s.mu.Lock()
	s.value = value.Clone()
	s.mu.Unlock()
}

// Registry is an in-process Resolver keyed by address.
type Registry struct {
	mu      sync.RWMutex
	oracles map[common.Address]Oracle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{oracles: make(map[common.Address]Oracle)}
}

// Register binds o to addr, replacing any previous binding.
func (r *Registry) Register(addr common.Address, o Oracle) {
	r.mu.Lock()
	r.oracles[addr] = o
	r.mu.Unlock()
}

// Resolve implements Resolver.
func (r *Registry) Resolve(_ context.Context, addr common.Address) (Oracle, error) {
	r.mu.RLock()
	o, ok := r.oracles[addr]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOracle, addr.Hex())
	}
	return o, nil
}
