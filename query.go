package demurrage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/token"
)

// Token returns a copy of the token configuration.
func (l *Ledger) Token(ctx context.Context) (*token.Token, error) {
	var out *token.Token
	err := l.view(ctx, func(tok *token.Token) error {
		out = tok.Clone()
		return nil
	})
	return out, err
}

// Account returns addr's stored record, or an empty record if addr has
// never held a balance.
func (l *Ledger) Account(ctx context.Context, addr common.Address) (*account.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadAccount(ctx, addr, 0)
}

// BalanceOf returns addr's settled balance at now: the nominal balance
// minus the fee a settlement at now would deduct.
func (l *Ledger) BalanceOf(ctx context.Context, addr common.Address, now uint64) (*uint256.Int, error) {
	var out *uint256.Int
	err := l.view(ctx, func(tok *token.Token) error {
		a, owed, err := l.owed(ctx, tok, addr, now)
		if err != nil {
			return err
		}
		out = new(uint256.Int).Sub(a.NominalBalance, owed)
		return nil
	})
	return out, err
}

// BalanceOfWithFee returns addr's nominal balance, before any fee accrued
// since its last settlement.
func (l *Ledger) BalanceOfWithFee(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	a, err := l.Account(ctx, addr)
	if err != nil {
		return nil, err
	}
	return a.NominalBalance.Clone(), nil
}

// CalculateFee returns the fee a settlement of addr at now would deduct.
func (l *Ledger) CalculateFee(ctx context.Context, addr common.Address, now uint64) (*uint256.Int, error) {
	var out *uint256.Int
	err := l.view(ctx, func(tok *token.Token) error {
		_, owed, err := l.owed(ctx, tok, addr, now)
		out = owed
		return err
	})
	return out, err
}

// FeeLastPaid returns addr's settlement checkpoint.
func (l *Ledger) FeeLastPaid(ctx context.Context, addr common.Address) (uint64, error) {
	a, err := l.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	return a.FeeLastPaid, nil
}

// IsFeeExempt reports whether addr is excluded from decay.
func (l *Ledger) IsFeeExempt(ctx context.Context, addr common.Address) (bool, error) {
	a, err := l.Account(ctx, addr)
	if err != nil {
		return false, err
	}
	return a.Exempt, nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (l *Ledger) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, err := l.store.GetAllowance(ctx, owner, spender)
	if err != nil {
		if IsNotFound(err) {
			return new(uint256.Int), nil
		}
		return nil, err
	}
	return a.Amount.Clone(), nil
}

// ──────────────────────────────────────────────────
// Configuration reads
// ──────────────────────────────────────────────────

// FeeRate returns the current fee rate.
func (l *Ledger) FeeRate(ctx context.Context) (*uint256.Int, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return nil, err
	}
	return tok.FeeRate, nil
}

// MaxFee returns the fee rate ceiling.
func (l *Ledger) MaxFee(ctx context.Context) (*uint256.Int, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return nil, err
	}
	return tok.MaxFee, nil
}

// LastFeeChange returns the time of the last successful rate change.
func (l *Ledger) LastFeeChange(ctx context.Context) (uint64, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return 0, err
	}
	return tok.LastFeeChange, nil
}

// FeeChangeMinDelay returns the minimum seconds between rate changes.
func (l *Ledger) FeeChangeMinDelay(ctx context.Context) (uint64, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return 0, err
	}
	return tok.FeeChangeMinDelay, nil
}

// Oracle returns the reserve oracle address; zero when unset.
func (l *Ledger) Oracle(ctx context.Context) (common.Address, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return tok.Oracle, nil
}

// TotalSupply returns the sum of all nominal balances.
func (l *Ledger) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return nil, err
	}
	return tok.TotalSupply, nil
}

// Version returns the active logic version.
func (l *Ledger) Version(ctx context.Context) (uint32, error) {
	tok, err := l.Token(ctx)
	if err != nil {
		return 0, err
	}
	return tok.Version, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (l *Ledger) loadAccount(ctx context.Context, addr common.Address, now uint64) (*account.Account, error) {
	a, err := l.store.GetAccount(ctx, addr)
	if err != nil {
		if IsNotFound(err) {
			return account.New(addr, now), nil
		}
		return nil, err
	}
	return a, nil
}

// owed computes the fee addr would pay if settled at now, mirroring the
// rules applied during settlement.
func (l *Ledger) owed(ctx context.Context, tok *token.Token, addr common.Address, now uint64) (*account.Account, *uint256.Int, error) {
	a, err := l.loadAccount(ctx, addr, now)
	if err != nil {
		return nil, nil, err
	}
	if addr == tok.FeeCollector {
		return a, new(uint256.Int), nil
	}
	start := fee.AccrualStart(a.FeeLastPaid, tok.LastFeeChange, tok.Forgiveness)
	return a, fee.Calculate(a.NominalBalance, start, now, tok.Schedule(), a.Exempt), nil
}
