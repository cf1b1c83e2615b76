package demurrage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer settles the sender and receiver, then moves amount between them.
// A zero amount is rejected with ErrZeroAmount.
func (l *Ledger) Transfer(ctx context.Context, call Call, to common.Address, amount *uint256.Int) error {
	amount = orZero(amount)
	return l.mutate(ctx, call, "transfer", func(tx *txn, lg logic) error {
		return lg.transfer(tx, call.Sender, to, amount)
	})
}

// TransferAll settles the sender and moves its entire settled balance,
// leaving it at exactly zero with a cleared checkpoint. It returns the
// amount moved, which may be zero.
func (l *Ledger) TransferAll(ctx context.Context, call Call, to common.Address) (*uint256.Int, error) {
	var moved *uint256.Int
	err := l.mutate(ctx, call, "transfer_all", func(tx *txn, lg logic) error {
		var err error
		moved, err = lg.transferAll(tx, call.Sender, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// TransferFrom moves amount out of from's balance on behalf of the caller,
// spending the caller's allowance.
func (l *Ledger) TransferFrom(ctx context.Context, call Call, from, to common.Address, amount *uint256.Int) error {
	amount = orZero(amount)
	return l.mutate(ctx, call, "transfer_from", func(tx *txn, lg logic) error {
		return lg.transferFrom(tx, call.Sender, from, to, amount)
	})
}

// Approve sets the caller's allowance for spender to amount.
func (l *Ledger) Approve(ctx context.Context, call Call, spender common.Address, amount *uint256.Int) error {
	amount = orZero(amount)
	return l.mutate(ctx, call, "approve", func(tx *txn, lg logic) error {
		return lg.approve(tx, call.Sender, spender, amount)
	})
}

// IncreaseAllowance raises the caller's allowance for spender.
func (l *Ledger) IncreaseAllowance(ctx context.Context, call Call, spender common.Address, added *uint256.Int) error {
	added = orZero(added)
	return l.mutate(ctx, call, "increase_allowance", func(tx *txn, lg logic) error {
		return lg.increaseAllowance(tx, call.Sender, spender, added)
	})
}

// DecreaseAllowance lowers the caller's allowance for spender. Going below
// zero fails with ErrAllowanceBelowZero.
func (l *Ledger) DecreaseAllowance(ctx context.Context, call Call, spender common.Address, subtracted *uint256.Int) error {
	subtracted = orZero(subtracted)
	return l.mutate(ctx, call, "decrease_allowance", func(tx *txn, lg logic) error {
		return lg.decreaseAllowance(tx, call.Sender, spender, subtracted)
	})
}

// CollectFees settles every address and sweeps the deducted fees to the fee
// collector. Anyone may call it. It returns the total collected.
func (l *Ledger) CollectFees(ctx context.Context, call Call, addrs ...common.Address) (*uint256.Int, error) {
	var collected *uint256.Int
	err := l.mutate(ctx, call, "collect_fees", func(tx *txn, lg logic) error {
		var err error
		collected, err = lg.collectFees(tx, addrs)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !collected.IsZero() {
		l.logger.Info("fees collected",
			"accounts", len(addrs),
			"amount", collected.Dec(),
		)
	}
	return collected, nil
}

// ──────────────────────────────────────────────────
// Supply
// ──────────────────────────────────────────────────

// Mint credits amount of new supply to the minter. When an oracle is
// configured the resulting supply must not exceed its locked value.
func (l *Ledger) Mint(ctx context.Context, call Call, amount *uint256.Int) error {
	amount = orZero(amount)
	err := l.mutate(ctx, call, "mint", func(tx *txn, lg logic) error {
		return lg.mint(tx, call.Sender, amount, l.oracles)
	})
	if err != nil {
		return err
	}
	l.logger.Info("tokens minted", "minter", call.Sender.Hex(), "amount", amount.Dec())
	return nil
}

// Burn removes amount from from's balance, spending the allowance from
// granted to the minter, and reduces total supply.
func (l *Ledger) Burn(ctx context.Context, call Call, from common.Address, amount *uint256.Int) error {
	amount = orZero(amount)
	err := l.mutate(ctx, call, "burn", func(tx *txn, lg logic) error {
		return lg.burn(tx, call.Sender, from, amount)
	})
	if err != nil {
		return err
	}
	l.logger.Info("tokens burned", "from", from.Hex(), "amount", amount.Dec())
	return nil
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// SetFeeRate changes the fee rate. The rate is bounded by the maximum fee
// and changes are spaced at least the configured delay apart.
func (l *Ledger) SetFeeRate(ctx context.Context, call Call, rate *uint256.Int) error {
	rate = orZero(rate)
	err := l.mutate(ctx, call, "set_fee_rate", func(tx *txn, lg logic) error {
		return lg.setFeeRate(tx, call.Sender, rate)
	})
	if err != nil {
		return err
	}
	l.logger.Info("fee rate changed", "rate", rate.Dec(), "time", call.Time)
	return nil
}

// ReduceFeeRate lowers the fee rate without waiting for the change delay.
// It requires logic version 2 or later.
func (l *Ledger) ReduceFeeRate(ctx context.Context, call Call, rate *uint256.Int) error {
	rate = orZero(rate)
	err := l.mutate(ctx, call, "reduce_fee_rate", func(tx *txn, lg logic) error {
		r, ok := lg.(rateReducer)
		if !ok {
			return ErrUnsupportedOperation
		}
		return r.reduceFeeRate(tx, call.Sender, rate)
	})
	if err != nil {
		return err
	}
	l.logger.Info("fee rate reduced", "rate", rate.Dec(), "time", call.Time)
	return nil
}

// SetFeeCollectionAddress replaces the fee collector. The new collector is
// exempt with a fresh checkpoint; the previous one starts accruing fees.
func (l *Ledger) SetFeeCollectionAddress(ctx context.Context, call Call, addr common.Address) error {
	err := l.mutate(ctx, call, "set_fee_collector", func(tx *txn, lg logic) error {
		return lg.setFeeCollector(tx, call.Sender, addr)
	})
	if err != nil {
		return err
	}
	l.logger.Info("fee collector changed", "collector", addr.Hex())
	return nil
}

// SetMinterRole replaces the minter.
func (l *Ledger) SetMinterRole(ctx context.Context, call Call, addr common.Address) error {
	err := l.mutate(ctx, call, "set_minter", func(tx *txn, lg logic) error {
		return lg.setMinter(tx, call.Sender, addr)
	})
	if err != nil {
		return err
	}
	l.logger.Info("minter changed", "minter", addr.Hex())
	return nil
}

// SetOracleAddress sets the reserve oracle consulted at mint time.
func (l *Ledger) SetOracleAddress(ctx context.Context, call Call, addr common.Address) error {
	err := l.mutate(ctx, call, "set_oracle", func(tx *txn, lg logic) error {
		return lg.setOracle(tx, call.Sender, addr)
	})
	if err != nil {
		return err
	}
	l.logger.Info("oracle changed", "oracle", addr.Hex())
	return nil
}

// SetFeeExempt settles addr and excludes it from further decay.
func (l *Ledger) SetFeeExempt(ctx context.Context, call Call, addr common.Address) error {
	return l.mutate(ctx, call, "set_fee_exempt", func(tx *txn, lg logic) error {
		return lg.setFeeExempt(tx, call.Sender, addr, true)
	})
}

// UnsetFeeExempt returns addr to normal decay starting at the call time.
func (l *Ledger) UnsetFeeExempt(ctx context.Context, call Call, addr common.Address) error {
	return l.mutate(ctx, call, "unset_fee_exempt", func(tx *txn, lg logic) error {
		return lg.setFeeExempt(tx, call.Sender, addr, false)
	})
}

// TransferOwnership hands the owner role to addr.
func (l *Ledger) TransferOwnership(ctx context.Context, call Call, addr common.Address) error {
	err := l.mutate(ctx, call, "transfer_ownership", func(tx *txn, lg logic) error {
		return lg.transferOwnership(tx, call.Sender, addr)
	})
	if err != nil {
		return err
	}
	l.logger.Info("ownership transferred", "owner", addr.Hex())
	return nil
}
