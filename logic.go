package demurrage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/oracle"
)

// Logic versions known to this build.
const (
	VersionV1 uint32 = 1
	VersionV2 uint32 = 2

	LatestVersion = VersionV2
)

// logic is the swappable behaviour behind the Ledger façade. Every
// implementation works on the same token, account and allowance records.
type logic interface {
	version() uint32

	transfer(tx *txn, from, to common.Address, amount *uint256.Int) error
	transferAll(tx *txn, from, to common.Address) (*uint256.Int, error)
	transferFrom(tx *txn, spender, from, to common.Address, amount *uint256.Int) error
	approve(tx *txn, owner, spender common.Address, amount *uint256.Int) error
	increaseAllowance(tx *txn, owner, spender common.Address, added *uint256.Int) error
	decreaseAllowance(tx *txn, owner, spender common.Address, subtracted *uint256.Int) error
	collectFees(tx *txn, addrs []common.Address) (*uint256.Int, error)

	mint(tx *txn, caller common.Address, amount *uint256.Int, o oracle.Resolver) error
	burn(tx *txn, caller, from common.Address, amount *uint256.Int) error

	setFeeRate(tx *txn, caller common.Address, rate *uint256.Int) error
	setFeeCollector(tx *txn, caller, addr common.Address) error
	setMinter(tx *txn, caller, addr common.Address) error
	setOracle(tx *txn, caller, addr common.Address) error
	setFeeExempt(tx *txn, caller, addr common.Address, exempt bool) error
	transferOwnership(tx *txn, caller, addr common.Address) error
}

// rateReducer is implemented by logic versions that can lower the fee rate
// without waiting out the change cooldown.
type rateReducer interface {
	reduceFeeRate(tx *txn, caller common.Address, rate *uint256.Int) error
}

var logics = map[uint32]logic{
	VersionV1: logicV1{},
	VersionV2: logicV2{},
}

func logicFor(version uint32) (logic, error) {
	if version == 0 {
		version = VersionV1
	}
	lg, ok := logics[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	return lg, nil
}

// ──────────────────────────────────────────────────
// V1
// ──────────────────────────────────────────────────

type logicV1 struct{}

func (logicV1) version() uint32 { return VersionV1 }

func (logicV1) transfer(tx *txn, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	return move(tx, from, to, amount)
}

func (logicV1) transferAll(tx *txn, from, to common.Address) (*uint256.Int, error) {
	sender, err := tx.settle(from)
	if err != nil {
		return nil, err
	}
	amount := sender.NominalBalance.Clone()
	if err := move(tx, from, to, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (logicV1) transferFrom(tx *txn, spender, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if err := tx.spendAllowance(from, spender, amount); err != nil {
		return err
	}
	return move(tx, from, to, amount)
}

func (logicV1) approve(tx *txn, owner, spender common.Address, amount *uint256.Int) error {
	if spender == (common.Address{}) {
		return ErrInvalidSpender
	}
	a, err := tx.allowance(owner, spender)
	if err != nil {
		return err
	}
	tx.setAllowance(a, amount.Clone())
	return nil
}

func (logicV1) increaseAllowance(tx *txn, owner, spender common.Address, added *uint256.Int) error {
	if spender == (common.Address{}) {
		return ErrInvalidSpender
	}
	a, err := tx.allowance(owner, spender)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(a.Amount, added)
	if overflow {
		return ErrAllowanceOverflow
	}
	tx.setAllowance(a, sum)
	return nil
}

func (logicV1) decreaseAllowance(tx *txn, owner, spender common.Address, subtracted *uint256.Int) error {
	if spender == (common.Address{}) {
		return ErrInvalidSpender
	}
	a, err := tx.allowance(owner, spender)
	if err != nil {
		return err
	}
	if a.Amount.Lt(subtracted) {
		return ErrAllowanceBelowZero
	}
	tx.setAllowance(a, new(uint256.Int).Sub(a.Amount, subtracted))
	return nil
}

func (logicV1) collectFees(tx *txn, addrs []common.Address) (*uint256.Int, error) {
	collector, err := tx.account(tx.tok.FeeCollector)
	if err != nil {
		return nil, err
	}
	before := collector.NominalBalance.Clone()

	for _, addr := range addrs {
		if _, err := tx.settle(addr); err != nil {
			return nil, err
		}
	}
	return new(uint256.Int).Sub(collector.NominalBalance, before), nil
}

func (logicV1) mint(tx *txn, caller common.Address, amount *uint256.Int, resolver oracle.Resolver) error {
	if caller != tx.tok.Minter {
		return ErrNotMinter
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}

	if tx.tok.HasOracle() {
		locked, err := lockedValue(tx, resolver)
		if err != nil {
			return err
		}
		if err := fee.CheckMintCeiling(tx.tok.TotalSupply, amount, locked); err != nil {
			return err
		}
	}

	supply, overflow := new(uint256.Int).AddOverflow(tx.tok.TotalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}

	minter, err := tx.settle(caller)
	if err != nil {
		return err
	}
	if err := tx.credit(minter, amount); err != nil {
		return err
	}
	tx.tok.TotalSupply = supply
	tx.touchToken()

	tx.emit(&event.Mint{
		Meta:        event.NewMeta(id.PrefixMint, tx.now),
		To:          caller,
		Amount:      amount.Clone(),
		TotalSupply: supply.Clone(),
	})
	tx.emit(&event.Transfer{
		Meta:   event.NewMeta(id.PrefixTransfer, tx.now),
		To:     caller,
		Amount: amount.Clone(),
	})
	return nil
}

func (logicV1) burn(tx *txn, caller, from common.Address, amount *uint256.Int) error {
	if caller != tx.tok.Minter {
		return ErrNotMinter
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}

	holder, err := tx.settle(from)
	if err != nil {
		return err
	}
	if err := tx.spendAllowance(from, caller, amount); err != nil {
		return err
	}
	if err := tx.debit(holder, amount); err != nil {
		return err
	}

	supply := new(uint256.Int).Sub(tx.tok.TotalSupply, amount)
	tx.tok.TotalSupply = supply
	tx.touchToken()

	tx.emit(&event.Burn{
		Meta:        event.NewMeta(id.PrefixBurn, tx.now),
		From:        from,
		Amount:      amount.Clone(),
		TotalSupply: supply.Clone(),
	})
	tx.emit(&event.Transfer{
		Meta:   event.NewMeta(id.PrefixTransfer, tx.now),
		From:   from,
		Amount: amount.Clone(),
	})
	return nil
}

func (logicV1) setFeeRate(tx *txn, caller common.Address, rate *uint256.Int) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if err := fee.CheckRateChange(rate, tx.tok.MaxFee, tx.tok.LastFeeChange, tx.tok.FeeChangeMinDelay, tx.now); err != nil {
		return err
	}
	changeRate(tx, rate, false)
	return nil
}

func (logicV1) setFeeCollector(tx *txn, caller, addr common.Address) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if addr == (common.Address{}) {
		return ErrInvalidFeeCollector
	}

	previous := tx.tok.FeeCollector
	if addr != previous {
		old, err := tx.account(previous)
		if err != nil {
			return err
		}
		if old.Exempt {
			setExempt(tx, old, false)
		}
		tx.tok.FeeCollector = addr
		tx.touchToken()
	}

	a, err := tx.account(addr)
	if err != nil {
		return err
	}
	if !a.Exempt {
		setExempt(tx, a, true)
	}
	// Decay the incoming collector had not yet settled is waived.
	a.FeeLastPaid = tx.now
	tx.touch(a)

	emitRole(tx, event.RoleFeeCollector, previous, addr)
	return nil
}

func (logicV1) setMinter(tx *txn, caller, addr common.Address) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if addr == (common.Address{}) {
		return ErrInvalidMinter
	}

	a, err := tx.account(addr)
	if err != nil {
		return err
	}
	// The new minter starts from a fresh checkpoint rather than a stale one.
	if !a.Exempt && !a.IsEmpty() && a.FeeLastPaid != tx.now {
		a.FeeLastPaid = tx.now
		tx.touch(a)
	}

	previous := tx.tok.Minter
	tx.tok.Minter = addr
	tx.touchToken()
	emitRole(tx, event.RoleMinter, previous, addr)
	return nil
}

func (logicV1) setOracle(tx *txn, caller, addr common.Address) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if addr == (common.Address{}) {
		return ErrInvalidOracle
	}
	previous := tx.tok.Oracle
	tx.tok.Oracle = addr
	tx.touchToken()
	emitRole(tx, event.RoleOracle, previous, addr)
	return nil
}

func (logicV1) setFeeExempt(tx *txn, caller, addr common.Address, exempt bool) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}

	if exempt {
		// Fees accrued so far are due before the exemption starts.
		a, err := tx.settle(addr)
		if err != nil {
			return err
		}
		if !a.Exempt {
			setExempt(tx, a, true)
		}
		return nil
	}

	a, err := tx.account(addr)
	if err != nil {
		return err
	}
	if a.Exempt {
		setExempt(tx, a, false)
	}
	return nil
}

func (logicV1) transferOwnership(tx *txn, caller, addr common.Address) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if addr == (common.Address{}) {
		return ErrInvalidOwner
	}
	previous := tx.tok.Owner
	tx.tok.Owner = addr
	tx.touchToken()
	emitRole(tx, event.RoleOwner, previous, addr)
	return nil
}

// ──────────────────────────────────────────────────
// V2
// ──────────────────────────────────────────────────

// logicV2 adds cooldown-free fee rate reductions.
type logicV2 struct {
	logicV1
}

func (logicV2) version() uint32 { return VersionV2 }

func (logicV2) reduceFeeRate(tx *txn, caller common.Address, rate *uint256.Int) error {
	if caller != tx.tok.Owner {
		return ErrNotOwner
	}
	if err := fee.CheckRateReduction(rate, tx.tok.FeeRate); err != nil {
		return err
	}
	changeRate(tx, rate, true)
	return nil
}

// ──────────────────────────────────────────────────
// Shared steps
// ──────────────────────────────────────────────────

// move settles both parties and moves amount from one to the other.
func move(tx *txn, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}

	sender, err := tx.settle(from)
	if err != nil {
		return err
	}
	receiver, err := tx.settle(to)
	if err != nil {
		return err
	}

	if err := tx.debit(sender, amount); err != nil {
		return err
	}
	if err := tx.credit(receiver, amount); err != nil {
		return err
	}

	tx.emit(&event.Transfer{
		Meta:   event.NewMeta(id.PrefixTransfer, tx.now),
		From:   from,
		To:     to,
		Amount: amount.Clone(),
	})
	return nil
}

func changeRate(tx *txn, rate *uint256.Int, reduction bool) {
	previous := tx.tok.FeeRate.Clone()
	tx.tok.FeeRate = rate.Clone()
	tx.tok.LastFeeChange = tx.now
	tx.touchToken()

	tx.emit(&event.FeeRateChanged{
		Meta:      event.NewMeta(id.PrefixRateChange, tx.now),
		OldRate:   previous,
		NewRate:   rate.Clone(),
		Reduction: reduction,
	})
}

// setExempt flips the exemption flag. An account leaving the exempt set
// restarts accrual at now so the invariant between balance and checkpoint
// holds again.
func setExempt(tx *txn, a *account.Account, exempt bool) {
	a.Exempt = exempt
	if !exempt {
		a.FeeLastPaid = fee.Checkpoint(a.NominalBalance, tx.now)
	}
	tx.touch(a)

	tx.emit(&event.ExemptionChanged{
		Meta:    event.NewMeta(id.PrefixExemption, tx.now),
		Account: a.Address,
		Exempt:  exempt,
	})
}

func emitRole(tx *txn, role event.Role, previous, current common.Address) {
	tx.emit(&event.RoleChanged{
		Meta:     event.NewMeta(id.PrefixRoleChange, tx.now),
		Role:     role,
		Previous: previous,
		Current:  current,
	})
}

func lockedValue(tx *txn, resolver oracle.Resolver) (*uint256.Int, error) {
	if resolver == nil {
		return nil, fmt.Errorf("%w: no oracle resolver configured", ErrOracleUnavailable)
	}
	o, err := resolver.Resolve(tx.ctx, tx.tok.Oracle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	locked, err := o.LockedValue(tx.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	return locked, nil
}
