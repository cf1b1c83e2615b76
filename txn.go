package demurrage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

// txn is the working set of a single operation. Records are loaded on
// first use, mutated in memory and handed to the store as one Batch.
type txn struct {
	ctx   context.Context
	store store.Store
	now   uint64

	tok      *token.Token
	tokDirty bool

	accounts     map[common.Address]*account.Account
	accountOrder []common.Address
	dirty        map[common.Address]bool

	allowances     map[allowance.Key]*allowance.Allowance
	allowanceOrder []allowance.Key
	allowanceDirty map[allowance.Key]bool

	events []event.Event
}

func newTxn(ctx context.Context, s store.Store, tok *token.Token, now uint64) *txn {
	return &txn{
		ctx:            ctx,
		store:          s,
		now:            now,
		tok:            tok.Clone(),
		accounts:       make(map[common.Address]*account.Account),
		dirty:          make(map[common.Address]bool),
		allowances:     make(map[allowance.Key]*allowance.Allowance),
		allowanceDirty: make(map[allowance.Key]bool),
	}
}

// account returns the working copy for addr, loading it or creating an
// empty one. A new record is only persisted once it is marked dirty.
func (tx *txn) account(addr common.Address) (*account.Account, error) {
	if a, ok := tx.accounts[addr]; ok {
		return a, nil
	}

	a, err := tx.store.GetAccount(tx.ctx, addr)
	switch {
	case err == nil:
		a = a.Clone()
	case IsNotFound(err):
		a = account.New(addr, tx.now)
	default:
		return nil, err
	}

	tx.accounts[addr] = a
	tx.accountOrder = append(tx.accountOrder, addr)
	return a, nil
}

func (tx *txn) touch(a *account.Account) {
	a.Touch(tx.now)
	tx.dirty[a.Address] = true
}

func (tx *txn) touchToken() {
	tx.tok.Touch(tx.now)
	tx.tokDirty = true
}

func (tx *txn) emit(ev event.Event) {
	tx.events = append(tx.events, ev)
}

// settle brings addr up to date: the fee accrued since its checkpoint is
// deducted and credited to the fee collector, and the checkpoint moves to
// now (or zero for an emptied balance). It returns the settled account.
func (tx *txn) settle(addr common.Address) (*account.Account, error) {
	a, err := tx.account(addr)
	if err != nil {
		return nil, err
	}
	if a.Exempt {
		return a, nil
	}

	// The collector would pay its own fee to itself.
	if addr == tx.tok.FeeCollector {
		if cp := fee.Checkpoint(a.NominalBalance, tx.now); cp != a.FeeLastPaid {
			a.FeeLastPaid = cp
			tx.touch(a)
		}
		return a, nil
	}

	start := fee.AccrualStart(a.FeeLastPaid, tx.tok.LastFeeChange, tx.tok.Forgiveness)
	settled, owed := fee.Settle(a.NominalBalance, start, tx.now, tx.tok.Schedule(), false)
	checkpoint := fee.Checkpoint(settled, tx.now)

	if owed.IsZero() && checkpoint == a.FeeLastPaid {
		return a, nil
	}

	a.NominalBalance = settled
	a.FeeLastPaid = checkpoint
	tx.touch(a)

	if owed.IsZero() {
		return a, nil
	}

	collector, err := tx.settle(tx.tok.FeeCollector)
	if err != nil {
		return nil, err
	}
	if err := tx.credit(collector, owed); err != nil {
		return nil, err
	}

	tx.emit(&event.FeeCollected{
		Meta:      event.NewMeta(id.PrefixFeeCollection, tx.now),
		Account:   addr,
		Collector: collector.Address,
		Amount:    owed,
	})
	return a, nil
}

// credit adds amount to a settled account. A non-exempt receiver's
// checkpoint restarts at now.
func (tx *txn) credit(a *account.Account, amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(a.NominalBalance, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	a.NominalBalance = sum
	if !a.Exempt {
		a.FeeLastPaid = fee.Checkpoint(sum, tx.now)
	}
	tx.touch(a)
	return nil
}

// debit removes amount from a settled account. The checkpoint is cleared
// when the balance reaches zero and restarts at now otherwise.
func (tx *txn) debit(a *account.Account, amount *uint256.Int) error {
	if a.NominalBalance.Lt(amount) {
		return ErrInsufficientBalance
	}
	a.NominalBalance = new(uint256.Int).Sub(a.NominalBalance, amount)
	a.FeeLastPaid = fee.Checkpoint(a.NominalBalance, tx.now)
	tx.touch(a)
	return nil
}

// allowance returns the working copy of owner's approval for spender.
func (tx *txn) allowance(owner, spender common.Address) (*allowance.Allowance, error) {
	key := allowance.Key{Owner: owner, Spender: spender}
	if a, ok := tx.allowances[key]; ok {
		return a, nil
	}

	a, err := tx.store.GetAllowance(tx.ctx, owner, spender)
	switch {
	case err == nil:
		a = a.Clone()
	case IsNotFound(err):
		a = allowance.New(owner, spender, tx.now)
	default:
		return nil, err
	}

	tx.allowances[key] = a
	tx.allowanceOrder = append(tx.allowanceOrder, key)
	return a, nil
}

func (tx *txn) setAllowance(a *allowance.Allowance, amount *uint256.Int) {
	a.Amount = amount
	a.Touch(tx.now)
	tx.allowanceDirty[a.Key()] = true
	tx.emit(&event.Approval{
		Meta:    event.NewMeta(id.PrefixApproval, tx.now),
		Owner:   a.Owner,
		Spender: a.Spender,
		Amount:  amount.Clone(),
	})
}

// spendAllowance consumes amount of owner's approval for spender. An
// unlimited approval is left untouched.
func (tx *txn) spendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	a, err := tx.allowance(owner, spender)
	if err != nil {
		return err
	}
	if a.IsUnlimited() {
		return nil
	}
	if a.Amount.Lt(amount) {
		return ErrInsufficientAllowance
	}
	tx.setAllowance(a, new(uint256.Int).Sub(a.Amount, amount))
	return nil
}

// batch collects every dirty record in the order it was first loaded.
func (tx *txn) batch() *store.Batch {
	b := &store.Batch{}
	if tx.tokDirty {
		b.Token = tx.tok
	}
	for _, addr := range tx.accountOrder {
		if tx.dirty[addr] {
			b.Accounts = append(b.Accounts, tx.accounts[addr])
		}
	}
	for _, key := range tx.allowanceOrder {
		if tx.allowanceDirty[key] {
			b.Allowances = append(b.Allowances, tx.allowances[key])
		}
	}
	return b
}
