package demurrage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
	"github.com/xraph/demurrage/types"
)

// Genesis holds the parameters the token is initialized with.
type Genesis struct {
	Name     string
	Symbol   string
	Decimals uint8

	Owner        common.Address
	Minter       common.Address
	FeeCollector common.Address
	// Oracle is optional; the zero address leaves minting unbounded.
	Oracle common.Address

	FeeRate           *uint256.Int
	MaxFee            *uint256.Int
	FeeChangeMinDelay uint64
	// FeeYear is the fee-year length in seconds; zero means fee.DefaultYear.
	FeeYear uint64

	// Forgiveness drops debt accrued before a fee rate change instead of
	// charging the whole window at the new rate.
	Forgiveness bool

	// Version is the initial logic version; zero means VersionV1.
	Version uint32
}

// DefaultGenesis returns a genesis with 8 decimals, a 2.5% yearly fee capped
// at 5%, a half-year change delay and a single address holding the owner,
// minter and collector roles.
func DefaultGenesis(name, symbol string, admin common.Address) Genesis {
	return Genesis{
		Name:              name,
		Symbol:            symbol,
		Decimals:          fee.DefaultDecimals,
		Owner:             admin,
		Minter:            admin,
		FeeCollector:      admin,
		FeeRate:           uint256.NewInt(2_500_000),
		MaxFee:            uint256.NewInt(5_000_000),
		FeeChangeMinDelay: fee.DefaultMinDelay,
		FeeYear:           fee.DefaultYear,
	}
}

// Validate checks the genesis parameters. Every problem is reported; the
// result matches the individual sentinels with errors.Is.
func (g Genesis) Validate() error {
	var errs MultiError

	if g.Name == "" {
		errs.Add(ValidationError{Field: "name", Message: "must not be empty"})
	}
	if g.Symbol == "" {
		errs.Add(ValidationError{Field: "symbol", Message: "must not be empty"})
	}
	if g.Decimals > fee.MaxDecimals {
		errs.Add(fmt.Errorf("%w: %d exceeds %d", ErrInvalidDecimals, g.Decimals, fee.MaxDecimals))
	}
	if g.Owner == (common.Address{}) {
		errs.Add(ErrInvalidOwner)
	}
	if g.Minter == (common.Address{}) {
		errs.Add(ErrInvalidMinter)
	}
	if g.FeeCollector == (common.Address{}) {
		errs.Add(ErrInvalidFeeCollector)
	}
	if orZero(g.FeeRate).Gt(orZero(g.MaxFee)) {
		errs.Add(ErrMaxFeeExceeded)
	}
	if _, err := logicFor(g.Version); err != nil {
		errs.Add(err)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Initialize writes the token configuration. It succeeds only once per
// store. The fee collector starts out exempt and the rate-change cooldown
// is measured from now.
func (l *Ledger) Initialize(ctx context.Context, g Genesis, now uint64) (*token.Token, error) {
	if now == 0 {
		return nil, ErrInvalidTimestamp
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.store.GetToken(ctx)
	switch {
	case err == nil:
		return nil, ErrAlreadyInitialized
	case !errors.Is(err, ErrNotInitialized):
		return nil, err
	}

	version := g.Version
	if version == 0 {
		version = VersionV1
	}
	year := g.FeeYear
	if year == 0 {
		year = fee.DefaultYear
	}

	tok := &token.Token{
		Entity:            types.NewEntity(now),
		Name:              g.Name,
		Symbol:            g.Symbol,
		Decimals:          g.Decimals,
		TotalSupply:       new(uint256.Int),
		Owner:             g.Owner,
		FeeRate:           orZero(g.FeeRate).Clone(),
		MaxFee:            orZero(g.MaxFee).Clone(),
		LastFeeChange:     now,
		FeeChangeMinDelay: g.FeeChangeMinDelay,
		FeeYear:           year,
		FeeCollector:      g.FeeCollector,
		Minter:            g.Minter,
		Oracle:            g.Oracle,
		Version:           version,
		Forgiveness:       g.Forgiveness,
	}

	collector := account.New(g.FeeCollector, now)
	collector.Exempt = true
	collector.FeeLastPaid = now

	if err := l.store.Commit(ctx, &store.Batch{
		Token:    tok,
		Accounts: []*account.Account{collector},
	}); err != nil {
		return nil, fmt.Errorf("demurrage: initialize: commit: %w", err)
	}

	l.logger.Info("token initialized",
		"name", tok.Name,
		"symbol", tok.Symbol,
		"decimals", tok.Decimals,
		"fee_rate", tok.FeeRate.Dec(),
		"max_fee", tok.MaxFee.Dec(),
		"version", tok.Version,
	)
	return tok.Clone(), nil
}

// Upgrade switches the token to a newer logic version. State is carried
// over untouched; only forward moves to a known version are accepted.
func (l *Ledger) Upgrade(ctx context.Context, call Call, version uint32) error {
	var from uint32
	err := l.mutate(ctx, call, "upgrade", func(tx *txn, lg logic) error {
		if call.Sender != tx.tok.Owner {
			return ErrNotOwner
		}
		if _, err := logicFor(version); err != nil {
			return err
		}
		from = lg.version()
		if version <= from {
			return fmt.Errorf("%w: cannot move from %d to %d", ErrInvalidVersion, from, version)
		}

		tx.tok.Version = version
		tx.touchToken()
		tx.emit(&event.Upgraded{
			Meta: event.NewMeta(id.PrefixUpgrade, tx.now),
			From: from,
			To:   version,
		})
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Info("logic upgraded", "from", from, "to", version)
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
