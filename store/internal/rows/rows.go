// Package rows holds the grove models shared by the SQL backends and their
// conversions to and from ledger records.
package rows

import (
	"github.com/xraph/grove"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
	"github.com/xraph/demurrage/types"
)

// TokenID is the primary key of the singleton token row.
const TokenID = 1

// ==================== Token models ====================

// Token is the demurrage_token row.
type Token struct {
	grove.BaseModel `grove:"table:demurrage_token"`

	ID                int64  `grove:"id,pk"`
	Name              string `grove:"name"`
	Symbol            string `grove:"symbol"`
	Decimals          int64  `grove:"decimals"`
	TotalSupply       string `grove:"total_supply"`
	Owner             string `grove:"owner"`
	FeeRate           string `grove:"fee_rate"`
	MaxFee            string `grove:"max_fee"`
	LastFeeChange     int64  `grove:"last_fee_change"`
	FeeChangeMinDelay int64  `grove:"fee_change_min_delay"`
	FeeYear           int64  `grove:"fee_year"`
	FeeCollector      string `grove:"fee_collector"`
	Minter            string `grove:"minter"`
	Oracle            string `grove:"oracle"`
	Version           int64  `grove:"version"`
	Forgiveness       bool   `grove:"forgiveness"`
	CreatedAt         int64  `grove:"created_at"`
	UpdatedAt         int64  `grove:"updated_at"`
}

// TokenConflict and TokenUpdates make the token insert an upsert.
const TokenConflict = "(id) DO UPDATE"

var TokenUpdates = []string{
	"name = EXCLUDED.name",
	"symbol = EXCLUDED.symbol",
	"decimals = EXCLUDED.decimals",
	"total_supply = EXCLUDED.total_supply",
	"owner = EXCLUDED.owner",
	"fee_rate = EXCLUDED.fee_rate",
	"max_fee = EXCLUDED.max_fee",
	"last_fee_change = EXCLUDED.last_fee_change",
	"fee_change_min_delay = EXCLUDED.fee_change_min_delay",
	"fee_year = EXCLUDED.fee_year",
	"fee_collector = EXCLUDED.fee_collector",
	"minter = EXCLUDED.minter",
	"oracle = EXCLUDED.oracle",
	"version = EXCLUDED.version",
	"forgiveness = EXCLUDED.forgiveness",
	"updated_at = EXCLUDED.updated_at",
}

func FromToken(t *token.Token) (*Token, error) {
	times, err := ledgerstore.Int64s(t.LastFeeChange, t.FeeChangeMinDelay, t.FeeYear, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	oracle := ""
	if t.HasOracle() {
		oracle = ledgerstore.FormatAddress(t.Oracle)
	}
	return &Token{
		ID:                TokenID,
		Name:              t.Name,
		Symbol:            t.Symbol,
		Decimals:          int64(t.Decimals),
		TotalSupply:       ledgerstore.FormatAmount(t.TotalSupply),
		Owner:             ledgerstore.FormatAddress(t.Owner),
		FeeRate:           ledgerstore.FormatAmount(t.FeeRate),
		MaxFee:            ledgerstore.FormatAmount(t.MaxFee),
		LastFeeChange:     times[0],
		FeeChangeMinDelay: times[1],
		FeeYear:           times[2],
		FeeCollector:      ledgerstore.FormatAddress(t.FeeCollector),
		Minter:            ledgerstore.FormatAddress(t.Minter),
		Oracle:            oracle,
		Version:           int64(t.Version),
		Forgiveness:       t.Forgiveness,
		CreatedAt:         times[3],
		UpdatedAt:         times[4],
	}, nil
}

// Record converts the row back into a token configuration.
func (m *Token) Record() (*token.Token, error) {
	var d ledgerstore.Decoder
	t := &token.Token{
		Entity: types.Entity{
			CreatedAt: ledgerstore.FromInt64(m.CreatedAt),
			UpdatedAt: ledgerstore.FromInt64(m.UpdatedAt),
		},
		Name:              m.Name,
		Symbol:            m.Symbol,
		Decimals:          uint8(m.Decimals),
		TotalSupply:       d.Amount(m.TotalSupply),
		Owner:             d.Address(m.Owner),
		FeeRate:           d.Amount(m.FeeRate),
		MaxFee:            d.Amount(m.MaxFee),
		LastFeeChange:     ledgerstore.FromInt64(m.LastFeeChange),
		FeeChangeMinDelay: ledgerstore.FromInt64(m.FeeChangeMinDelay),
		FeeYear:           ledgerstore.FromInt64(m.FeeYear),
		FeeCollector:      d.Address(m.FeeCollector),
		Minter:            d.Address(m.Minter),
		Oracle:            d.Address(m.Oracle),
		Version:           uint32(m.Version),
		Forgiveness:       m.Forgiveness,
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return t, nil
}

// ==================== Account models ====================

// Account is a demurrage_accounts row.
type Account struct {
	grove.BaseModel `grove:"table:demurrage_accounts"`

	Address        string `grove:"address,pk"`
	NominalBalance string `grove:"nominal_balance"`
	FeeLastPaid    int64  `grove:"fee_last_paid"`
	Exempt         bool   `grove:"exempt"`
	CreatedAt      int64  `grove:"created_at"`
	UpdatedAt      int64  `grove:"updated_at"`
}

// AccountConflict and AccountUpdates make the account insert an upsert.
// created_at keeps its first value.
const AccountConflict = "(address) DO UPDATE"

var AccountUpdates = []string{
	"nominal_balance = EXCLUDED.nominal_balance",
	"fee_last_paid = EXCLUDED.fee_last_paid",
	"exempt = EXCLUDED.exempt",
	"updated_at = EXCLUDED.updated_at",
}

func FromAccount(a *account.Account) (*Account, error) {
	times, err := ledgerstore.Int64s(a.FeeLastPaid, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Account{
		Address:        ledgerstore.FormatAddress(a.Address),
		NominalBalance: ledgerstore.FormatAmount(a.NominalBalance),
		FeeLastPaid:    times[0],
		Exempt:         a.Exempt,
		CreatedAt:      times[1],
		UpdatedAt:      times[2],
	}, nil
}

func (m *Account) Record() (*account.Account, error) {
	var d ledgerstore.Decoder
	a := &account.Account{
		Entity: types.Entity{
			CreatedAt: ledgerstore.FromInt64(m.CreatedAt),
			UpdatedAt: ledgerstore.FromInt64(m.UpdatedAt),
		},
		Address:        d.Address(m.Address),
		NominalBalance: d.Amount(m.NominalBalance),
		FeeLastPaid:    ledgerstore.FromInt64(m.FeeLastPaid),
		Exempt:         m.Exempt,
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return a, nil
}

// Accounts converts scanned rows.
func Accounts(models []Account) ([]*account.Account, error) {
	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := models[i].Record()
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Allowance models ====================

// Allowance is a demurrage_allowances row.
type Allowance struct {
	grove.BaseModel `grove:"table:demurrage_allowances"`

	Owner     string `grove:"owner,pk"`
	Spender   string `grove:"spender,pk"`
	Amount    string `grove:"amount"`
	CreatedAt int64  `grove:"created_at"`
	UpdatedAt int64  `grove:"updated_at"`
}

// AllowanceConflict and AllowanceUpdates make the allowance insert an
// upsert.
const AllowanceConflict = "(owner, spender) DO UPDATE"

var AllowanceUpdates = []string{
	"amount = EXCLUDED.amount",
	"updated_at = EXCLUDED.updated_at",
}

func FromAllowance(a *allowance.Allowance) (*Allowance, error) {
	times, err := ledgerstore.Int64s(a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Allowance{
		Owner:     ledgerstore.FormatAddress(a.Owner),
		Spender:   ledgerstore.FormatAddress(a.Spender),
		Amount:    ledgerstore.FormatAmount(a.Amount),
		CreatedAt: times[0],
		UpdatedAt: times[1],
	}, nil
}

func (m *Allowance) Record() (*allowance.Allowance, error) {
	var d ledgerstore.Decoder
	a := &allowance.Allowance{
		Entity: types.Entity{
			CreatedAt: ledgerstore.FromInt64(m.CreatedAt),
			UpdatedAt: ledgerstore.FromInt64(m.UpdatedAt),
		},
		Owner:   d.Address(m.Owner),
		Spender: d.Address(m.Spender),
		Amount:  d.Amount(m.Amount),
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return a, nil
}

// Allowances converts scanned rows.
func Allowances(models []Allowance) ([]*allowance.Allowance, error) {
	result := make([]*allowance.Allowance, len(models))
	for i := range models {
		a, err := models[i].Record()
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}
