package mongo

import (
	"github.com/xraph/grove"

	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
	"github.com/xraph/demurrage/types"
)

// tokenDocID is the _id of the singleton token document.
const tokenDocID = "token"

// ==================== Token models ====================

type tokenModel struct {
	grove.BaseModel `grove:"table:demurrage_token"`

	ID                string `grove:"id,pk"                bson:"_id"`
	Name              string `grove:"name"                 bson:"name"`
	Symbol            string `grove:"symbol"               bson:"symbol"`
	Decimals          int32  `grove:"decimals"             bson:"decimals"`
	TotalSupply       string `grove:"total_supply"         bson:"total_supply"`
	Owner             string `grove:"owner"                bson:"owner"`
	FeeRate           string `grove:"fee_rate"             bson:"fee_rate"`
	MaxFee            string `grove:"max_fee"              bson:"max_fee"`
	LastFeeChange     int64  `grove:"last_fee_change"      bson:"last_fee_change"`
	FeeChangeMinDelay int64  `grove:"fee_change_min_delay" bson:"fee_change_min_delay"`
	FeeYear           int64  `grove:"fee_year"             bson:"fee_year"`
	FeeCollector      string `grove:"fee_collector"        bson:"fee_collector"`
	Minter            string `grove:"minter"               bson:"minter"`
	Oracle            string `grove:"oracle"               bson:"oracle,omitempty"`
	Version           int64  `grove:"version"              bson:"version"`
	Forgiveness       bool   `grove:"forgiveness"          bson:"forgiveness"`
	CreatedAt         int64  `grove:"created_at"           bson:"created_at"`
	UpdatedAt         int64  `grove:"updated_at"           bson:"updated_at"`
}

func toTokenModel(t *token.Token) (*tokenModel, error) {
	times, err := ledgerstore.Int64s(t.LastFeeChange, t.FeeChangeMinDelay, t.FeeYear, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m := &tokenModel{
		ID:                tokenDocID,
		Name:              t.Name,
		Symbol:            t.Symbol,
		Decimals:          int32(t.Decimals),
		TotalSupply:       ledgerstore.FormatAmount(t.TotalSupply),
		Owner:             ledgerstore.FormatAddress(t.Owner),
		FeeRate:           ledgerstore.FormatAmount(t.FeeRate),
		MaxFee:            ledgerstore.FormatAmount(t.MaxFee),
		LastFeeChange:     times[0],
		FeeChangeMinDelay: times[1],
		FeeYear:           times[2],
		FeeCollector:      ledgerstore.FormatAddress(t.FeeCollector),
		Minter:            ledgerstore.FormatAddress(t.Minter),
		Version:           int64(t.Version),
		Forgiveness:       t.Forgiveness,
		CreatedAt:         times[3],
		UpdatedAt:         times[4],
	}
	if t.HasOracle() {
		m.Oracle = ledgerstore.FormatAddress(t.Oracle)
	}
	return m, nil
}

func fromTokenModel(m *tokenModel) (*token.Token, error) {
	var d ledgerstore.Decoder
	t := &token.Token{
		Entity:            entity(m.CreatedAt, m.UpdatedAt),
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

type accountModel struct {
	grove.BaseModel `grove:"table:demurrage_accounts"`

	Address        string `grove:"address,pk"      bson:"_id"`
	NominalBalance string `grove:"nominal_balance" bson:"nominal_balance"`
	FeeLastPaid    int64  `grove:"fee_last_paid"   bson:"fee_last_paid"`
	Exempt         bool   `grove:"exempt"          bson:"exempt"`
	CreatedAt      int64  `grove:"created_at"      bson:"created_at"`
	UpdatedAt      int64  `grove:"updated_at"      bson:"updated_at"`
}

func toAccountModel(a *account.Account) (*accountModel, error) {
	times, err := ledgerstore.Int64s(a.FeeLastPaid, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &accountModel{
		Address:        ledgerstore.FormatAddress(a.Address),
		NominalBalance: ledgerstore.FormatAmount(a.NominalBalance),
		FeeLastPaid:    times[0],
		Exempt:         a.Exempt,
		CreatedAt:      times[1],
		UpdatedAt:      times[2],
	}, nil
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	var d ledgerstore.Decoder
	a := &account.Account{
		Entity:         entity(m.CreatedAt, m.UpdatedAt),
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

// ==================== Allowance models ====================

type allowanceModel struct {
	grove.BaseModel `grove:"table:demurrage_allowances"`

	ID        string `grove:"id,pk"      bson:"_id"`
	Owner     string `grove:"owner"      bson:"owner"`
	Spender   string `grove:"spender"    bson:"spender"`
	Amount    string `grove:"amount"     bson:"amount"`
	CreatedAt int64  `grove:"created_at" bson:"created_at"`
	UpdatedAt int64  `grove:"updated_at" bson:"updated_at"`
}

func allowanceDocID(owner, spender string) string {
	return owner + ":" + spender
}

func toAllowanceModel(a *allowance.Allowance) (*allowanceModel, error) {
	times, err := ledgerstore.Int64s(a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	owner := ledgerstore.FormatAddress(a.Owner)
	spender := ledgerstore.FormatAddress(a.Spender)
	return &allowanceModel{
		ID:        allowanceDocID(owner, spender),
		Owner:     owner,
		Spender:   spender,
		Amount:    ledgerstore.FormatAmount(a.Amount),
		CreatedAt: times[0],
		UpdatedAt: times[1],
	}, nil
}

func fromAllowanceModel(m *allowanceModel) (*allowance.Allowance, error) {
	var d ledgerstore.Decoder
	a := &allowance.Allowance{
		Entity:  entity(m.CreatedAt, m.UpdatedAt),
		Owner:   d.Address(m.Owner),
		Spender: d.Address(m.Spender),
		Amount:  d.Amount(m.Amount),
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return a, nil
}

func entity(created, updated int64) types.Entity {
	return types.Entity{
		CreatedAt: ledgerstore.FromInt64(created),
		UpdatedAt: ledgerstore.FromInt64(updated),
	}
}
