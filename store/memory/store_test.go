package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000000b")
)

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetAccount(ctx, alice); !errors.Is(err, demurrage.ErrAccountNotFound) {
		t.Errorf("GetAccount: got %v, want %v", err, demurrage.ErrAccountNotFound)
	}
	if _, err := s.GetAllowance(ctx, alice, bob); !errors.Is(err, demurrage.ErrAllowanceNotFound) {
		t.Errorf("GetAllowance: got %v, want %v", err, demurrage.ErrAllowanceNotFound)
	}
	if _, err := s.GetToken(ctx); !errors.Is(err, demurrage.ErrNotInitialized) {
		t.Errorf("GetToken: got %v, want %v", err, demurrage.ErrNotInitialized)
	}
}

func TestCommitAndCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := account.New(alice, 10)
	a.NominalBalance = uint256.NewInt(500)
	a.FeeLastPaid = 10

	al := allowance.New(alice, bob, 10)
	al.Amount = uint256.NewInt(7)

	tok := &token.Token{Name: "Test", Symbol: "TST", TotalSupply: uint256.NewInt(500)}

	if err := s.Commit(ctx, &ledgerstore.Batch{
		Token:      tok,
		Accounts:   []*account.Account{a},
		Allowances: []*allowance.Allowance{al},
	}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Mutating the committed value must not leak into the store.
	a.NominalBalance.SetUint64(1)

	got, err := s.GetAccount(ctx, alice)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !got.NominalBalance.Eq(uint256.NewInt(500)) {
		t.Errorf("Got balance %s, want 500", got.NominalBalance.Dec())
	}

	// Nor must mutating a read value.
	got.NominalBalance.SetUint64(2)
	again, _ := s.GetAccount(ctx, alice)
	if !again.NominalBalance.Eq(uint256.NewInt(500)) {
		t.Errorf("read copy leaked: got %s, want 500", again.NominalBalance.Dec())
	}

	gotAl, err := s.GetAllowance(ctx, alice, bob)
	if err != nil {
		t.Fatalf("GetAllowance failed: %v", err)
	}
	if !gotAl.Amount.Eq(uint256.NewInt(7)) {
		t.Errorf("Got allowance %s, want 7", gotAl.Amount.Dec())
	}

	gotTok, err := s.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if gotTok.Symbol != "TST" {
		t.Errorf("Got symbol %q, want TST", gotTok.Symbol)
	}
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	empty := account.New(bob, 1)
	exempt := account.New(alice, 1)
	exempt.NominalBalance = uint256.NewInt(3)
	exempt.Exempt = true

	if err := s.Commit(ctx, &ledgerstore.Batch{Accounts: []*account.Account{empty, exempt}}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	tests := []struct {
		name string
		opts account.ListOpts
		want []common.Address
	}{
		{"all sorted", account.ListOpts{}, []common.Address{alice, bob}},
		{"exempt only", account.ListOpts{ExemptOnly: true}, []common.Address{alice}},
		{"non-empty", account.ListOpts{NonEmpty: true}, []common.Address{alice}},
		{"limit", account.ListOpts{Limit: 1}, []common.Address{alice}},
		{"offset", account.ListOpts{Offset: 1}, []common.Address{bob}},
		{"offset past end", account.ListOpts{Offset: 5}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListAccounts(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListAccounts failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Got %d accounts, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Address != tt.want[i] {
					t.Errorf("[%d] Got %s, want %s", i, got[i].Address.Hex(), tt.want[i].Hex())
				}
			}
		})
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, demurrage.ErrStoreClosed) {
		t.Errorf("Ping: got %v, want %v", err, demurrage.ErrStoreClosed)
	}
	if err := s.Commit(ctx, &ledgerstore.Batch{Token: &token.Token{}}); !errors.Is(err, demurrage.ErrStoreClosed) {
		t.Errorf("Commit: got %v, want %v", err, demurrage.ErrStoreClosed)
	}
}
