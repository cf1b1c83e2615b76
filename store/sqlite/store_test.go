package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	"github.com/xraph/demurrage/fee"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

var (
	admin = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	alice = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000000b")
)

const t0 uint64 = 1_700_000_000

func openMigrated(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := openMigrated(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	status, err := s.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus: %v", err)
	}
	if len(status) != 1 {
		t.Fatalf("Got %d groups, want 1", len(status))
	}
	if got, want := len(status[0].Applied), len(Migrations.Migrations()); got != want {
		t.Errorf("Got %d applied, want %d", got, want)
	}
	if len(status[0].Pending) != 0 {
		t.Errorf("Got %d pending, want 0", len(status[0].Pending))
	}

	for _, table := range []string{"grove_migrations", "demurrage_token", "demurrage_accounts", "demurrage_allowances"} {
		var name string
		err := s.sdb.NewRaw(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(ctx, &name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestNotFound(t *testing.T) {
	s := openMigrated(t)
	ctx := context.Background()

	if _, err := s.GetToken(ctx); !errors.Is(err, demurrage.ErrNotInitialized) {
		t.Errorf("GetToken: got %v, want %v", err, demurrage.ErrNotInitialized)
	}
	if _, err := s.GetAccount(ctx, alice); !errors.Is(err, demurrage.ErrAccountNotFound) {
		t.Errorf("GetAccount: got %v, want %v", err, demurrage.ErrAccountNotFound)
	}
	if _, err := s.GetAllowance(ctx, alice, bob); !errors.Is(err, demurrage.ErrAllowanceNotFound) {
		t.Errorf("GetAllowance: got %v, want %v", err, demurrage.ErrAllowanceNotFound)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	s := openMigrated(t)
	ctx := context.Background()

	// Larger than any 64-bit integer column could hold.
	huge, _ := uint256.FromDecimal("123456789012345678901234567890")

	a := account.New(alice, t0)
	a.NominalBalance = huge
	a.FeeLastPaid = t0
	b := account.New(bob, t0)
	b.Exempt = true

	al := allowance.New(alice, bob, t0)
	al.Amount = allowance.Unlimited.Clone()

	if err := s.Commit(ctx, &ledgerstore.Batch{
		Accounts:   []*account.Account{a, b},
		Allowances: []*allowance.Allowance{al},
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := s.GetAccount(ctx, alice)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.NominalBalance.Eq(huge) || got.FeeLastPaid != t0 || got.Exempt {
		t.Errorf("Got %+v", got)
	}

	gotAl, err := s.GetAllowance(ctx, alice, bob)
	if err != nil {
		t.Fatalf("GetAllowance: %v", err)
	}
	if !gotAl.IsUnlimited() {
		t.Errorf("Got allowance %s, want unlimited", gotAl.Amount.Dec())
	}

	// Upsert replaces the row.
	a.NominalBalance = uint256.NewInt(5)
	a.Touch(t0 + 10)
	if err := s.Commit(ctx, &ledgerstore.Batch{Accounts: []*account.Account{a}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, _ = s.GetAccount(ctx, alice)
	if !got.NominalBalance.Eq(uint256.NewInt(5)) || got.UpdatedAt != t0+10 || got.CreatedAt != t0 {
		t.Errorf("after upsert: Got %+v", got)
	}

	tests := []struct {
		name string
		opts account.ListOpts
		want int
	}{
		{"all", account.ListOpts{}, 2},
		{"exempt", account.ListOpts{ExemptOnly: true}, 1},
		{"non-empty", account.ListOpts{NonEmpty: true}, 1},
		{"limit", account.ListOpts{Limit: 1}, 1},
		{"offset", account.ListOpts{Offset: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListAccounts(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListAccounts: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("Got %d accounts, want %d", len(list), tt.want)
			}
		})
	}

	list, err := s.ListAllowances(ctx, alice)
	if err != nil {
		t.Fatalf("ListAllowances: %v", err)
	}
	if len(list) != 1 || list[0].Spender != bob {
		t.Errorf("Got %d allowances", len(list))
	}
}

func TestCommitRollsBack(t *testing.T) {
	s := openMigrated(t)
	ctx := context.Background()

	tok := &token.Token{
		Name:         "Denario Silver Coin",
		Symbol:       "DSC",
		Decimals:     8,
		TotalSupply:  uint256.NewInt(100),
		Owner:        admin,
		FeeRate:      uint256.NewInt(2_500_000),
		MaxFee:       uint256.NewInt(5_000_000),
		FeeCollector: admin,
		Minter:       admin,
		Version:      1,
	}
	good := account.New(alice, t0)
	good.NominalBalance = uint256.NewInt(100)
	// Does not fit the signed time column.
	bad := account.New(bob, t0)
	bad.FeeLastPaid = math.MaxUint64

	err := s.Commit(ctx, &ledgerstore.Batch{
		Token:    tok,
		Accounts: []*account.Account{good, bad},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if _, err := s.GetToken(ctx); !errors.Is(err, demurrage.ErrNotInitialized) {
		t.Errorf("GetToken: got %v, want %v", err, demurrage.ErrNotInitialized)
	}
	if _, err := s.GetAccount(ctx, alice); !errors.Is(err, demurrage.ErrAccountNotFound) {
		t.Errorf("GetAccount: got %v, want %v", err, demurrage.ErrAccountNotFound)
	}
}

func TestLedgerOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "demurrage.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l := demurrage.New(s, demurrage.WithLogger(logger))
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := l.Initialize(ctx, demurrage.DefaultGenesis("Denario Silver Coin", "DSC", admin), t0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	amount := demurrage.MustParseUnits("100", 8)
	if err := l.Mint(ctx, demurrage.At(admin, t0), amount); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := l.Transfer(ctx, demurrage.At(admin, t0), alice, amount); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := l.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Reopen and continue where we left off.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	l = demurrage.New(s, demurrage.WithLogger(logger))
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop(ctx)

	bal, err := l.BalanceOf(ctx, alice, t0+fee.DefaultYear)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if want := demurrage.MustParseUnits("97.5", 8); !bal.Eq(want) {
		t.Errorf("Got %s, want %s", bal.Dec(), want.Dec())
	}

	// A failed operation leaves no trace in the database.
	err = l.Transfer(ctx, demurrage.At(alice, t0+fee.DefaultYear), bob, demurrage.MustParseUnits("1000", 8))
	if !errors.Is(err, demurrage.ErrInsufficientBalance) {
		t.Fatalf("Got %v, want %v", err, demurrage.ErrInsufficientBalance)
	}
	lp, err := l.FeeLastPaid(ctx, alice)
	if err != nil {
		t.Fatalf("FeeLastPaid: %v", err)
	}
	if lp != t0 {
		t.Errorf("Got last paid %d, want %d", lp, t0)
	}
}
