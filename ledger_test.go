package demurrage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/event"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/store/memory"
)

var (
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	minter    = common.HexToAddress("0x0000000000000000000000000000000000000002")
	collector = common.HexToAddress("0x0000000000000000000000000000000000000003")
	alice     = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob       = common.HexToAddress("0x000000000000000000000000000000000000000b")
	carol     = common.HexToAddress("0x000000000000000000000000000000000000000c")
)

const (
	t0   uint64 = 1_700_000_000
	year uint64 = fee.DefaultYear
)

// tokens converts whole tokens to base units at 8 decimals.
func tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(100_000_000))
}

func base(n uint64) *uint256.Int { return uint256.NewInt(n) }

func testGenesis() demurrage.Genesis {
	g := demurrage.DefaultGenesis("Denario Silver Coin", "DSC", owner)
	g.Minter = minter
	g.FeeCollector = collector
	return g
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	ctx   context.Context
	l     *demurrage.Ledger
	store *memory.Store
}

func newFixture(t *testing.T, g demurrage.Genesis, opts ...demurrage.Option) *fixture {
	t.Helper()

	ctx := context.Background()
	s := memory.New()
	opts = append([]demurrage.Option{demurrage.WithLogger(quietLogger())}, opts...)
	l := demurrage.New(s, opts...)

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := l.Initialize(ctx, g, t0); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return &fixture{ctx: ctx, l: l, store: s}
}

// fund mints amount and hands it to addr, both at time at.
func (f *fixture) fund(t *testing.T, addr common.Address, amount *uint256.Int, at uint64) {
	t.Helper()
	if err := f.l.Mint(f.ctx, demurrage.At(minter, at), amount); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := f.l.Transfer(f.ctx, demurrage.At(minter, at), addr, amount); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, addr common.Address, now uint64) *uint256.Int {
	t.Helper()
	b, err := f.l.BalanceOf(f.ctx, addr, now)
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	return b
}

func (f *fixture) nominal(t *testing.T, addr common.Address) *uint256.Int {
	t.Helper()
	b, err := f.l.BalanceOfWithFee(f.ctx, addr)
	if err != nil {
		t.Fatalf("BalanceOfWithFee failed: %v", err)
	}
	return b
}

func (f *fixture) lastPaid(t *testing.T, addr common.Address) uint64 {
	t.Helper()
	lp, err := f.l.FeeLastPaid(f.ctx, addr)
	if err != nil {
		t.Fatalf("FeeLastPaid failed: %v", err)
	}
	return lp
}

// checkSupply asserts that total supply equals the sum of nominal balances.
func (f *fixture) checkSupply(t *testing.T) {
	t.Helper()

	accounts, err := f.store.ListAccounts(f.ctx, demurrage.ListOpts{})
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	sum := new(uint256.Int)
	for _, a := range accounts {
		sum.Add(sum, a.NominalBalance)
	}
	supply, err := f.l.TotalSupply(f.ctx)
	if err != nil {
		t.Fatalf("TotalSupply failed: %v", err)
	}
	if !sum.Eq(supply) {
		t.Errorf("sum of balances %s != total supply %s", sum.Dec(), supply.Dec())
	}
}

func wantBalance(t *testing.T, what string, got, want *uint256.Int) {
	t.Helper()
	if !got.Eq(want) {
		t.Errorf("%s: Got %s, want %s", what, got.Dec(), want.Dec())
	}
}

// ──────────────────────────────────────────────────
// Initialization
// ──────────────────────────────────────────────────

func TestInitialize(t *testing.T) {
	f := newFixture(t, testGenesis())

	tok, err := f.l.Token(f.ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.Symbol != "DSC" || tok.Decimals != 8 {
		t.Errorf("Got %s/%d, want DSC/8", tok.Symbol, tok.Decimals)
	}
	if tok.LastFeeChange != t0 {
		t.Errorf("Got last fee change %d, want %d", tok.LastFeeChange, t0)
	}
	if tok.Version != demurrage.VersionV1 {
		t.Errorf("Got version %d, want %d", tok.Version, demurrage.VersionV1)
	}
	if !tok.TotalSupply.IsZero() {
		t.Errorf("Got supply %s, want 0", tok.TotalSupply.Dec())
	}

	exempt, err := f.l.IsFeeExempt(f.ctx, collector)
	if err != nil {
		t.Fatalf("IsFeeExempt failed: %v", err)
	}
	if !exempt {
		t.Error("fee collector should start exempt")
	}

	if _, err := f.l.Initialize(f.ctx, testGenesis(), t0+1); !errors.Is(err, demurrage.ErrAlreadyInitialized) {
		t.Errorf("second Initialize: got %v, want %v", err, demurrage.ErrAlreadyInitialized)
	}
}

func TestGenesisValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *demurrage.Genesis)
		want   []error
	}{
		{"valid", func(*demurrage.Genesis) {}, nil},
		{"zero owner", func(g *demurrage.Genesis) { g.Owner = common.Address{} }, []error{demurrage.ErrInvalidOwner}},
		{"zero minter and collector", func(g *demurrage.Genesis) {
			g.Minter = common.Address{}
			g.FeeCollector = common.Address{}
		}, []error{demurrage.ErrInvalidMinter, demurrage.ErrInvalidFeeCollector}},
		{"rate above max", func(g *demurrage.Genesis) { g.FeeRate = uint256.NewInt(6_000_000) }, []error{demurrage.ErrMaxFeeExceeded}},
		{"too many decimals", func(g *demurrage.Genesis) { g.Decimals = 40 }, []error{demurrage.ErrInvalidDecimals}},
		{"unknown version", func(g *demurrage.Genesis) { g.Version = 99 }, []error{demurrage.ErrInvalidVersion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGenesis()
			tt.mutate(&g)
			err := g.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Got %v, want %v", err, want)
				}
			}
		})
	}
}

func TestNotInitialized(t *testing.T) {
	ctx := context.Background()
	l := demurrage.New(memory.New(), demurrage.WithLogger(quietLogger()))

	err := l.Transfer(ctx, demurrage.At(alice, t0), bob, base(1))
	if !errors.Is(err, demurrage.ErrNotInitialized) {
		t.Errorf("Got %v, want %v", err, demurrage.ErrNotInitialized)
	}
	if _, err := l.Initialize(ctx, testGenesis(), 0); !errors.Is(err, demurrage.ErrInvalidTimestamp) {
		t.Errorf("Initialize at 0: got %v, want %v", err, demurrage.ErrInvalidTimestamp)
	}
}

func TestZeroTimestampRejected(t *testing.T) {
	f := newFixture(t, testGenesis())
	err := f.l.Mint(f.ctx, demurrage.At(minter, 0), tokens(1))
	if !errors.Is(err, demurrage.ErrInvalidTimestamp) {
		t.Errorf("Got %v, want %v", err, demurrage.ErrInvalidTimestamp)
	}
}

// ──────────────────────────────────────────────────
// Upgrades
// ──────────────────────────────────────────────────

func TestUpgradeToV2(t *testing.T) {
	f := newFixture(t, testGenesis())
	f.fund(t, alice, tokens(100), t0)

	// Reductions are not part of V1.
	err := f.l.ReduceFeeRate(f.ctx, demurrage.At(owner, t0+1), base(1_000_000))
	if !errors.Is(err, demurrage.ErrUnsupportedOperation) {
		t.Fatalf("V1 ReduceFeeRate: got %v, want %v", err, demurrage.ErrUnsupportedOperation)
	}

	if err := f.l.Upgrade(f.ctx, demurrage.At(alice, t0+1), demurrage.VersionV2); !errors.Is(err, demurrage.ErrNotOwner) {
		t.Fatalf("Upgrade by non-owner: got %v, want %v", err, demurrage.ErrNotOwner)
	}
	if err := f.l.Upgrade(f.ctx, demurrage.At(owner, t0+1), demurrage.VersionV2); err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}

	v, err := f.l.Version(f.ctx)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != demurrage.VersionV2 {
		t.Errorf("Got version %d, want %d", v, demurrage.VersionV2)
	}

	// State survives the upgrade.
	wantBalance(t, "alice nominal", f.nominal(t, alice), tokens(100))

	// Reductions skip the cooldown but must actually lower the rate.
	if err := f.l.ReduceFeeRate(f.ctx, demurrage.At(owner, t0+2), base(2_500_000)); !errors.Is(err, demurrage.ErrFeeNotReduced) {
		t.Errorf("equal rate: got %v, want %v", err, demurrage.ErrFeeNotReduced)
	}
	if err := f.l.ReduceFeeRate(f.ctx, demurrage.At(alice, t0+2), base(1)); !errors.Is(err, demurrage.ErrNotOwner) {
		t.Errorf("non-owner: got %v, want %v", err, demurrage.ErrNotOwner)
	}
	if err := f.l.ReduceFeeRate(f.ctx, demurrage.At(owner, t0+2), base(1_000_000)); err != nil {
		t.Fatalf("ReduceFeeRate failed: %v", err)
	}

	rate, _ := f.l.FeeRate(f.ctx)
	wantBalance(t, "fee rate", rate, base(1_000_000))
	last, _ := f.l.LastFeeChange(f.ctx)
	if last != t0+2 {
		t.Errorf("Got last fee change %d, want %d", last, t0+2)
	}

	// No downgrades, and no sideways moves.
	for _, v := range []uint32{demurrage.VersionV1, demurrage.VersionV2, 99} {
		if err := f.l.Upgrade(f.ctx, demurrage.At(owner, t0+3), v); !errors.Is(err, demurrage.ErrInvalidVersion) {
			t.Errorf("Upgrade to %d: got %v, want %v", v, err, demurrage.ErrInvalidVersion)
		}
	}
}

// ──────────────────────────────────────────────────
// Plugins
// ──────────────────────────────────────────────────

type recorder struct {
	mu        sync.Mutex
	transfers []*event.Transfer
	fees      []*event.FeeCollected
	roles     []*event.RoleChanged
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnTransfer(_ context.Context, e *event.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, e)
	return nil
}

func (r *recorder) OnFeeCollected(_ context.Context, e *event.FeeCollected) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fees = append(r.fees, e)
	return nil
}

func (r *recorder) OnRoleChanged(_ context.Context, e *event.RoleChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = append(r.roles, e)
	return nil
}

func TestEventsAfterCommit(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, testGenesis(), demurrage.WithPlugin(rec))
	f.fund(t, alice, tokens(100), t0)

	// mint + transfer
	if len(rec.transfers) != 2 {
		t.Fatalf("Got %d transfer events, want 2", len(rec.transfers))
	}
	if rec.transfers[0].From != (common.Address{}) || rec.transfers[0].To != minter {
		t.Errorf("mint transfer: Got %s -> %s", rec.transfers[0].From.Hex(), rec.transfers[0].To.Hex())
	}

	// A rejected operation emits nothing, including the fee it settled.
	err := f.l.Transfer(f.ctx, demurrage.At(alice, t0+year), bob, tokens(1000))
	if !errors.Is(err, demurrage.ErrInsufficientBalance) {
		t.Fatalf("Got %v, want %v", err, demurrage.ErrInsufficientBalance)
	}
	if len(rec.fees) != 0 || len(rec.transfers) != 2 {
		t.Errorf("rejected transfer emitted events: %d fees, %d transfers", len(rec.fees), len(rec.transfers))
	}

	if err := f.l.Transfer(f.ctx, demurrage.At(alice, t0+year), bob, tokens(10)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if len(rec.fees) != 1 {
		t.Fatalf("Got %d fee events, want 1", len(rec.fees))
	}
	got := rec.fees[0]
	if got.Account != alice || got.Collector != collector {
		t.Errorf("fee event: Got %s -> %s", got.Account.Hex(), got.Collector.Hex())
	}
	wantBalance(t, "fee event amount", got.Amount, base(250_000_000))

	if err := f.l.SetMinterRole(f.ctx, demurrage.At(owner, t0+year), carol); err != nil {
		t.Fatalf("SetMinterRole failed: %v", err)
	}
	if len(rec.roles) != 1 || rec.roles[0].Role != event.RoleMinter || rec.roles[0].Previous != minter || rec.roles[0].Current != carol {
		t.Errorf("unexpected role events: %+v", rec.roles)
	}
}
