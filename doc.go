// Package demurrage provides a fungible token ledger whose balances decay
// through a continuously accruing holding fee.
//
// Demurrage is designed as a library, not a service. Import it into the
// application that hosts the ledger and back it with any store. It provides:
//
//   - Lazy fee accrual: fees are computed on read and settled on the next
//     balance-affecting operation, with no background jobs
//   - Per-holder settlement checkpoints and a permissionless fee sweep
//   - Fee-rate governance (ceiling and change cooldown), fee exemptions and
//     an oracle-bounded mint ceiling
//   - Atomic operations: every call commits all of its writes or none
//   - Versioned logic behind a stable façade, upgradable in place
//   - Memory, SQLite, PostgreSQL and MongoDB stores
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/demurrage"
//	    "github.com/xraph/demurrage/store/memory"
//	)
//
//	l := demurrage.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop(ctx)
//
//	g := demurrage.DefaultGenesis("Denario Silver Coin", "DSC", admin)
//	if _, err := l.Initialize(ctx, g, now); err != nil {
//	    log.Fatal(err)
//	}
//
//	// The minter (admin here) mints and pays out.
//	err := l.Mint(ctx, demurrage.At(admin, now), types.MustParseUnits("100", 8))
//	err = l.Transfer(ctx, demurrage.At(admin, now), holder, types.MustParseUnits("10", 8))
//
//	// A year later the holder has lost 2.5%.
//	bal, _ := l.BalanceOf(ctx, holder, now+fee.DefaultYear)
//
// # Time
//
// The ledger never reads a clock. Every mutating call carries a Call with
// the sender and the current ledger time; reads take "now" explicitly.
// Hosts must supply non-decreasing times.
//
// # Fees
//
// A holder's nominal balance b, last settled at t0, owes at t1
//
//	floor(b * feeRate * (t1 - t0) / (feeYear * 10^decimals))
//
// capped at b. Settled fees move to the fee collector, so total supply
// always equals the sum of nominal balances. After a rate change the whole
// unsettled window is charged at the new rate; set Genesis.Forgiveness to
// drop debt accrued before the change instead.
//
// # Events
//
// Plugins registered with WithPlugin receive Transfer, Approval, Mint, Burn,
// FeeCollected and administrative events after each commit. Event IDs are
// TypeIDs:
//
//	xfer_01h2xcejqtf2nbrexx3vqjhp41  // Transfer
//	fee_01h2xcejqtf2nbrexx3vqjhp41   // FeeCollected
package demurrage
