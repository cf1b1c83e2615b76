// Package fee computes holding fees for decaying balances.
//
// Everything in this package is a pure function of its inputs. Callers own
// the state (nominal balances, settlement checkpoints, the fee schedule) and
// pass "now" explicitly; nothing here reads a clock or stores anything.
//
// The fee owed by a balance b, last settled at t0 and evaluated at t1, is
//
//	floor(b * rate * (t1 - t0) / (year * 10^decimals))
//
// clamped to b. Intermediate products are computed at 512-bit precision so
// no realistic combination of balance, rate and elapsed time can overflow.
package fee

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// DefaultDecimals is the token precision used when none is configured.
	DefaultDecimals uint8 = 8

	// MaxDecimals bounds the precision so that year*10^decimals stays
	// well inside 256 bits.
	MaxDecimals uint8 = 36

	// DefaultYear is the length of a fee-year in seconds.
	DefaultYear uint64 = 365 * 24 * 3600

	// DefaultMinDelay is the minimum number of seconds between two fee
	// rate changes.
	DefaultMinDelay uint64 = DefaultYear / 2
)

// Schedule is the fee configuration an account is settled against.
//
// Rate is the fraction of a balance forfeited over one Year, scaled by
// 10^Decimals. A zero Year means DefaultYear.
type Schedule struct {
	Rate     *uint256.Int
	Year     uint64
	Decimals uint8
}

// Denominator returns Year * 10^Decimals.
func (s Schedule) Denominator() *uint256.Int {
	year := s.Year
	if year == 0 {
		year = DefaultYear
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(s.Decimals)))
	return scale.Mul(scale, uint256.NewInt(year))
}

// Calculate returns the fee a settlement at now would deduct from balance.
// It never exceeds balance. Exempt balances, unsettled checkpoints
// (lastPaid == 0) and non-positive elapsed time owe nothing.
func Calculate(balance *uint256.Int, lastPaid, now uint64, s Schedule, exempt bool) *uint256.Int {
	if exempt || lastPaid == 0 || now <= lastPaid {
		return new(uint256.Int)
	}
	if balance == nil || balance.IsZero() || s.Rate == nil || s.Rate.IsZero() {
		return new(uint256.Int)
	}

	elapsed := uint256.NewInt(now - lastPaid)
	denom := s.Denominator()

	num, overflow := new(uint256.Int).MulOverflow(s.Rate, elapsed)
	if !overflow {
		owed, over := new(uint256.Int).MulDivOverflow(balance, num, denom)
		if over {
			// The quotient does not fit in 256 bits, so it exceeds any balance.
			return balance.Clone()
		}
		return clamp(owed, balance)
	}

	// rate*elapsed alone overflowed; fall back to arbitrary precision.
	prod := new(big.Int).Mul(balance.ToBig(), s.Rate.ToBig())
	prod.Mul(prod, elapsed.ToBig())
	prod.Quo(prod, denom.ToBig())
	if prod.Cmp(balance.ToBig()) >= 0 {
		return balance.Clone()
	}
	return uint256.MustFromBig(prod)
}

// Settle deducts the fee owed since lastPaid and returns the settled
// balance together with the fee. Calling Settle again with the same now
// and the returned checkpoint yields a zero fee.
func Settle(balance *uint256.Int, lastPaid, now uint64, s Schedule, exempt bool) (settled, owed *uint256.Int) {
	if balance == nil {
		balance = new(uint256.Int)
	}
	owed = Calculate(balance, lastPaid, now, s, exempt)
	settled = new(uint256.Int).Sub(balance, owed)
	return settled, owed
}

// Checkpoint returns the settlement checkpoint an account holding balance
// should carry after being settled at now: now for a positive balance, zero
// for an empty one.
func Checkpoint(balance *uint256.Int, now uint64) uint64 {
	if balance == nil || balance.IsZero() {
		return 0
	}
	return now
}

// AccrualStart returns the timestamp fee accrual is measured from.
//
// By default the whole window since lastPaid is charged at the current
// rate. With forgive set, debt accrued before the most recent rate change
// is dropped and accrual starts at lastFeeChange instead.
func AccrualStart(lastPaid, lastFeeChange uint64, forgive bool) uint64 {
	if lastPaid == 0 {
		return 0
	}
	if forgive && lastFeeChange > lastPaid {
		return lastFeeChange
	}
	return lastPaid
}

func clamp(owed, balance *uint256.Int) *uint256.Int {
	if owed.Gt(balance) {
		return balance.Clone()
	}
	return owed
}
