package fee

import (
	"errors"

	"github.com/holiman/uint256"
)

// Policy errors.
var (
	ErrMaxFeeExceeded       = errors.New("fee: max fee exceeded")
	ErrFeeChangeTooSoon     = errors.New("fee: fee change too soon")
	ErrFeeNotReduced        = errors.New("fee: new fee rate must be lower than the current one")
	ErrMintingLimitExceeded = errors.New("fee: minting limit exceeded")
)

// CheckRateChange validates a fee rate change requested at now.
// The new rate must not exceed maxFee and at least minDelay seconds must
// have passed since lastChange. A change exactly at the delay is allowed.
func CheckRateChange(newRate, maxFee *uint256.Int, lastChange, minDelay, now uint64) error {
	if newRate.Gt(maxFee) {
		return ErrMaxFeeExceeded
	}
	if now < lastChange || now-lastChange < minDelay {
		return ErrFeeChangeTooSoon
	}
	return nil
}

// CheckRateReduction validates a cooldown-free rate reduction. Only a
// strictly lower rate is accepted.
func CheckRateReduction(newRate, current *uint256.Int) error {
	if !newRate.Lt(current) {
		return ErrFeeNotReduced
	}
	return nil
}

// CheckMintCeiling reports whether minting amount on top of supply stays
// within the locked reserve value. Reaching the ceiling exactly is allowed.
func CheckMintCeiling(supply, amount, locked *uint256.Int) error {
	next, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow || next.Gt(locked) {
		return ErrMintingLimitExceeded
	}
	return nil
}
