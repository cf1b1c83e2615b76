package types

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ParseUnits converts a human-readable token amount ("12.5") into base
// units at the given precision. Negative values, more fractional digits
// than decimals and values above 2^256-1 are rejected.
//
// Examples at 8 decimals:
//   - "1"       → 100000000
//   - "0.025"   → 2500000
//   - "0.00000001" → 1
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("units: parse %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("units: parse %q: negative amount", s)
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("units: parse %q: more than %d decimal places", s, decimals)
	}

	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("units: parse %q: exceeds 256 bits", s)
	}
	return v, nil
}

// MustParseUnits is like ParseUnits but panics on error. Use for constants.
func MustParseUnits(s string, decimals uint8) *uint256.Int {
	v, err := ParseUnits(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits renders base units as a decimal string with trailing zeros
// removed.
func FormatUnits(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals)).String()
}

// FormatRate renders a fee rate scaled by 10^decimals as a yearly
// percentage, e.g. 2500000 at 8 decimals → "2.5%".
func FormatRate(rate *uint256.Int, decimals uint8) string {
	if rate == nil {
		return "0%"
	}
	pct := decimal.NewFromBigInt(rate.ToBig(), -int32(decimals)).Shift(2)
	return pct.String() + "%"
}

// ParseRate parses a yearly fee rate. A trailing "%" marks a percentage
// ("2.5%" at 8 decimals → 2500000); anything else is taken as base units.
func ParseRate(s string, decimals uint8) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("units: parse rate %q: %w", s, err)
		}
		return ParseUnits(d.Shift(-2).String(), decimals)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("units: parse rate %q: %w", s, err)
	}
	return v, nil
}
