package store

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Column encodings shared by the persistent backends. Amounts are stored as
// base-10 strings since no backend has a native 256-bit integer; addresses
// as lowercase hex so that lexical order matches byte order.

// FormatAmount encodes an amount; nil encodes as "0".
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// ParseAmount decodes an amount written by FormatAmount.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("store: invalid amount %q: %w", s, err)
	}
	return v, nil
}

// FormatAddress encodes an address as 0x-prefixed lowercase hex.
func FormatAddress(a common.Address) string {
	return hexutil.Encode(a.Bytes())
}

// ParseAddress decodes an address written by FormatAddress. The empty
// string decodes to the zero address.
func ParseAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("store: invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ToInt64 converts a ledger time or duration for signed integer columns.
func ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("store: value %d overflows int64", v)
	}
	return int64(v), nil
}

// FromInt64 is the inverse of ToInt64.
func FromInt64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// Int64s converts several values with ToInt64, failing on the first
// overflow.
func Int64s(vals ...uint64) ([]int64, error) {
	out := make([]int64, len(vals))
	for i, v := range vals {
		n, err := ToInt64(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Decoder decodes several columns and keeps the first error, so a row can be
// converted in a single struct literal and checked once.
type Decoder struct {
	Err error
}

// Amount decodes an amount column.
func (d *Decoder) Amount(s string) *uint256.Int {
	v, err := ParseAmount(s)
	if err != nil {
		if d.Err == nil {
			d.Err = err
		}
		return new(uint256.Int)
	}
	return v
}

// Address decodes an address column.
func (d *Decoder) Address(s string) common.Address {
	a, err := ParseAddress(s)
	if err != nil && d.Err == nil {
		d.Err = err
	}
	return a
}
