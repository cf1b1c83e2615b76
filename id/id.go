// Package id defines TypeID-based identifiers for ledger events.
//
// Every event emitted by the ledger carries an ID whose prefix names the
// event kind. IDs are K-sortable (UUIDv7-based), globally unique and
// URL-safe in the format "prefix_suffix", so hook consumers can use them as
// idempotency keys.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the event kind encoded in a TypeID.
type Prefix string

// Prefix constants for every event kind.
const (
	PrefixTransfer      Prefix = "xfer" // Balance movement
	PrefixApproval      Prefix = "appr" // Allowance change
	PrefixMint          Prefix = "mint" // Supply increase
	PrefixBurn          Prefix = "burn" // Supply decrease
	PrefixFeeCollection Prefix = "fee"  // Settled holding fee
	PrefixRateChange    Prefix = "rate" // Fee rate change
	PrefixExemption     Prefix = "exmp" // Fee exemption toggle
	PrefixRoleChange    Prefix = "role" // Collector, minter, oracle or owner change
	PrefixUpgrade       Prefix = "upg"  // Logic version change
)

// ID identifies a single ledger event.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "xfer_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that it carries the expected prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

func NewTransferID() ID      { return New(PrefixTransfer) }
func NewApprovalID() ID      { return New(PrefixApproval) }
func NewMintID() ID          { return New(PrefixMint) }
func NewBurnID() ID          { return New(PrefixBurn) }
func NewFeeCollectionID() ID { return New(PrefixFeeCollection) }
func NewRateChangeID() ID    { return New(PrefixRateChange) }
func NewExemptionID() ID     { return New(PrefixExemption) }
func NewRoleChangeID() ID    { return New(PrefixRoleChange) }
func NewUpgradeID() ID       { return New(PrefixUpgrade) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
