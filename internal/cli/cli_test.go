package cli

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/fee"
)

const (
	admin = "0x0000000000000000000000000000000000000001"
	alice = "0x000000000000000000000000000000000000000a"
	bob   = "0x000000000000000000000000000000000000000b"
	t0    = 1_700_000_000
)

// ledgerFile runs commands against one SQLite file.
type ledgerFile struct {
	t    *testing.T
	path string
}

func newLedgerFile(t *testing.T) *ledgerFile {
	return &ledgerFile{t: t, path: filepath.Join(t.TempDir(), "ledger.db")}
}

func (f *ledgerFile) exec(at uint64, args ...string) (string, error) {
	f.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--db", f.path, "--at", strconv.FormatUint(at, 10)))
	err := root.Execute()
	return out.String(), err
}

func (f *ledgerFile) must(at uint64, args ...string) string {
	f.t.Helper()
	out, err := f.exec(at, args...)
	if err != nil {
		f.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestLifecycle(t *testing.T) {
	f := newLedgerFile(t)

	out := f.must(t0, "init", "--from", admin)
	if !strings.Contains(out, "Denario Silver Coin (DSC)") {
		t.Errorf("Got init output %q", out)
	}
	if _, err := f.exec(t0, "init", "--from", admin); !errors.Is(err, demurrage.ErrAlreadyInitialized) {
		t.Errorf("Got %v, want %v", err, demurrage.ErrAlreadyInitialized)
	}

	f.must(t0, "mint", "100", "--from", admin)
	f.must(t0, "transfer", alice, "100", "--from", admin)

	out = f.must(t0+fee.DefaultYear, "balance", alice)
	if !strings.Contains(out, "balance:   97.5\n") {
		t.Errorf("Got balance output %q", out)
	}
	if !strings.Contains(out, "nominal:   100\n") {
		t.Errorf("Got balance output %q", out)
	}

	out = f.must(t0+fee.DefaultYear, "collect", alice, "--from", bob)
	if !strings.Contains(out, "collected 2.5 from 1 accounts") {
		t.Errorf("Got collect output %q", out)
	}

	out = f.must(t0+fee.DefaultYear, "transfer-all", bob, "--from", alice)
	if !strings.Contains(out, "transferred 97.5") {
		t.Errorf("Got transfer-all output %q", out)
	}

	out = f.must(t0+fee.DefaultYear, "info")
	if !strings.Contains(out, "2.5%") || !strings.Contains(out, "total supply") {
		t.Errorf("Got info output %q", out)
	}
}

func TestGovernance(t *testing.T) {
	f := newLedgerFile(t)
	f.must(t0, "init", "--from", admin, "--preset", "gold")

	tests := []struct {
		name    string
		at      uint64
		args    []string
		wantErr error
		wantOut string
	}{
		{"above max fee", t0 + 1, []string{"set-fee-rate", "10%"}, demurrage.ErrMaxFeeExceeded, ""},
		{"too soon", t0 + 1, []string{"set-fee-rate", "3%"}, demurrage.ErrFeeChangeTooSoon, ""},
		{"reduction needs v2", t0 + 1, []string{"reduce-fee-rate", "0.5%"}, demurrage.ErrUnsupportedOperation, ""},
		{"upgrade", t0 + 1, []string{"upgrade", "2"}, nil, "upgraded to logic v2"},
		{"downgrade", t0 + 1, []string{"upgrade", "1"}, demurrage.ErrInvalidVersion, ""},
		{"reduction", t0 + 2, []string{"reduce-fee-rate", "0.5%"}, nil, "fee rate set to 0.5%"},
		{"exempt", t0 + 3, []string{"exempt", alice}, nil, "exempted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.exec(tt.at, append(tt.args, "--from", admin)...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("Got %q, want %q", out, tt.wantOut)
			}
		})
	}

	out := f.must(t0+4, "balance", alice)
	if !strings.Contains(out, "exempt:    true") {
		t.Errorf("Got balance output %q", out)
	}
}

func TestMintOracle(t *testing.T) {
	f := newLedgerFile(t)
	f.must(t0, "init", "--from", admin)
	f.must(t0, "set-oracle", bob, "--from", admin)

	if _, err := f.exec(t0, "mint", "10", "--from", admin); !errors.Is(err, demurrage.ErrOracleUnavailable) {
		t.Errorf("Got %v, want %v", err, demurrage.ErrOracleUnavailable)
	}
	if _, err := f.exec(t0, "mint", "10", "--locked-value", "5", "--from", admin); !errors.Is(err, demurrage.ErrMintingLimitExceeded) {
		t.Errorf("Got %v, want %v", err, demurrage.ErrMintingLimitExceeded)
	}
	out := f.must(t0, "mint", "10", "--locked-value", "10", "--from", admin)
	if !strings.Contains(out, "total supply 10") {
		t.Errorf("Got mint output %q", out)
	}
}

func TestFlagErrors(t *testing.T) {
	f := newLedgerFile(t)
	f.must(t0, "init", "--from", admin)

	tests := []struct {
		name string
		args []string
	}{
		{"missing from", []string{"transfer", alice, "1"}},
		{"bad address", []string{"transfer", "nope", "1", "--from", admin}},
		{"bad amount", []string{"transfer", alice, "1.000000001", "--from", admin}},
		{"collect without targets", []string{"collect", "--from", admin}},
		{"conflicting approve flags", []string{"approve", alice, "1", "--increase", "--decrease", "--from", admin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.exec(t0, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApproveMax(t *testing.T) {
	f := newLedgerFile(t)
	f.must(t0, "init", "--from", admin)

	f.must(t0, "approve", bob, "max", "--from", alice)
	out := f.must(t0, "allowance", alice, bob)
	// 2^256-1 base units at 8 decimals.
	if !strings.HasPrefix(out, "1157920892373161954235709850086879078532699846656405640394575840079131.29639935") {
		t.Errorf("Got %q", out)
	}
}
