package demurrage

import (
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	"github.com/xraph/demurrage/fee"
	"github.com/xraph/demurrage/token"
	"github.com/xraph/demurrage/types"
)

// Re-export common types for convenience so users don't have to import the
// model packages.

// Account is re-exported from the account package.
type Account = account.Account

// ListOpts is re-exported from the account package.
type ListOpts = account.ListOpts

// Allowance is re-exported from the allowance package.
type Allowance = allowance.Allowance

// TokenConfig is re-exported from the token package.
type TokenConfig = token.Token

// Schedule is re-exported from the fee package.
type Schedule = fee.Schedule

// Re-export unit helpers.
var (
	ParseUnits     = types.ParseUnits
	MustParseUnits = types.MustParseUnits
	FormatUnits    = types.FormatUnits
)
