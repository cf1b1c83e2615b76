package demurrage

import (
	"errors"
	"fmt"

	"github.com/xraph/demurrage/fee"
)

// Sentinel errors for common failure scenarios.
var (
	// Access errors
	ErrNotOwner  = errors.New("demurrage: caller is not the owner")
	ErrNotMinter = errors.New("demurrage: caller is not the minter")

	// Configuration errors
	ErrInvalidMinter       = errors.New("demurrage: invalid minter address")
	ErrInvalidFeeCollector = errors.New("demurrage: invalid fee collector address")
	ErrInvalidOracle       = errors.New("demurrage: invalid oracle address")
	ErrInvalidOwner        = errors.New("demurrage: invalid owner address")
	ErrInvalidDecimals     = errors.New("demurrage: invalid decimals")
	ErrNotInitialized      = errors.New("demurrage: token not initialized")
	ErrAlreadyInitialized  = errors.New("demurrage: token already initialized")

	// Fee policy errors
	ErrMaxFeeExceeded       = fee.ErrMaxFeeExceeded
	ErrFeeChangeTooSoon     = fee.ErrFeeChangeTooSoon
	ErrFeeNotReduced        = fee.ErrFeeNotReduced
	ErrMintingLimitExceeded = fee.ErrMintingLimitExceeded
	ErrOracleUnavailable    = errors.New("demurrage: oracle unavailable")

	// Balance and allowance errors
	ErrZeroAmount            = errors.New("demurrage: transfer amount must be greater than 0")
	ErrInsufficientBalance   = errors.New("demurrage: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("demurrage: insufficient allowance")
	ErrAllowanceBelowZero    = errors.New("demurrage: decreased allowance below zero")
	ErrAllowanceOverflow     = errors.New("demurrage: allowance overflow")
	ErrInvalidReceiver       = errors.New("demurrage: invalid receiver")
	ErrInvalidSpender        = errors.New("demurrage: invalid spender")
	ErrSupplyOverflow        = errors.New("demurrage: total supply overflow")

	// Call errors
	ErrInvalidTimestamp     = errors.New("demurrage: invalid timestamp")
	ErrUnsupportedOperation = errors.New("demurrage: operation not supported by logic version")
	ErrInvalidVersion       = errors.New("demurrage: invalid logic version")

	// Store errors
	ErrAccountNotFound   = errors.New("demurrage: account not found")
	ErrAllowanceNotFound = errors.New("demurrage: allowance not found")
	ErrStoreClosed       = errors.New("demurrage: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("demurrage: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "demurrage: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("demurrage: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAllowanceNotFound) ||
		errors.Is(err, ErrNotInitialized)
}

// IsAccessError returns true if the caller lacked the required role.
func IsAccessError(err error) bool {
	return errors.Is(err, ErrNotOwner) || errors.Is(err, ErrNotMinter)
}

// IsPolicyError returns true if the error comes from the fee or mint policy.
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrMaxFeeExceeded) ||
		errors.Is(err, ErrFeeChangeTooSoon) ||
		errors.Is(err, ErrFeeNotReduced) ||
		errors.Is(err, ErrMintingLimitExceeded)
}
