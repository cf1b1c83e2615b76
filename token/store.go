package token

import "context"

// Store reads the configuration record. It returns an error wrapping the
// ledger's not-initialized sentinel until genesis has been committed.
type Store interface {
	GetToken(ctx context.Context) (*Token, error)
}
