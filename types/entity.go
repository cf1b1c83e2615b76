// Package types provides common types used across the token ledger.
package types

// Entity carries the ledger timestamps of a persisted record. Timestamps are
// ledger time in seconds as supplied by the caller of an operation, never
// the wall clock.
type Entity struct {
	CreatedAt uint64 `json:"created_at" bson:"created_at"`
	UpdatedAt uint64 `json:"updated_at" bson:"updated_at"`
}

// NewEntity creates an Entity stamped at the given ledger time.
func NewEntity(at uint64) Entity {
	return Entity{
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Touch records a modification at the given ledger time.
func (e *Entity) Touch(at uint64) {
	if e.CreatedAt == 0 {
		e.CreatedAt = at
	}
	e.UpdatedAt = at
}

// Age returns how many seconds before now the entity was created.
func (e Entity) Age(now uint64) uint64 {
	if now < e.CreatedAt {
		return 0
	}
	return now - e.CreatedAt
}
