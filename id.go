package demurrage

import "github.com/xraph/demurrage/id"

// ID identifies a ledger event.
type ID = id.ID

// Prefix identifies the event kind encoded in a TypeID.
type Prefix = id.Prefix
