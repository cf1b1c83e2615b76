package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the demurrage store (SQLite).
var Migrations = migrate.NewGroup("demurrage")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_demurrage_token",
			Version: "20250101000001",
			Comment: "singleton token configuration",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_token (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    name                 TEXT NOT NULL,
    symbol               TEXT NOT NULL,
    decimals             INTEGER NOT NULL,
    total_supply         TEXT NOT NULL DEFAULT '0',
    owner                TEXT NOT NULL,

    -- Fee schedule
    fee_rate             TEXT NOT NULL DEFAULT '0',
    max_fee              TEXT NOT NULL DEFAULT '0',
    last_fee_change      INTEGER NOT NULL DEFAULT 0,
    fee_change_min_delay INTEGER NOT NULL DEFAULT 0,
    fee_year             INTEGER NOT NULL DEFAULT 0,

    -- Roles
    fee_collector        TEXT NOT NULL,
    minter               TEXT NOT NULL,
    oracle               TEXT NOT NULL DEFAULT '',

    version              INTEGER NOT NULL DEFAULT 1,
    forgiveness          INTEGER NOT NULL DEFAULT 0,
    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_token`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_demurrage_accounts",
			Version: "20250101000002",
			Comment: "holder balances and fee checkpoints",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_accounts (
    address         TEXT PRIMARY KEY,
    nominal_balance TEXT NOT NULL DEFAULT '0',
    fee_last_paid   INTEGER NOT NULL DEFAULT 0,
    exempt          INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_demurrage_accounts_exempt ON demurrage_accounts (exempt);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_demurrage_allowances",
			Version: "20250101000003",
			Comment: "spending approvals",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS demurrage_allowances (
    owner      TEXT NOT NULL,
    spender    TEXT NOT NULL,
    amount     TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    PRIMARY KEY (owner, spender)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS demurrage_allowances`)
				return err
			},
		},
	)
}
