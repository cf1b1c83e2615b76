// Package sqlite implements store.Store on SQLite via the grove ORM and its
// pure-Go sqlitedriver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // register sqlite executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/store/internal/rows"
	"github.com/xraph/demurrage/token"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open opens (or creates) the SQLite database at path. Call Migrate (or
// Ledger.Start) before use.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("demurrage/sqlite: create db dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	return open(dsn)
}

// OpenMemory opens a private in-memory database, mainly for tests.
func OpenMemory() (*Store, error) {
	// Every connection to :memory: is a separate database.
	return open(":memory:", driver.WithPoolSize(1))
}

func open(dsn string, opts ...driver.Option) (*Store, error) {
	sdb := sqlitedriver.New()
	if err := sdb.Open(context.Background(), dsn, opts...); err != nil {
		return nil, fmt.Errorf("demurrage/sqlite: open: %w", err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		sdb.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("demurrage/sqlite: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

func (s *Store) orchestrator() (*migrate.Orchestrator, error) {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return nil, fmt.Errorf("demurrage/sqlite: create migration executor: %w", err)
	}
	return migrate.NewOrchestrator(executor, Migrations), nil
}

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	orch, err := s.orchestrator()
	if err != nil {
		return err
	}
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("demurrage/sqlite: migration failed: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending migrations.
func (s *Store) MigrationStatus(ctx context.Context) ([]*migrate.GroupStatus, error) {
	orch, err := s.orchestrator()
	if err != nil {
		return nil, err
	}
	return orch.Status(ctx)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr common.Address) (*account.Account, error) {
	m := new(rows.Account)
	err := s.sdb.NewSelect(m).
		Where("address = ?", ledgerstore.FormatAddress(addr)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, demurrage.ErrAccountNotFound
		}
		return nil, err
	}
	return m.Record()
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []rows.Account
	q := s.sdb.NewSelect(&models)

	if opts.ExemptOnly {
		q = q.Where("exempt = 1")
	}
	if opts.NonEmpty {
		q = q.Where("nominal_balance <> '0'")
	}
	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Offset > 0:
		// SQLite only accepts OFFSET after LIMIT.
		q = q.Limit(math.MaxInt32)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows.Accounts(models)
}

// ==================== Allowance Store ====================

func (s *Store) GetAllowance(ctx context.Context, owner, spender common.Address) (*allowance.Allowance, error) {
	m := new(rows.Allowance)
	err := s.sdb.NewSelect(m).
		Where("owner = ?", ledgerstore.FormatAddress(owner)).
		Where("spender = ?", ledgerstore.FormatAddress(spender)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, demurrage.ErrAllowanceNotFound
		}
		return nil, err
	}
	return m.Record()
}

func (s *Store) ListAllowances(ctx context.Context, owner common.Address) ([]*allowance.Allowance, error) {
	var models []rows.Allowance
	err := s.sdb.NewSelect(&models).
		Where("owner = ?", ledgerstore.FormatAddress(owner)).
		OrderExpr("spender ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows.Allowances(models)
}

// ==================== Token Store ====================

func (s *Store) GetToken(ctx context.Context) (*token.Token, error) {
	m := new(rows.Token)
	err := s.sdb.NewSelect(m).
		Where("id = ?", rows.TokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, demurrage.ErrNotInitialized
		}
		return nil, err
	}
	return m.Record()
}

// ==================== Commit ====================

// Commit upserts the batch inside a single grove transaction.
func (s *Store) Commit(ctx context.Context, b *ledgerstore.Batch) (err error) {
	if b.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("demurrage/sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // already failing
		}
	}()

	dtx, ok := tx.Raw().(driver.Tx)
	if !ok {
		return fmt.Errorf("demurrage/sqlite: unexpected transaction type %T", tx.Raw())
	}
	upsert := func(q *sqlitedriver.InsertQuery, conflict string, updates []string) error {
		q = q.OnConflict(conflict)
		for _, set := range updates {
			q = q.Set(set)
		}
		query, args, err := q.Build()
		if err != nil {
			return err
		}
		_, err = dtx.Exec(ctx, query, args...)
		return err
	}

	if b.Token != nil {
		m, err := rows.FromToken(b.Token)
		if err != nil {
			return err
		}
		if err := upsert(s.sdb.NewInsert(m), rows.TokenConflict, rows.TokenUpdates); err != nil {
			return fmt.Errorf("demurrage/sqlite: upsert token: %w", err)
		}
	}

	for _, a := range b.Accounts {
		m, err := rows.FromAccount(a)
		if err != nil {
			return err
		}
		if err := upsert(s.sdb.NewInsert(m), rows.AccountConflict, rows.AccountUpdates); err != nil {
			return fmt.Errorf("demurrage/sqlite: upsert account %s: %w", m.Address, err)
		}
	}

	for _, a := range b.Allowances {
		m, err := rows.FromAllowance(a)
		if err != nil {
			return err
		}
		if err := upsert(s.sdb.NewInsert(m), rows.AllowanceConflict, rows.AllowanceUpdates); err != nil {
			return fmt.Errorf("demurrage/sqlite: upsert allowance %s/%s: %w", m.Owner, m.Spender, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("demurrage/sqlite: commit: %w", err)
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, grove.ErrNoRows)
}
