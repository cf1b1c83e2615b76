// Package mongo implements store.Store on MongoDB via the grove ORM and its
// mongodriver. Commit uses a multi-document transaction, so the deployment
// must be a replica set or a sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/allowance"
	ledgerstore "github.com/xraph/demurrage/store"
	"github.com/xraph/demurrage/token"
)

// Collection name constants.
const (
	colToken      = "demurrage_token"
	colAccounts   = "demurrage_accounts"
	colAllowances = "demurrage_allowances"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	mdb := mongodriver.New()
	if err := mdb.Open(ctx, uri, mongodriver.WithDatabase(database)); err != nil {
		return nil, fmt.Errorf("demurrage/mongo: connect: %w", err)
	}
	db, err := grove.Open(mdb)
	if err != nil {
		mdb.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("demurrage/mongo: connect: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("demurrage/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
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
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ledgerstore.FormatAddress(addr)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, demurrage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("demurrage/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	filter := bson.M{}
	if opts.ExemptOnly {
		filter["exempt"] = true
	}
	if opts.NonEmpty {
		filter["nominal_balance"] = bson.M{"$ne": "0"}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("demurrage/mongo: list accounts: %w", err)
	}

	result := make([]*account.Account, 0, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

// ==================== Allowance Store ====================

func (s *Store) GetAllowance(ctx context.Context, owner, spender common.Address) (*allowance.Allowance, error) {
	var m allowanceModel
	docID := allowanceDocID(ledgerstore.FormatAddress(owner), ledgerstore.FormatAddress(spender))
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": docID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, demurrage.ErrAllowanceNotFound
		}
		return nil, fmt.Errorf("demurrage/mongo: get allowance: %w", err)
	}
	return fromAllowanceModel(&m)
}

func (s *Store) ListAllowances(ctx context.Context, owner common.Address) ([]*allowance.Allowance, error) {
	var models []allowanceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner": ledgerstore.FormatAddress(owner)}).
		Sort(bson.D{{Key: "spender", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("demurrage/mongo: list allowances: %w", err)
	}

	result := make([]*allowance.Allowance, 0, len(models))
	for i := range models {
		a, err := fromAllowanceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

// ==================== Token Store ====================

func (s *Store) GetToken(ctx context.Context) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, demurrage.ErrNotInitialized
		}
		return nil, fmt.Errorf("demurrage/mongo: get token: %w", err)
	}
	return fromTokenModel(&m)
}

// ==================== Commit ====================

// Commit replaces every document in the batch inside one grove transaction.
func (s *Store) Commit(ctx context.Context, b *ledgerstore.Batch) error {
	if b.IsEmpty() {
		return nil
	}

	type write struct {
		col string
		id  string
		doc any
	}
	var writes []write

	if b.Token != nil {
		m, err := toTokenModel(b.Token)
		if err != nil {
			return err
		}
		writes = append(writes, write{colToken, m.ID, m})
	}
	for _, a := range b.Accounts {
		m, err := toAccountModel(a)
		if err != nil {
			return err
		}
		writes = append(writes, write{colAccounts, m.Address, m})
	}
	for _, a := range b.Allowances {
		m, err := toAllowanceModel(a)
		if err != nil {
			return err
		}
		writes = append(writes, write{colAllowances, m.ID, m})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("demurrage/mongo: begin: %w", err)
	}
	mtx, ok := tx.Raw().(*mongodriver.MongoTx)
	if !ok {
		tx.Rollback() //nolint:errcheck // already failing
		return fmt.Errorf("demurrage/mongo: unexpected transaction type %T", tx.Raw())
	}

	sctx := mtx.SessionContext(ctx)
	upsert := options.Replace().SetUpsert(true)
	for _, w := range writes {
		if _, err := s.mdb.Collection(w.col).ReplaceOne(sctx, bson.M{"_id": w.id}, w.doc, upsert); err != nil {
			tx.Rollback() //nolint:errcheck // already failing
			return fmt.Errorf("demurrage/mongo: replace %s %s: %w", w.col, w.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("demurrage/mongo: commit: %w", err)
	}
	return nil
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "exempt", Value: 1}}},
		},
		colAllowances: {
			{
				Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "spender", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
