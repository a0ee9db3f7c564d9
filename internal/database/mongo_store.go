package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/models"
)

const (
	accountsCollection      = "accounts"
	ledgerEntriesCollection = "ledger_entries"
)

// MongoAccountStore persists accounts as documents keyed by Telegram id.
// Update needs a replica set, since it runs inside a multi-document
// transaction.
type MongoAccountStore struct {
	client   *mongo.Client
	accounts *mongo.Collection
	entries  *mongo.Collection
}

func NewMongoAccountStore(client *mongo.Client, database string) *MongoAccountStore {
	db := client.Database(database)
	return &MongoAccountStore{
		client:   client,
		accounts: db.Collection(accountsCollection),
		entries:  db.Collection(ledgerEntriesCollection),
	}
}

// EnsureIndexes creates the secondary indexes the store queries by.
func (s *MongoAccountStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger entry index: %w", err)
	}
	_, err = s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "joined_channel", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create account index: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) Load(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &acc, nil
}

func (s *MongoAccountStore) Save(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := s.accounts.ReplaceOne(ctx, bson.M{"_id": account.ID}, account, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) Update(ctx context.Context, fn func(tx ledger.StoreTx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&mongoTx{store: s, sc: sc})
	})
	return err
}

func (s *MongoAccountStore) CountAccounts(ctx context.Context) (total, verified int64, err error) {
	total, err = s.accounts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	verified, err = s.accounts.CountDocuments(ctx, bson.M{"joined_channel": true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count verified accounts: %w", err)
	}
	return total, verified, nil
}

func (s *MongoAccountStore) Entries(ctx context.Context, accountID int64) ([]models.LedgerEntry, error) {
	cursor, err := s.entries.Find(ctx, bson.M{"account_id": accountID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

func (s *MongoAccountStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// mongoTx routes every call through the session context so reads and writes
// join the transaction.
type mongoTx struct {
	store *MongoAccountStore
	sc    mongo.SessionContext
}

func (tx *mongoTx) Load(_ context.Context, id int64) (*models.Account, error) {
	return tx.store.Load(tx.sc, id)
}

func (tx *mongoTx) Save(_ context.Context, account *models.Account) error {
	return tx.store.Save(tx.sc, account)
}

func (tx *mongoTx) AppendEntry(_ context.Context, entry models.LedgerEntry) error {
	if _, err := tx.store.entries.InsertOne(tx.sc, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}
