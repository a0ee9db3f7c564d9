package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-earn-bot/internal/config"
	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/models"
)

// Mongo tests need a replica set for transactions, so they only run against
// a server named in MONGO_TEST_URI.
func newMongoTestStore(t *testing.T) *MongoAccountStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if testing.Short() || uri == "" {
		t.Skip("Skipping mongo test: MONGO_TEST_URI not set")
	}

	dbName := fmt.Sprintf("referral_bot_test_%d", time.Now().UnixNano())
	client, err := ConnectMongo(&config.Config{MongoURI: uri, MongoDatabase: dbName})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	store := NewMongoAccountStore(client, dbName)
	require.NoError(t, store.EnsureIndexes(context.Background()))
	return store
}

func TestMongoAccountStore_SaveLoad(t *testing.T) {
	store := newMongoTestStore(t)
	ctx := context.Background()

	acc, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, acc)

	require.NoError(t, store.Save(ctx, &models.Account{ID: 1, Balance: 7}))
	acc, err = store.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, int64(7), acc.Balance)
	assert.Nil(t, acc.ReferredBy)
}

func TestMongoAccountStore_LedgerFlow(t *testing.T) {
	store := newMongoTestStore(t)
	svc := ledger.New(store)
	ctx := context.Background()

	referrer, err := svc.RegisterReferral(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), referrer.Balance)

	invited, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, invited.ReferredBy)
	assert.Equal(t, int64(2), *invited.ReferredBy)

	entries, err := store.Entries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].Amount)

	total, _, err := store.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
