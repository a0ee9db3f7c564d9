package ledger

import (
	"context"

	"referral-earn-bot/internal/models"
)

// Store is the durable keyed storage the Ledger reads and writes accounts
// through.
type Store interface {
	// Load returns (nil, nil) when no account exists for id.
	Load(ctx context.Context, id int64) (*models.Account, error)
	// Save upserts the whole record.
	Save(ctx context.Context, account *models.Account) error
	// Update runs fn inside a transaction. Writes made through tx are
	// applied together when fn returns nil and discarded otherwise.
	Update(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the view of the store inside Update.
type StoreTx interface {
	Load(ctx context.Context, id int64) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
	AppendEntry(ctx context.Context, entry models.LedgerEntry) error
}
