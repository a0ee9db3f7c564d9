package models

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryReferralBonus EntryKind = "referral_bonus"
	EntrySpinReward    EntryKind = "spin_reward"
	EntryWithdrawal    EntryKind = "withdrawal"
	EntryManualGrant   EntryKind = "manual_grant"
)

// LedgerEntry is an audit row for a single balance change. Amount is signed:
// credits are positive, debits negative.
type LedgerEntry struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" bson:"_id"`
	AccountID        int64     `gorm:"not null;index" bson:"account_id"`
	Kind             EntryKind `gorm:"size:32;not null" bson:"kind"`
	Amount           int64     `gorm:"not null" bson:"amount"`
	BalanceAfter     int64     `gorm:"not null" bson:"balance_after"`
	RelatedAccountID *int64    `bson:"related_account_id,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
}

func NewLedgerEntry(account *Account, kind EntryKind, amount int64, related *int64) LedgerEntry {
	return LedgerEntry{
		ID:               uuid.New(),
		AccountID:        account.ID,
		Kind:             kind,
		Amount:           amount,
		BalanceAfter:     account.Balance,
		RelatedAccountID: related,
		CreatedAt:        time.Now().UTC(),
	}
}
