package models

import (
	"time"
)

type Account struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false" bson:"_id"`
	Balance       int64     `gorm:"not null;default:0" bson:"balance"`
	ReferralCount int64     `gorm:"not null;default:0" bson:"referral_count"`
	ReferredBy    *int64    `gorm:"index" bson:"referred_by,omitempty"`
	JoinedChannel bool      `gorm:"not null;default:false" bson:"joined_channel"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// NewAccount returns the default record for a user seen for the first time.
func NewAccount(id int64) *Account {
	return &Account{ID: id}
}

// Clone returns a deep copy, so callers can mutate it without touching shared state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.ReferredBy != nil {
		ref := *a.ReferredBy
		c.ReferredBy = &ref
	}
	return &c
}
