package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/models"
)

var accountUpsert = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	DoUpdates: clause.AssignmentColumns([]string{"balance", "referral_count", "referred_by", "joined_channel", "updated_at"}),
}

// AccountStore persists accounts in PostgreSQL through gorm.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Load(ctx context.Context, id int64) (*models.Account, error) {
	return loadAccount(s.db.WithContext(ctx), id)
}

func (s *AccountStore) Save(ctx context.Context, account *models.Account) error {
	return saveAccount(s.db.WithContext(ctx), account)
}

func (s *AccountStore) Update(ctx context.Context, fn func(tx ledger.StoreTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *AccountStore) CountAccounts(ctx context.Context) (total, verified int64, err error) {
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Account{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	if err := db.Model(&models.Account{}).Where("joined_channel = ?", true).Count(&verified).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count verified accounts: %w", err)
	}
	return total, verified, nil
}

func (s *AccountStore) Entries(ctx context.Context, accountID int64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type gormTx struct {
	db *gorm.DB
}

// Load takes a row lock so concurrent transactions on the same account queue up.
func (tx *gormTx) Load(_ context.Context, id int64) (*models.Account, error) {
	return loadAccount(tx.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (tx *gormTx) Save(_ context.Context, account *models.Account) error {
	return saveAccount(tx.db, account)
}

func (tx *gormTx) AppendEntry(_ context.Context, entry models.LedgerEntry) error {
	if err := tx.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func loadAccount(db *gorm.DB, id int64) (*models.Account, error) {
	var acc models.Account
	err := db.Where("id = ?", id).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &acc, nil
}

func saveAccount(db *gorm.DB, account *models.Account) error {
	if err := db.Clauses(accountUpsert).Create(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
