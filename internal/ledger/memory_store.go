package ledger

import (
	"context"
	"sync"
	"time"

	"referral-earn-bot/internal/models"
)

// MemoryStore keeps accounts in process memory. It backs tests and the
// "memory" store backend; contents are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	entries  []models.LedgerEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*models.Account),
	}
}

func (s *MemoryStore) Load(_ context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(account)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, staged: make(map[int64]*models.Account)}
	if err := fn(tx); err != nil {
		return err
	}

	for _, acc := range tx.staged {
		s.put(acc)
	}
	s.entries = append(s.entries, tx.entries...)
	return nil
}

// Entries returns the audit entries recorded for id, oldest first.
func (s *MemoryStore) Entries(id int64) []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.LedgerEntry
	for _, e := range s.entries {
		if e.AccountID == id {
			out = append(out, e)
		}
	}
	return out
}

func (s *MemoryStore) CountAccounts(_ context.Context) (total, verified int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		total++
		if acc.JoinedChannel {
			verified++
		}
	}
	return total, verified, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// put stores a copy of account; caller holds s.mu.
func (s *MemoryStore) put(account *models.Account) {
	now := time.Now().UTC()
	c := account.Clone()
	if existing, ok := s.accounts[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.accounts[c.ID] = c
}

type memoryTx struct {
	store   *MemoryStore
	staged  map[int64]*models.Account
	entries []models.LedgerEntry
}

func (tx *memoryTx) Load(_ context.Context, id int64) (*models.Account, error) {
	if acc, ok := tx.staged[id]; ok {
		return acc.Clone(), nil
	}
	return tx.store.accounts[id].Clone(), nil
}

func (tx *memoryTx) Save(_ context.Context, account *models.Account) error {
	tx.staged[account.ID] = account.Clone()
	return nil
}

func (tx *memoryTx) AppendEntry(_ context.Context, entry models.LedgerEntry) error {
	tx.entries = append(tx.entries, entry)
	return nil
}
