package database

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/models"
)

var ErrCountUnsupported = errors.New("store does not support counting accounts")

// CachedStore puts an expiring LRU in front of another store. Reads are
// served from the cache, plain saves write through, and transactional
// updates evict every account they touched once committed.
type CachedStore struct {
	inner ledger.Store
	lru   *expirable.LRU[int64, *models.Account]
}

func NewCachedStore(inner ledger.Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		lru:   expirable.NewLRU[int64, *models.Account](size, nil, ttl),
	}
}

func (c *CachedStore) Load(ctx context.Context, id int64) (*models.Account, error) {
	if acc, ok := c.lru.Get(id); ok {
		return acc.Clone(), nil
	}

	acc, err := c.inner.Load(ctx, id)
	if err != nil || acc == nil {
		return acc, err
	}
	c.lru.Add(id, acc.Clone())
	return acc, nil
}

func (c *CachedStore) Save(ctx context.Context, account *models.Account) error {
	if err := c.inner.Save(ctx, account); err != nil {
		c.lru.Remove(account.ID)
		return err
	}
	c.lru.Add(account.ID, account.Clone())
	return nil
}

func (c *CachedStore) Update(ctx context.Context, fn func(tx ledger.StoreTx) error) error {
	var touched []int64
	err := c.inner.Update(ctx, func(tx ledger.StoreTx) error {
		return fn(&trackingTx{StoreTx: tx, touched: &touched})
	})
	for _, id := range touched {
		c.lru.Remove(id)
	}
	return err
}

// Len reports how many accounts are cached.
func (c *CachedStore) Len() int {
	return c.lru.Len()
}

func (c *CachedStore) CountAccounts(ctx context.Context) (int64, int64, error) {
	counter, ok := c.inner.(interface {
		CountAccounts(ctx context.Context) (int64, int64, error)
	})
	if !ok {
		return 0, 0, ErrCountUnsupported
	}
	return counter.CountAccounts(ctx)
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(ctx context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

type trackingTx struct {
	ledger.StoreTx
	touched *[]int64
}

func (t *trackingTx) Save(ctx context.Context, account *models.Account) error {
	*t.touched = append(*t.touched, account.ID)
	return t.StoreTx.Save(ctx, account)
}
