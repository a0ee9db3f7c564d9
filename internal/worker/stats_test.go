package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/metrics"
)

type countingCounter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCounter) CountAccounts(context.Context) (int64, int64, error) {
	c.calls.Add(1)
	return 7, 3, c.err
}

func TestStatsCollector_CollectSetsGauges(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	svc := ledger.New(store)

	_, err := svc.RecordMembership(ctx, 1, true)
	require.NoError(t, err)
	_, err = svc.GetOrCreate(ctx, 2)
	require.NoError(t, err)

	NewStatsCollector(store, time.Minute).collect(ctx)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.AccountsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AccountsVerified))
}

func TestStatsCollector_ErrorKeepsPreviousValues(t *testing.T) {
	ctx := context.Background()
	metrics.AccountsTotal.Set(42)

	NewStatsCollector(&countingCounter{err: assert.AnError}, time.Minute).collect(ctx)

	assert.Equal(t, float64(42), testutil.ToFloat64(metrics.AccountsTotal))
}

func TestStatsCollector_StartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	counter := &countingCounter{}
	done := make(chan struct{})

	go func() {
		NewStatsCollector(counter, 10*time.Millisecond).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return counter.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after cancel")
	}
}
