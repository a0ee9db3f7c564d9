package worker

import (
	"context"
	"log/slog"
	"time"

	"referral-earn-bot/internal/metrics"
)

// Counter is implemented by the account stores.
type Counter interface {
	CountAccounts(ctx context.Context) (total, verified int64, err error)
}

// StatsCollector periodically refreshes the account gauges.
type StatsCollector struct {
	counter  Counter
	interval time.Duration
}

func NewStatsCollector(counter Counter, interval time.Duration) *StatsCollector {
	return &StatsCollector{counter: counter, interval: interval}
}

// Start collects once immediately and then on every tick until ctx is done.
func (c *StatsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	slog.Info("Background stats worker started", "interval", c.interval)

	c.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Background stats worker stopped")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *StatsCollector) collect(ctx context.Context) {
	total, verified, err := c.counter.CountAccounts(ctx)
	if err != nil {
		slog.Error("Failed to count accounts", "error", err)
		return
	}
	metrics.AccountsTotal.Set(float64(total))
	metrics.AccountsVerified.Set(float64(verified))
}
