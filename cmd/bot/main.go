package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"

	"referral-earn-bot/internal/bot"
	"referral-earn-bot/internal/config"
	"referral-earn-bot/internal/cooldown"
	"referral-earn-bot/internal/database"
	"referral-earn-bot/internal/ledger"
	"referral-earn-bot/internal/logger"
	"referral-earn-bot/internal/membership"
	"referral-earn-bot/internal/server"
	"referral-earn-bot/internal/utils"
	"referral-earn-bot/internal/worker"
)

const serviceName = "referral-earn-bot"

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Setup(os.Stdout, logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rules := ledger.Rules{
		ReferralBonus:     cfg.ReferralBonus,
		MinimumWithdrawal: cfg.MinimumWithdrawal,
		RewardMin:         cfg.RewardMin,
		RewardMax:         cfg.RewardMax,
	}
	if err := rules.Validate(); err != nil {
		return err
	}
	svc := ledger.New(store, ledger.WithRules(rules))

	checks := map[string]server.Pinger{}
	if p, ok := store.(server.Pinger); ok {
		checks["store"] = p
	}

	// Connect to Redis
	var rdb *redis.Client
	if cfg.UseRedis() {
		rdb, err = database.ConnectRedis(cfg)
		if err != nil {
			return fmt.Errorf("could not connect to redis: %w", err)
		}
		defer rdb.Close()
		checks["redis"] = server.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	spins := cooldown.New(rdb, "spin", cfg.SpinCooldown)

	tg, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("could not create telegram client: %w", err)
	}
	me, err := tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch bot identity: %w", err)
	}

	var checker membership.Checker = membership.AlwaysMember{}
	if channel := membership.ChannelFromLink(cfg.JoinChannelLink); channel != "" {
		checker = membership.NewTelegramChecker(tg, channel)
	} else {
		slog.Warn("No join channel configured, membership gate disabled", "link", cfg.JoinChannelLink)
	}

	updates, webhook, err := subscribe(ctx, tg, cfg)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.Port, checks, webhook)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	if counter, ok := store.(worker.Counter); ok {
		go worker.NewStatsCollector(counter, cfg.StatsInterval).Start(ctx)
	}

	b := bot.NewBot(tg, svc, checker, spins, bot.Settings{
		Username:    me.Username,
		ChannelLink: cfg.JoinChannelLink,
		IsAdmin:     cfg.IsAdmin,
	})
	botErr := make(chan error, 1)
	go func() {
		botErr <- b.Start(ctx, tg, updates)
	}()

	slog.Info("Service started successfully", "bot", me.Username, "webhook", cfg.UseWebhook(), "store", cfg.StoreBackend)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-botErr:
		if err != nil {
			runErr = fmt.Errorf("bot handler: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	return runErr
}

// subscribe starts receiving updates. In webhook mode it also returns the
// route to mount on the HTTP server.
func subscribe(ctx context.Context, tg *telego.Bot, cfg *config.Config) (<-chan telego.Update, *server.Webhook, error) {
	if !cfg.UseWebhook() {
		if err := tg.DeleteWebhook(ctx, nil); err != nil {
			slog.Warn("Failed to delete webhook before polling", "error", err)
		}
		updates, err := tg.UpdatesViaLongPolling(ctx, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("could not start long polling: %w", err)
		}
		return updates, nil, nil
	}

	allow, err := utils.NewAllowList(cfg.AllowedWebhookIPs)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	updates, err := tg.UpdatesViaWebhook(ctx, telego.WebhookHTTPServeMux(mux, "POST "+cfg.WebhookPath, cfg.WebhookSecret))
	if err != nil {
		return nil, nil, fmt.Errorf("could not start webhook: %w", err)
	}

	err = tg.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:         cfg.WebhookEndpoint(),
		SecretToken: cfg.WebhookSecret,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not register webhook: %w", err)
	}

	return updates, &server.Webhook{Path: cfg.WebhookPath, Handler: mux, AllowList: allow}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, func(), error) {
	var (
		store   ledger.Store
		closeFn = func() {}
	)

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		// Connect to Database
		db, err := database.ConnectPostgres(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to database: %w", err)
		}
		store = database.NewAccountStore(db)
		closeFn = func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	case config.StoreBackendMongo:
		client, err := database.ConnectMongo(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to mongo: %w", err)
		}
		ms := database.NewMongoAccountStore(client, cfg.MongoDatabase)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("could not create mongo indexes: %w", err)
		}
		store = ms
		closeFn = func() { _ = client.Disconnect(context.Background()) }
	default:
		slog.Warn("Using in-memory store, balances are lost on restart")
		return ledger.NewMemoryStore(), closeFn, nil
	}

	if cfg.CacheSize > 0 {
		store = database.NewCachedStore(store, cfg.CacheSize, cfg.CacheTTL)
	}
	return store, closeFn, nil
}
