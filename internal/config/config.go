package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMongo    = "mongo"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Environment string
	Version     string
	LogLevel    string `validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	LogFormat   string `validate:"oneof=text json"`

	BotToken        string `validate:"required"`
	JoinChannelLink string
	AdminIDs        []int64

	ReferralBonus     int64 `validate:"gte=0"`
	MinimumWithdrawal int64 `validate:"gt=0"`
	RewardMin         int64 `validate:"gte=0"`
	RewardMax         int64 `validate:"gtefield=RewardMin"`
	SpinCooldown      time.Duration

	StoreBackend string `validate:"oneof=postgres mongo memory"`
	DBUser       string
	DBPassword   string
	DBName       string
	DBHost       string
	DBPort       string

	MongoURI      string `validate:"required_if=StoreBackend mongo"`
	MongoDatabase string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	CacheSize     int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gte=0"`
	StatsInterval time.Duration `validate:"gt=0"`

	Port              string `validate:"required"`
	WebhookURL        string `validate:"omitempty,url"`
	WebhookPath       string `validate:"startswith=/"`
	WebhookSecret     string
	AllowedWebhookIPs []string `validate:"dive,cidr"`
}

// LoadConfig reads the environment (and an optional .env file) and validates
// the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	var errs []error
	intVar := func(key string, fallback int64) int64 {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	adminIDs, err := parseIDList(getEnv("ADMIN_IDS", ""))
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "dev"),
		Version:     getEnv("VERSION", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		JoinChannelLink: getEnv("JOIN_CHANNEL_LINK", ""),
		AdminIDs:        adminIDs,

		ReferralBonus:     intVar("REFERRAL_BONUS", 5),
		MinimumWithdrawal: intVar("MINIMUM_WITHDRAWAL", 50),
		RewardMin:         intVar("REWARD_MIN", 1),
		RewardMax:         intVar("REWARD_MAX", 10),
		SpinCooldown:      durationVar("SPIN_COOLDOWN", 24*time.Hour),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBName:       getEnv("DB_NAME", "referral_bot"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),

		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "referral_bot"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CacheSize:     int(intVar("CACHE_SIZE", 1024)),
		CacheTTL:      durationVar("CACHE_TTL", time.Minute),
		StatsInterval: durationVar("STATS_INTERVAL", time.Minute),

		Port:          getEnv("PORT", "8080"),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookPath:   getEnv("WEBHOOK_PATH", "/telegram/webhook"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		AllowedWebhookIPs: splitList(getEnv("ALLOWED_WEBHOOK_IPS",
			"149.154.160.0/20,91.108.4.0/22")),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// UseWebhook reports whether updates arrive via webhook instead of long polling.
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

// WebhookEndpoint is the public URL registered with Telegram.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimSuffix(c.WebhookURL, "/") + c.WebhookPath
}

// UseRedis reports whether a Redis server is configured.
func (c *Config) UseRedis() bool {
	return c.RedisHost != ""
}

// IsAdmin reports whether the Telegram user may issue operator commands.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// PostgresDSN returns the gorm/pgx key-value connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
