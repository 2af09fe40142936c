package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort  string `env:"HTTP_PORT" env-default:"8080"`
	PublicURL string `env:"PUBLIC_URL" env-default:"http://localhost:8080"`

	DBHost       string `env:"DB_HOST" env-default:"localhost"`
	DBPort       string `env:"DB_PORT" env-default:"5432"`
	DBUser       string `env:"DB_USER" env-default:"postgres"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBName       string `env:"DB_NAME" env-default:"tradeflow"`
	DBSslMode    string `env:"DB_SSLMODE" env-default:"disable"`
	DBMigrations bool   `env:"DB_MIGRATIONS" env-default:"true"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	PaymentProvider      string `env:"PAYMENT_PROVIDER" env-default:"mock"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
	WorldFirstPartnerID  string `env:"WORLDFIRST_PARTNER_ID"`

	KafkaBrokers          []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaOrderEventsTopic string   `env:"KAFKA_ORDER_EVENTS_TOPIC" env-default:"order.lifecycle"`

	AuditRetentionDays int    `env:"AUDIT_RETENTION_DAYS" env-default:"90"`
	AuditPruneSchedule string `env:"AUDIT_PRUNE_SCHEDULE" env-default:"0 0 3 * * *"`
}

// LoadConfig reads the process environment after loading envFile into it.
// A missing envFile is not an error; variables already set win over it.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// AuditRetention is zero when pruning is disabled.
func (c Config) AuditRetention() time.Duration {
	if c.AuditRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.AuditRetentionDays) * 24 * time.Hour
}

// Brokers drops blank entries so that KAFKA_BROKERS="" disables the publisher.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
