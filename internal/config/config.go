package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pasal/backend/internal/store"
)

type Config struct {
	Port          string
	AllowedOrigin string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OpTimeout     time.Duration
	ProjectionTTL time.Duration

	// PaymentAccounts maps payment-method labels to account ids,
	// e.g. "cash=cash_in_hand,esewa=esewa_wallet".
	PaymentAccounts map[string]string
}

func Load() Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("OP_TIMEOUT", "5s")
	viper.SetDefault("PROJECTION_TTL_SECONDS", 30)
	viper.SetDefault("PAYMENT_ACCOUNTS", "cash=cash_in_hand,esewa=esewa_wallet,bank=nic_asia")
	viper.AutomaticEnv()

	opTimeout, err := time.ParseDuration(viper.GetString("OP_TIMEOUT"))
	if err != nil || opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	ttlSeconds := viper.GetInt("PROJECTION_TTL_SECONDS")
	if ttlSeconds < 1 {
		ttlSeconds = 30
	}

	return Config{
		Port:            viper.GetString("PORT"),
		AllowedOrigin:   viper.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:     viper.GetString("DATABASE_URL"),
		RedisAddr:       viper.GetString("REDIS_ADDR"),
		RedisPassword:   viper.GetString("REDIS_PASSWORD"),
		RedisDB:         viper.GetInt("REDIS_DB"),
		OpTimeout:       opTimeout,
		ProjectionTTL:   time.Duration(ttlSeconds) * time.Second,
		PaymentAccounts: parsePaymentAccounts(viper.GetString("PAYMENT_ACCOUNTS")),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// parsePaymentAccounts splits "label=account_id,label=account_id". Malformed
// pairs are skipped; labels are lowercased.
func parsePaymentAccounts(raw string) map[string]string {
	mapping := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		label, accountID, ok := strings.Cut(pair, "=")
		label = strings.ToLower(strings.TrimSpace(label))
		accountID = strings.TrimSpace(accountID)
		if !ok || label == "" || accountID == "" {
			continue
		}
		mapping[label] = accountID
	}
	return mapping
}

// ValidatePaymentAccounts checks at startup that every mapped account
// exists, so a typo in the mapping fails fast instead of on the first sale.
func (c Config) ValidatePaymentAccounts(ctx context.Context, repo store.Repository) error {
	for label, accountID := range c.PaymentAccounts {
		if _, err := repo.GetAccount(ctx, accountID); err != nil {
			return fmt.Errorf("payment method %q maps to account %q: %w", label, accountID, err)
		}
	}
	return nil
}
