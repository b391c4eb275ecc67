package config

import (
	"context"
	"testing"
	"time"

	"pasal/backend/internal/store/memory"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %s", cfg.Address())
	}
	if cfg.OpTimeout != 5*time.Second {
		t.Fatalf("expected default op timeout 5s, got %s", cfg.OpTimeout)
	}
	if cfg.ProjectionTTL != 30*time.Second {
		t.Fatalf("expected default projection TTL 30s, got %s", cfg.ProjectionTTL)
	}
	if cfg.PaymentAccounts["cash"] != "cash_in_hand" {
		t.Fatalf("expected default cash mapping, got %q", cfg.PaymentAccounts["cash"])
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OP_TIMEOUT", "2s")
	t.Setenv("PAYMENT_ACCOUNTS", "Cash=till, khalti = khalti_wallet,broken")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.OpTimeout != 2*time.Second {
		t.Fatalf("expected op timeout 2s, got %s", cfg.OpTimeout)
	}
	if cfg.PaymentAccounts["cash"] != "till" {
		t.Fatalf("expected lowercased label mapping, got %+v", cfg.PaymentAccounts)
	}
	if cfg.PaymentAccounts["khalti"] != "khalti_wallet" {
		t.Fatalf("expected trimmed mapping, got %+v", cfg.PaymentAccounts)
	}
	if _, ok := cfg.PaymentAccounts["broken"]; ok {
		t.Fatalf("expected malformed pair to be skipped")
	}
}

func TestLoadInvalidDurationsFallBack(t *testing.T) {
	t.Setenv("OP_TIMEOUT", "not-a-duration")
	t.Setenv("PROJECTION_TTL_SECONDS", "-5")

	cfg := Load()

	if cfg.OpTimeout != 5*time.Second {
		t.Fatalf("expected fallback op timeout, got %s", cfg.OpTimeout)
	}
	if cfg.ProjectionTTL != 30*time.Second {
		t.Fatalf("expected fallback projection TTL, got %s", cfg.ProjectionTTL)
	}
}

func TestValidatePaymentAccounts(t *testing.T) {
	repo := memory.NewSeeded()

	good := Config{PaymentAccounts: map[string]string{"cash": "cash_in_hand"}}
	if err := good.ValidatePaymentAccounts(context.Background(), repo); err != nil {
		t.Fatalf("expected seeded mapping to validate: %v", err)
	}

	bad := Config{PaymentAccounts: map[string]string{"cash": "no_such_account"}}
	if err := bad.ValidatePaymentAccounts(context.Background(), repo); err == nil {
		t.Fatalf("expected validation to fail for unknown account")
	}
}
