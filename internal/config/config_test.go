package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("default addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("default token TTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.OTPTTL != 5*time.Minute {
		t.Fatalf("default OTP TTL = %v", cfg.Auth.OTPTTL)
	}
	if cfg.AI.Enabled() {
		t.Fatal("AI must be disabled without credentials")
	}
	if cfg.Mail.Enabled() {
		t.Fatal("mail must be disabled without SMTP settings")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadAcceptsFullListenAddress(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadTTLOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL_MINUTES", "90")
	t.Setenv("OTP_TTL_MINUTES", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Auth.TokenTTL != 90*time.Minute {
		t.Fatalf("token TTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.OTPTTL != 10*time.Minute {
		t.Fatalf("OTP TTL = %v", cfg.Auth.OTPTTL)
	}
}

func TestLoadRejectsMalformedOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL_MINUTES", "ninety")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed TOKEN_TTL_MINUTES")
	}
}
