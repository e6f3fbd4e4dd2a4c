package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30d", want: 30 * 24 * time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "12h", want: 12 * time.Hour},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := config.ParseTTL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTTL(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTTL(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRES_IN", "7d")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		t.Fatalf("dev should fall back to a development secret")
	}
	if cfg.JWTTTL != 7*24*time.Hour {
		t.Fatalf("got ttl %v", cfg.JWTTTL)
	}
	if cfg.Storage != config.StorageMemory {
		t.Fatalf("got storage %q", cfg.Storage)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("got bcrypt cost %d, want 12", cfg.BcryptCost)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := config.Config{
		Env:        "prod",
		Port:       8080,
		DBURL:      "postgres://x",
		Storage:    config.StoragePostgres,
		JWTSecret:  strings.Repeat("s", 32),
		JWTTTL:     time.Hour,
		BcryptCost: 12,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "short_secret_in_prod", mutate: func(c *config.Config) { c.JWTSecret = "short" }},
		{name: "unknown_storage", mutate: func(c *config.Config) { c.Storage = "mongo" }},
		{name: "bcrypt_cost_too_low", mutate: func(c *config.Config) { c.BcryptCost = 2 }},
		{name: "zero_ttl", mutate: func(c *config.Config) { c.JWTTTL = 0 }},
		{name: "missing_db_url", mutate: func(c *config.Config) { c.DBURL = "" }},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
