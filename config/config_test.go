package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func parseEnv(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return Parse(env.Options{Environment: vars})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{
		"JWT_SECRET_KEY": "secret",
		"DATABASE_URL":   "postgres://localhost/festival",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.StoreDriver != StoreDriverPostgres || !cfg.MigrateOnStart {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReconcileConcurrency != 4 || cfg.PaymentGatewayTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestParseMemoryDriverWithoutDatabase(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{
		"JWT_SECRET_KEY":       "secret",
		"STORE_DRIVER":         "Memory",
		"LOG_LEVEL":            "debug",
		"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v", cfg.SlogLevel())
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing jwt secret", map[string]string{"DATABASE_URL": "postgres://x"}},
		{"missing database url", map[string]string{"JWT_SECRET_KEY": "s"}},
		{"unknown driver", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "mysql"}},
		{"bad port", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "SERVER_PORT": "70000"}},
		{"bad level", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "LOG_LEVEL": "loud"}},
		{"bad concurrency", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory", "RECONCILE_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseEnv(t, tt.vars); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
