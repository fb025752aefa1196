package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/academy/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("METRICS_ADDR", "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "football_bot.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Payments.Currency != "RUB" {
		t.Errorf("currency = %q", cfg.Payments.Currency)
	}
	if cfg.Bot.Workers != 8 || cfg.Bot.HandleTimeout != 15*time.Second {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if !cfg.Store.Seed || cfg.Payments.TestPurchases {
		t.Errorf("flags: seed=%v test=%v", cfg.Store.Seed, cfg.Payments.TestPurchases)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("metrics enabled by default: %q", cfg.Metrics.Addr)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	os.Unsetenv("BOT_TOKEN")
	t.Setenv("ADMIN_IDS", "")
	os.Unsetenv("ADMIN_IDS")
	t.Setenv("TEST_PURCHASES", "")
	os.Unsetenv("TEST_PURCHASES")

	path := filepath.Join(t.TempDir(), ".env")
	content := "BOT_TOKEN=42:xyz\nADMIN_IDS=10, 20\nTEST_PURCHASES=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("BOT_TOKEN")
		os.Unsetenv("ADMIN_IDS")
		os.Unsetenv("TEST_PURCHASES")
	})

	if cfg.Bot.Token != "42:xyz" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if !cfg.Bot.IsAdmin(20) || cfg.Bot.IsAdmin(30) {
		t.Errorf("admins = %v", cfg.Bot.AdminIDs)
	}
	if !cfg.Payments.TestPurchases {
		t.Error("test purchases should be enabled")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"BOT_TOKEN": ""}},
		{"bad admin ids", map[string]string{"BOT_TOKEN": "t", "ADMIN_IDS": "1,x"}},
		{"bad timeout", map[string]string{"BOT_TOKEN": "t", "HANDLE_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := config.Load(filepath.Join(t.TempDir(), "none.env")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
