package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/intent"
	"github.com/tanpawarit/chative-food-order/agent/router"
)

func validConfig() Config {
	return Config{
		Transport:        TransportStdio,
		HTTPAddr:         ":0",
		SessionBackend:   BackendMemory,
		SessionKeyPrefix: "test:session:",
		CatalogBackend:   BackendFile,
		CatalogFile:      filepath.Join("..", "catalog.yaml"),
		Extractor:        intent.BackendRules,
		ExtractRetries:   1,
		StoreRetries:     1,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"transport", func(c *Config) { c.Transport = "grpc" }, "unknown transport"},
		{"http addr", func(c *Config) { c.Transport = TransportHTTP; c.HTTPAddr = "" }, "http addr"},
		{"session backend", func(c *Config) { c.SessionBackend = "sqlite" }, "unknown session backend"},
		{"catalog backend", func(c *Config) { c.CatalogBackend = "csv" }, "unknown catalog backend"},
		{"catalog file", func(c *Config) { c.CatalogFile = " " }, "catalog file"},
		{"extractor", func(c *Config) { c.Extractor = "regex" }, "unknown extractor"},
		{"retries", func(c *Config) { c.StoreRetries = -1 }, "retry counts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBuildServesBothTools(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.WarmTenants = []string{"cafe1", " "}
	a, err := Build(context.Background(), cfg, Sections{}, "test")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer a.Close()

	if err := a.Ready(context.Background()); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}

	ctx := context.Background()
	res := a.Router().OrderManagement(ctx, router.Request{Query: "add a latte", TenantKey: "cafe1", SessionID: "s1"})
	if res.Status != contractx.StatusOK {
		t.Fatalf("OrderManagement() = %+v", res)
	}

	res = a.Router().MenuGuide(ctx, router.Request{Query: "show me desserts", TenantKey: "cafe1", SessionID: "s1"})
	if res.Status != contractx.StatusOK {
		t.Fatalf("MenuGuide() = %+v", res)
	}
}

func TestBuildFailsOnMissingCatalogFile(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Build(context.Background(), cfg, Sections{}, "test"); err == nil {
		t.Fatal("Build() error = nil")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SessionBackend = "sqlite"
	if _, err := Build(context.Background(), cfg, Sections{}, "test"); err == nil {
		t.Fatal("Build() error = nil")
	}
}
