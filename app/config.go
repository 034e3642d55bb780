package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/chative-food-order/agent/intent"
	"github.com/tanpawarit/chative-food-order/agent/router"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	BackendMemory   = "memory"
	BackendUpstash  = "upstash"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendFile     = "file"
)

// Config is the APP_* section. Backend credentials live in their own sections.
type Config struct {
	Transport string `envconfig:"TRANSPORT" default:"stdio"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	GinMode   string `envconfig:"GIN_MODE" default:"release"`

	SessionBackend   string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionKeyPrefix string        `envconfig:"SESSION_KEY_PREFIX" default:"food:session:"`

	CatalogBackend   string        `envconfig:"CATALOG_BACKEND" default:"file"`
	CatalogFile      string        `envconfig:"CATALOG_FILE" default:"catalog.yaml"`
	CatalogCacheTTL  time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`
	CatalogCacheSize int           `envconfig:"CATALOG_CACHE_SIZE" default:"256"`
	WarmTenants      []string      `envconfig:"WARM_TENANTS"`

	// MigrateSchema creates the bun tables on startup for postgres backends.
	MigrateSchema bool `envconfig:"MIGRATE_SCHEMA" default:"true"`

	Extractor      string        `envconfig:"EXTRACTOR"`
	ExtractTimeout time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"15s"`
	ExtractRetries int           `envconfig:"EXTRACT_RETRIES" default:"1"`
	StoreRetries   int           `envconfig:"STORE_RETRIES" default:"2"`
	RetryBackoff   time.Duration `envconfig:"RETRY_BACKOFF" default:"50ms"`

	RatePerSecond float64 `envconfig:"RATE_PER_SECOND" default:"5"`
	RateBurst     int     `envconfig:"RATE_BURST" default:"10"`
}

func (c Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.Transport == TransportHTTP && strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http addr is required for the http transport"))
	}

	switch c.SessionBackend {
	case BackendMemory, BackendUpstash, BackendRedis, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.SessionBackend))
	}

	switch c.CatalogBackend {
	case BackendMongo, BackendPostgres:
	case BackendFile:
		if strings.TrimSpace(c.CatalogFile) == "" {
			errs = append(errs, errors.New("catalog file is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.CatalogBackend))
	}

	switch c.Extractor {
	case "", intent.BackendRules, intent.BackendEino, intent.BackendOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown extractor %q", c.Extractor))
	}

	if c.ExtractRetries < 0 || c.StoreRetries < 0 {
		errs = append(errs, errors.New("retry counts must not be negative"))
	}
	if c.RateBurst < 0 {
		errs = append(errs, errors.New("rate burst must not be negative"))
	}

	return errors.Join(errs...)
}

func (c Config) routerConfig() router.Config {
	return router.Config{
		ExtractTimeout: c.ExtractTimeout,
		ExtractRetries: c.ExtractRetries,
		StoreRetries:   c.StoreRetries,
		RetryBackoff:   c.RetryBackoff,
	}
}

func (c Config) usesPostgres() bool {
	return c.SessionBackend == BackendPostgres || c.CatalogBackend == BackendPostgres
}
