package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	"github.com/tanpawarit/chative-food-order/agent/intent"
	"github.com/tanpawarit/chative-food-order/agent/router"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
	"github.com/tanpawarit/chative-food-order/agent/tool"
	"github.com/tanpawarit/chative-food-order/pkg/httpserver"
	mongox "github.com/tanpawarit/chative-food-order/pkg/mongo"
	postgresx "github.com/tanpawarit/chative-food-order/pkg/postgres"
	redisx "github.com/tanpawarit/chative-food-order/pkg/redis"
)

// App owns the stores, the router and the MCP server built from one Config.
type App struct {
	cfg    Config
	router *router.Router
	mcp    *server.MCPServer

	checks  []func(context.Context) error
	closers []func() error
}

func Build(ctx context.Context, cfg Config, sec Sections, version string) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}

	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var db *bun.DB
	if cfg.usesPostgres() {
		db, err = postgresx.Open(ctx, sec.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.checks = append(a.checks, db.PingContext)
	}

	catalogStore, err := a.catalogStore(ctx, sec, db)
	if err != nil {
		return nil, err
	}
	cached := catalog.NewCached(catalogStore, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	if keys := warmKeys(cfg.WarmTenants); len(keys) > 0 {
		if err := cached.Warm(ctx, keys); err != nil {
			log.Warn().Err(err).Strs("tenants", keys).Msg("catalog warm-up incomplete")
		}
	}

	sessions, err := a.sessionStore(ctx, sec, db)
	if err != nil {
		return nil, err
	}

	extractor, err := intent.New(ctx, cfg.Extractor, sec.LLM)
	if err != nil {
		return nil, fmt.Errorf("intent extractor: %w", err)
	}

	a.router, err = router.New(cached, sessions, extractor, cfg.routerConfig(),
		router.WithLimiter(router.NewLimiter(cfg.RatePerSecond, cfg.RateBurst)),
	)
	if err != nil {
		return nil, err
	}
	a.mcp = tool.NewServer(a.router, version)

	log.Info().
		Str("transport", cfg.Transport).
		Str("catalog", cfg.CatalogBackend).
		Str("sessions", cfg.SessionBackend).
		Str("extractor", fmt.Sprintf("%T", extractor)).
		Msg("food order tools ready")
	return a, nil
}

func (a *App) catalogStore(ctx context.Context, sec Sections, db *bun.DB) (catalog.Store, error) {
	switch a.cfg.CatalogBackend {
	case BackendFile:
		store, err := catalog.LoadFile(a.cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", a.cfg.CatalogFile).Strs("tenants", store.Keys()).Msg("catalog file loaded")
		return store, nil

	case BackendMongo:
		client, err := mongox.Connect(ctx, sec.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		a.checks = append(a.checks, func(ctx context.Context) error { return client.Ping(ctx, nil) })
		return catalog.NewMongoStore(client.Database(sec.Mongo.Database).Collection(sec.Mongo.Collection)), nil

	case BackendPostgres:
		store := catalog.NewPostgresStore(db)
		if a.cfg.MigrateSchema {
			if err := store.CreateSchema(ctx); err != nil {
				return nil, fmt.Errorf("catalog schema: %w", err)
			}
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown catalog backend %q", a.cfg.CatalogBackend)
}

func (a *App) sessionStore(ctx context.Context, sec Sections, db *bun.DB) (statex.Store, error) {
	opts := []statex.StoreOption{
		statex.WithKeyPrefix(a.cfg.SessionKeyPrefix),
		statex.WithTTL(a.cfg.SessionTTL),
	}

	switch a.cfg.SessionBackend {
	case BackendMemory:
		return statex.NewMemoryStore(), nil

	case BackendUpstash:
		return statex.NewUpstashRedisStore(sec.Upstash, opts...)

	case BackendRedis:
		client, err := redisx.Connect(ctx, sec.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.checks = append(a.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		return statex.NewRedisStore(client, opts...)

	case BackendPostgres:
		store := statex.NewPostgresStore(db)
		if a.cfg.MigrateSchema {
			if err := store.CreateSchema(ctx); err != nil {
				return nil, fmt.Errorf("session schema: %w", err)
			}
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", a.cfg.SessionBackend)
}

func (a *App) Router() *router.Router {
	return a.router
}

// Ready pings every remote backend the app holds a connection to.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run serves the selected transport until ctx is done.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Transport {
	case TransportHTTP:
		srv, err := httpserver.New(httpserver.Config{
			Addr:  a.cfg.HTTPAddr,
			Mode:  a.cfg.GinMode,
			MCP:   server.NewStreamableHTTPServer(a.mcp),
			Tools: tool.NewHTTPHandler(a.router),
			Ready: a.Ready,
		})
		if err != nil {
			return err
		}
		return srv.Run(ctx)

	default:
		log.Info().Msg("serving MCP over stdio")
		err := server.NewStdioServer(a.mcp).Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}
	a.closers = nil
}

func warmKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
