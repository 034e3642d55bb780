package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/engine/menu"
	"github.com/tanpawarit/chative-food-order/agent/engine/order"
	nodex "github.com/tanpawarit/chative-food-order/agent/nodes"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
	logx "github.com/tanpawarit/chative-food-order/pkg/logger"
)

// Request is one tool call. An empty SessionID means the "default" session.
type Request struct {
	Query     string `json:"query"`
	TenantKey string `json:"tenant_key"`
	SessionID string `json:"session_id,omitempty"`
}

type Config struct {
	ExtractTimeout time.Duration
	ExtractRetries int
	// StoreRetries bounds retries of transient catalog and session store reads.
	StoreRetries int
	RetryBackoff time.Duration
}

var DefaultConfig = Config{
	ExtractTimeout: 15 * time.Second,
	ExtractRetries: 1,
	StoreRetries:   2,
	RetryBackoff:   50 * time.Millisecond,
}

func (c Config) storeRetry() nodex.Retry {
	return nodex.Retry{Attempts: c.StoreRetries, Backoff: c.RetryBackoff}
}

func (c Config) extractRetry() nodex.Retry {
	return nodex.Retry{Attempts: c.ExtractRetries, Backoff: c.RetryBackoff}
}

type Option func(*Router)

func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLimiter(l *Limiter) Option {
	return func(r *Router) {
		r.limiter = l
	}
}

func WithOrderEngine(e *order.Engine) Option {
	return func(r *Router) {
		if e != nil {
			r.orders = e
		}
	}
}

// Router is the single entry point for both tools. Each call runs the tool call graph
// scoped to one tenant and one session.
type Router struct {
	catalog   catalog.Store
	sessions  statex.Store
	extractor contractx.Extractor
	guide     *menu.Engine
	orders    *order.Engine
	limiter   *Limiter
	cfg       Config

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
}

func New(
	catalogStore catalog.Store,
	sessions statex.Store,
	extractor contractx.Extractor,
	cfg Config,
	opts ...Option,
) (*Router, error) {
	if catalogStore == nil {
		return nil, errors.New("catalog store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if extractor == nil {
		return nil, errors.New("intent extractor is required")
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = DefaultConfig.ExtractTimeout
	}
	cfg.ExtractRetries = max(cfg.ExtractRetries, 0)
	cfg.StoreRetries = max(cfg.StoreRetries, 0)

	r := &Router{
		catalog:   catalogStore,
		sessions:  sessions,
		extractor: extractor,
		guide:     menu.New(),
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.orders == nil {
		r.orders = order.New(sessions, order.WithClock(r.now))
	}

	graphRunner, err := r.compileToolCallGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

func (r *Router) MenuGuide(ctx context.Context, req Request) contractx.Result {
	return r.Handle(ctx, contractx.ToolMenuGuide, req)
}

func (r *Router) OrderManagement(ctx context.Context, req Request) contractx.Result {
	return r.Handle(ctx, contractx.ToolOrderManagement, req)
}

// Handle never returns a Go error: every failure is folded into the result.
func (r *Router) Handle(ctx context.Context, tool contractx.Tool, req Request) contractx.Result {
	requestID := r.newID()
	req.TenantKey = strings.TrimSpace(req.TenantKey)
	ctx = logx.WithCall(ctx, string(tool), req.TenantKey, req.SessionID, requestID)
	log := zerolog.Ctx(ctx)
	started := time.Now()

	if err := r.limiter.Allow(req.TenantKey); err != nil {
		log.Warn().Err(err).Msg("tool call rejected")
		return contractx.ResultFromError(err)
	}

	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		Tool:      tool,
		Query:     req.Query,
		TenantKey: req.TenantKey,
		SessionID: req.SessionID,
	})
	if err != nil {
		res := contractx.ResultFromError(err)
		ev := log.Error()
		if contractx.IsDomain(err) {
			ev = log.Info()
		}
		ev.Err(err).Str("status", string(res.Status)).Str("code", string(res.Code)).
			Dur("elapsed", time.Since(started)).Msg("tool call finished")
		return res
	}

	log.Info().Str("status", string(out.Result.Status)).Str("code", string(out.Result.Code)).
		Dur("elapsed", time.Since(started)).Msg("tool call finished")
	return out.Result
}
