package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ToolHandler serves the JSON tool endpoint.
type ToolHandler interface {
	HandleTool(c *gin.Context)
}

type Config struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`
	Mode string `envconfig:"GIN_MODE" default:"release"`

	// MCP is mounted at /mcp when set.
	MCP http.Handler `ignored:"true"`
	// Tools is mounted at POST /v1/tools/:tool when set.
	Tools ToolHandler `ignored:"true"`
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error `ignored:"true"`
}

type HTTPServer struct {
	gin   *gin.Engine
	addr  string
	mcp   http.Handler
	tools ToolHandler
	ready func(ctx context.Context) error
}

func New(cfg Config) (*HTTPServer, error) {
	if cfg.Addr == "" {
		return nil, errors.New("http addr is required")
	}
	if cfg.MCP == nil && cfg.Tools == nil {
		return nil, errors.New("at least one of mcp or tools handler is required")
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	srv := &HTTPServer{
		gin:   gin.New(),
		addr:  cfg.Addr,
		mcp:   cfg.MCP,
		tools: cfg.Tools,
		ready: cfg.Ready,
	}
	srv.mapHandlers()
	return srv, nil
}

// Handler exposes the gin engine, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler {
	return srv.gin
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (srv *HTTPServer) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:              srv.addr,
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.addr).Msg("http server listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}
