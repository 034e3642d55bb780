package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeTools struct {
	tool string
}

func (f *fakeTools) HandleTool(c *gin.Context) {
	f.tool = c.Param("tool")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	if cfg.Addr == "" {
		cfg.Addr = ":0"
	}
	cfg.Mode = gin.TestMode
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Config{Tools: &fakeTools{}})

	rec := do(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "healthy" {
		t.Fatalf("/health body = %s", rec.Body.String())
	}

	if rec := do(h, http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("/ready status = %d", rec.Code)
	}
}

func TestReadyReportsDependencyFailure(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Config{
		Tools: &fakeTools{},
		Ready: func(context.Context) error { return errors.New("mongo: no reachable servers") },
	})

	rec := do(h, http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/ready status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no reachable servers") {
		t.Fatalf("/ready body = %s", rec.Body.String())
	}
}

func TestRoutesToolsAndMCP(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	var mcpHits int
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpHits++
		w.WriteHeader(http.StatusAccepted)
	})
	h := newTestServer(t, Config{Tools: tools, MCP: mcp})

	if rec := do(h, http.MethodPost, "/v1/tools/menu_guide", `{}`); rec.Code != http.StatusOK {
		t.Fatalf("tool status = %d", rec.Code)
	}
	if tools.tool != "menu_guide" {
		t.Fatalf("tool param = %q", tools.tool)
	}

	if rec := do(h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("/mcp status = %d", rec.Code)
	}
	if mcpHits != 1 {
		t.Fatalf("mcp hits = %d", mcpHits)
	}
}

func TestNewRequiresAHandler(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Addr: ":0"}); err == nil {
		t.Fatal("New() without handlers: error = nil")
	}
	if _, err := New(Config{Tools: &fakeTools{}}); err == nil {
		t.Fatal("New() without addr: error = nil")
	}
}
