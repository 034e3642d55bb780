package tool

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/router"
)

type fakeCaller struct {
	mu     sync.Mutex
	result contractx.Result
	calls  []router.Request
	tools  []contractx.Tool
}

func (f *fakeCaller) Handle(ctx context.Context, tool contractx.Tool, req router.Request) contractx.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.tools = append(f.tools, tool)
	return f.result
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestDefinitionArguments(t *testing.T) {
	t.Parallel()

	for _, tool := range []contractx.Tool{contractx.ToolMenuGuide, contractx.ToolOrderManagement} {
		def := Definition(tool)
		if def.Name != string(tool) {
			t.Fatalf("Definition(%s).Name = %s", tool, def.Name)
		}
		if def.Description == "" {
			t.Fatalf("Definition(%s) has no description", tool)
		}
		for _, arg := range []string{"query", "tenant_key", "session_id"} {
			if _, ok := def.InputSchema.Properties[arg]; !ok {
				t.Fatalf("Definition(%s) misses argument %s", tool, arg)
			}
		}
		if len(def.InputSchema.Required) != 2 {
			t.Fatalf("Definition(%s).Required = %v", tool, def.InputSchema.Required)
		}
	}
}

func TestHandlerPassesArgumentsAndDefaultsSession(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{result: contractx.OK("Added 1x Latte.", map[string]any{"subtotal": "4.00"})}
	handler := Handler(caller, contractx.ToolOrderManagement)

	out, err := handler(context.Background(), callRequest("order_management", map[string]any{
		"query":      "add a latte",
		"tenant_key": "cafe1",
	}))
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if out.IsError {
		t.Fatal("ok result flagged as error")
	}

	if len(caller.calls) != 1 {
		t.Fatalf("calls = %d", len(caller.calls))
	}
	got := caller.calls[0]
	if got.Query != "add a latte" || got.TenantKey != "cafe1" || got.SessionID != "default" {
		t.Fatalf("request = %+v", got)
	}
	if caller.tools[0] != contractx.ToolOrderManagement {
		t.Fatalf("tool = %s", caller.tools[0])
	}

	text, ok := out.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", out.Content[0])
	}
	var res contractx.Result
	if err := json.Unmarshal([]byte(text.Text), &res); err != nil {
		t.Fatalf("content is not a result: %v", err)
	}
	if res.Status != contractx.StatusOK || res.Message != "Added 1x Latte." {
		t.Fatalf("result = %+v", res)
	}
}

func TestHandlerFlagsErrors(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{result: contractx.Result{Status: contractx.StatusError, Code: contractx.CodeUnknownTenant, Message: "nope"}}
	out, err := Handler(caller, contractx.ToolMenuGuide)(context.Background(), callRequest("menu_guide", map[string]any{
		"query":      "menu",
		"tenant_key": "ghost",
		"session_id": "s9",
	}))
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if !out.IsError {
		t.Fatal("error result not flagged")
	}
	if caller.calls[0].SessionID != "s9" {
		t.Fatalf("session = %s", caller.calls[0].SessionID)
	}
}

func TestHandlerClarifyIsNotAnError(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{result: contractx.Clarify(contractx.CodeUnresolved, "How many would you like?")}
	out, err := Handler(caller, contractx.ToolOrderManagement)(context.Background(), callRequest("order_management", map[string]any{
		"query":      "add lattes",
		"tenant_key": "cafe1",
	}))
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if out.IsError {
		t.Fatal("clarify result flagged as error")
	}
}

func TestNewServerRegistersBothTools(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeCaller{}, "test")
	tools := s.ListTools()
	for _, name := range []string{"menu_guide", "order_management"} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("tool %s not registered", name)
		}
	}
}
