package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/router"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
)

const ServerName = "food-order-bot"

// Caller runs one tool call. *router.Router implements it.
type Caller interface {
	Handle(ctx context.Context, tool contractx.Tool, req router.Request) contractx.Result
}

var descriptions = map[contractx.Tool]string{
	contractx.ToolMenuGuide: "Browse the restaurant menu: list items by category, price range, tag or name, " +
		"check availability, and get recommendations. Never changes the order.",
	contractx.ToolOrderManagement: "Change the order cart: add, remove or set the quantity of one menu item, " +
		"or clear the cart. Returns the full cart with its subtotal.",
}

// Definition describes tool for MCP clients. Both tools take the same arguments.
func Definition(tool contractx.Tool) mcp.Tool {
	return mcp.NewTool(string(tool),
		mcp.WithDescription(descriptions[tool]),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What the customer said, in their own words."),
		),
		mcp.WithString("tenant_key",
			mcp.Required(),
			mcp.Description("Restaurant identifier."),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation identifier. The cart belongs to this session."),
			mcp.DefaultString(statex.DefaultSessionID),
		),
	)
}

// Handler adapts a Caller to an MCP tool handler. The text content is the JSON result;
// error results also set IsError.
func Handler(caller Caller, tool contractx.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := router.Request{
			Query:     request.GetString("query", ""),
			TenantKey: request.GetString("tenant_key", ""),
			SessionID: request.GetString("session_id", statex.DefaultSessionID),
		}

		res := caller.Handle(ctx, tool, req)
		body, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("marshal %s result: %w", tool, err)
		}
		if res.Status == contractx.StatusError {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// NewServer registers both tools on a fresh MCP server.
func NewServer(caller Caller, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range []contractx.Tool{contractx.ToolMenuGuide, contractx.ToolOrderManagement} {
		s.AddTool(Definition(t), Handler(caller, t))
	}
	return s
}

const instructions = `Use menu_guide for questions about the menu and order_management to change the cart.
Pass the customer's words as query, unchanged. Results are JSON with status ok, clarify or error;
on clarify, relay the message to the customer and send their answer as a new query.`
