package routernode

import (
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
)

type GraphInput struct {
	Tool      contractx.Tool
	Query     string
	TenantKey string
	SessionID string
}

type GraphOutput struct {
	Result contractx.Result
}

// GraphState is threaded through every node of one tool call. Key pins the call
// to a single tenant.
type GraphState struct {
	Tool  contractx.Tool
	Query string
	Key   statex.Key
	Now   time.Time

	Tenant  *catalog.Tenant
	Session *statex.Session
	Intent  contractx.Intent

	Result contractx.Result
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if !in.Tool.Valid() {
		return nil, fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, in.Tool)
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, contractx.Userf(contractx.ErrValidation, "Please tell me what you are looking for.")
	}

	tenantKey := strings.TrimSpace(in.TenantKey)
	if tenantKey == "" {
		return nil, contractx.Userf(contractx.ErrValidation, "A tenant_key is required.")
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = statex.DefaultSessionID
	}

	return &GraphState{
		Tool:  in.Tool,
		Query: query,
		Key:   statex.Key{TenantKey: tenantKey, SessionID: sessionID},
		Now:   nowFn().UTC(),
	}, nil
}
