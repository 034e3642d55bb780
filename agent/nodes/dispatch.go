package routernode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/engine/menu"
	"github.com/tanpawarit/chative-food-order/agent/engine/order"
)

// Dispatch routes the extracted intent to the engine that owns it.
func Dispatch(ctx context.Context, in *GraphState, guide *menu.Engine, orders *order.Engine) (*GraphState, error) {
	if in == nil || in.Tenant == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	intent := in.Intent
	if intent.Kind == contractx.IntentUnresolved {
		res, err := unresolvedOutcome(in.Tool, intent)
		if err != nil {
			return nil, err
		}
		in.Result = res
		return in, nil
	}
	if intent.Kind.Tool() != in.Tool {
		in.Result = wrongTool(intent)
		return in, nil
	}

	switch in.Tool {
	case contractx.ToolMenuGuide:
		out, err := guide.Handle(ctx, intent, in.Tenant, in.Session)
		if err != nil {
			return nil, err
		}
		in.Result = contractx.OK(out.Message, out)

	case contractx.ToolOrderManagement:
		out, err := orders.Handle(ctx, in.Tenant, in.Key, intent)
		if err != nil {
			return nil, orderError(err)
		}
		in.Result = contractx.OK(out.Message, out)

	default:
		return nil, fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, in.Tool)
	}
	return in, nil
}

// orderError marks store failures, including a deadline hit while waiting on the
// lock or the store, as the session being unavailable. Domain errors and exhausted
// conflicts pass through.
func orderError(err error) error {
	if contractx.IsDomain(err) || errors.Is(err, contractx.ErrStoreConflict) {
		return err
	}
	return fmt.Errorf("%w: %v", contractx.ErrSessionUnavailable, err)
}
