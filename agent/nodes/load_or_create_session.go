package routernode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
)

func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store, retry Retry) (*GraphState, error) {
	if in == nil || in.Tenant == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	var sess *statex.Session
	exhausted, err := retry.do(ctx, "session store", func() error {
		var err error
		sess, err = statex.LoadOrCreate(ctx, store, in.Key, in.Now)
		return err
	}, retryableStoreErr)

	switch {
	case err == nil:
		in.Session = sess
		return in, nil
	case exhausted || ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %s: %v", contractx.ErrSessionUnavailable, in.Key, err)
	}
	return nil, err
}

func retryableStoreErr(err error) bool {
	return !errors.Is(err, statex.ErrInvalidKey) &&
		!errors.Is(err, contractx.ErrValidation) &&
		!errors.Is(err, context.Canceled)
}
