package routernode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// ExtractIntent runs the extractor under its own deadline. It is called before any
// session lock is taken.
func ExtractIntent(
	ctx context.Context,
	in *GraphState,
	extractor contractx.Extractor,
	timeout time.Duration,
	retry Retry,
) (*GraphState, error) {
	if in == nil || in.Tenant == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	req := contractx.ExtractRequest{
		Query:      in.Query,
		Tool:       in.Tool,
		Categories: in.Tenant.Categories(),
		Tags:       in.Tenant.Tags(),
		Items:      in.Tenant.Excerpt(),
		Context:    in.Session.ExtractContext(),
	}

	var intent contractx.Intent
	exhausted, err := retry.do(ctx, "intent extraction", func() error {
		var err error
		intent, err = extractOnce(ctx, extractor, req, timeout)
		return err
	}, isExtractorFailure)

	switch {
	case err == nil:
		zerolog.Ctx(ctx).Debug().Str("kind", string(intent.Kind)).Str("reason", intent.Reason).Msg("intent extracted")
		in.Intent = intent
		return in, nil
	case exhausted:
		return nil, fmt.Errorf("%w: %v", contractx.ErrExtractorFailure, err)
	case ctx.Err() != nil && !errors.Is(err, contractx.ErrExtractorTimeout):
		return nil, fmt.Errorf("%w: %v", contractx.ErrExtractorTimeout, err)
	}
	return nil, err
}

func extractOnce(ctx context.Context, extractor contractx.Extractor, req contractx.ExtractRequest, timeout time.Duration) (contractx.Intent, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	intent, err := extractor.Extract(callCtx, req)
	if err == nil {
		return intent, nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return contractx.Intent{}, fmt.Errorf("%w: after %s", contractx.ErrExtractorTimeout, timeout)
	}
	return contractx.Intent{}, err
}

func isExtractorFailure(err error) bool {
	return errors.Is(err, contractx.ErrModelInvoke) ||
		errors.Is(err, contractx.ErrSchemaViolation) ||
		errors.Is(err, contractx.ErrExtractorFailure)
}
