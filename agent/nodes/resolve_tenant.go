package routernode

import (
	"context"
	"errors"
	"fmt"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// ResolveTenant loads the tenant snapshot. Unknown tenants fail at once; other catalog
// errors are retried and then reported as the catalog being unavailable.
func ResolveTenant(ctx context.Context, in *GraphState, store catalog.Store, retry Retry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var tenant *catalog.Tenant
	exhausted, err := retry.do(ctx, "catalog store", func() error {
		var err error
		tenant, err = store.Tenant(ctx, in.Key.TenantKey)
		return err
	}, retryableCatalogErr)

	switch {
	case err == nil:
	case exhausted || ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %s: %v", contractx.ErrCatalogUnavailable, in.Key.TenantKey, err)
	default:
		return nil, err
	}

	if tenant.Key != in.Key.TenantKey {
		return nil, fmt.Errorf("%w: catalog returned tenant %q for %q", contractx.ErrValidation, tenant.Key, in.Key.TenantKey)
	}
	in.Tenant = tenant
	return in, nil
}

func retryableCatalogErr(err error) bool {
	return !errors.Is(err, contractx.ErrUnknownTenant) &&
		!errors.Is(err, contractx.ErrValidation) &&
		!errors.Is(err, context.Canceled)
}
