package contract

import "context"

// Extractor turns a free-text query into an Intent grounded on the supplied excerpt.
// Implementations must not return item references absent from req.Items.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Intent, error)
}

type ExtractorFunc func(ctx context.Context, req ExtractRequest) (Intent, error)

func (f ExtractorFunc) Extract(ctx context.Context, req ExtractRequest) (Intent, error) {
	return f(ctx, req)
}
