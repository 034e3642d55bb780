package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Code
	}{
		{nil, ""},
		{fmt.Errorf("%w: cafe9", ErrUnknownTenant), CodeUnknownTenant},
		{fmt.Errorf("%w: after 15s", ErrExtractorTimeout), CodeExtractorTimeout},
		{fmt.Errorf("%w: %v", ErrSessionUnavailable, context.DeadlineExceeded), CodeSessionUnavailable},
		{fmt.Errorf("%w: cafe1: connection reset", ErrCatalogUnavailable), CodeCatalogUnavailable},
		{Userf(ErrInvalidQuantity, "too many"), CodeInvalidQuantity},
		// A bare deadline says nothing about which dependency was slow.
		{context.DeadlineExceeded, CodeInternal},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Fatalf("CodeOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestResultFromErrorKeepsUserMessageForDomainErrors(t *testing.T) {
	t.Parallel()

	res := ResultFromError(Userf(ErrInvalidQuantity, "You can order at most 999 Latte at a time."))
	if res.Status != StatusError || res.Message != "You can order at most 999 Latte at a time." {
		t.Fatalf("result = %+v", res)
	}

	res = ResultFromError(fmt.Errorf("%w: redis down", ErrSessionUnavailable))
	if res.Message != genericMessages[CodeSessionUnavailable] {
		t.Fatalf("infrastructure message = %q", res.Message)
	}
}

func TestMoneyFromFloatRejectsOverflow(t *testing.T) {
	t.Parallel()

	if _, err := MoneyFromFloat(1e17); !errors.Is(err, ErrValidation) {
		t.Fatalf("MoneyFromFloat(1e17) error = %v, want ErrValidation", err)
	}
	if m, err := MoneyFromFloat(4.5); err != nil || m != 450 {
		t.Fatalf("MoneyFromFloat(4.5) = %d, %v", m, err)
	}
}
