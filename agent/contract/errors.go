package contract

import (
	"errors"
	"fmt"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")

	ErrUnknownTenant      = errors.New("unknown tenant")
	ErrSessionUnavailable = errors.New("session store unavailable")
	ErrCatalogUnavailable = errors.New("catalog store unavailable")
	ErrExtractorTimeout   = errors.New("intent extractor timed out")
	ErrExtractorFailure   = errors.New("intent extractor failed")
	ErrUnresolved         = errors.New("query is ambiguous")
	ErrItemNotFound       = errors.New("item not found")
	ErrItemUnavailable    = errors.New("item unavailable")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrStoreConflict      = errors.New("concurrent session write")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

type Code string

const (
	CodeUnknownTenant      Code = "UNKNOWN_TENANT"
	CodeSessionUnavailable Code = "SESSION_UNAVAILABLE"
	CodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"
	CodeExtractorTimeout   Code = "EXTRACTOR_TIMEOUT"
	CodeExtractorFailure   Code = "EXTRACTOR_FAILURE"
	CodeUnresolved         Code = "UNRESOLVED"
	CodeItemNotFound       Code = "ITEM_NOT_FOUND"
	CodeItemUnavailable    Code = "ITEM_UNAVAILABLE"
	CodeLineNotFound       Code = "LINE_NOT_FOUND"
	CodeInvalidQuantity    Code = "INVALID_QUANTITY"
	CodeStoreConflict      Code = "STORE_CONFLICT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeValidation         Code = "VALIDATION"
	CodeInternal           Code = "INTERNAL"
)

// Order matters: the first sentinel found in the chain decides the code.
var codes = []struct {
	err  error
	code Code
}{
	{ErrUnknownTenant, CodeUnknownTenant},
	{ErrUnresolved, CodeUnresolved},
	{ErrItemNotFound, CodeItemNotFound},
	{ErrItemUnavailable, CodeItemUnavailable},
	{ErrLineNotFound, CodeLineNotFound},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrStoreConflict, CodeStoreConflict},
	{ErrExtractorTimeout, CodeExtractorTimeout},
	{ErrExtractorFailure, CodeExtractorFailure},
	{ErrModelInvoke, CodeExtractorFailure},
	{ErrSchemaViolation, CodeExtractorFailure},
	{ErrSessionUnavailable, CodeSessionUnavailable},
	{ErrCatalogUnavailable, CodeCatalogUnavailable},
	{ErrRateLimited, CodeRateLimited},
	{ErrValidation, CodeValidation},
}

// CodeOf maps an error chain to its stable result code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsDomain reports whether err is a user-facing validation outcome. These are never retried.
func IsDomain(err error) bool {
	switch CodeOf(err) {
	case CodeUnknownTenant, CodeUnresolved, CodeItemNotFound, CodeItemUnavailable,
		CodeLineNotFound, CodeInvalidQuantity, CodeValidation:
		return true
	}
	return false
}

// UserError carries a message that is safe to show to the end user.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Kind
}

func Userf(kind error, format string, args ...any) error {
	return &UserError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
