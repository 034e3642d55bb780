package contract

import (
	"errors"
	"slices"
)

// Tool names the externally exposed operation a call arrived on.
type Tool string

const (
	ToolMenuGuide       Tool = "menu_guide"
	ToolOrderManagement Tool = "order_management"
)

func (t Tool) Valid() bool {
	return t == ToolMenuGuide || t == ToolOrderManagement
}

type IntentKind string

const (
	IntentLookup      IntentKind = "lookup"
	IntentRecommend   IntentKind = "recommend"
	IntentAddItem     IntentKind = "add_item"
	IntentRemoveItem  IntentKind = "remove_item"
	IntentSetQuantity IntentKind = "set_quantity"
	IntentClearCart   IntentKind = "clear_cart"
	IntentUnresolved  IntentKind = "unresolved"
)

func (k IntentKind) IsMutation() bool {
	switch k {
	case IntentAddItem, IntentRemoveItem, IntentSetQuantity, IntentClearCart:
		return true
	}
	return false
}

func (k IntentKind) IsGuide() bool {
	return k == IntentLookup || k == IntentRecommend
}

// Tool returns the tool that owns this kind of intent, or "" for unresolved.
func (k IntentKind) Tool() Tool {
	switch {
	case k.IsGuide():
		return ToolMenuGuide
	case k.IsMutation():
		return ToolOrderManagement
	}
	return ""
}

// Unresolved reasons.
const (
	ReasonNoMatch         = "no_match"
	ReasonEmptyQuery      = "empty_query"
	ReasonAmbiguousItem   = "ambiguous_item"
	ReasonMissingItem     = "missing_item"
	ReasonMissingQuantity = "missing_quantity"
	ReasonUnknownItem     = "unknown_item"
	ReasonNoReference     = "no_reference"
	ReasonMultipleItems   = "multiple_items"
)

type LookupFilters struct {
	Category      string   `json:"category,omitempty"`
	NameContains  string   `json:"name_contains,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	MinPrice      Money    `json:"min_price,omitempty"`
	MaxPrice      Money    `json:"max_price,omitempty"`
	AvailableOnly bool     `json:"available_only,omitempty"`
}

type RecommendCriteria struct {
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	MaxPrice   Money    `json:"max_price,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// Intent is the structured reading of one query. It is never persisted.
type Intent struct {
	Kind     IntentKind        `json:"kind"`
	Filters  LookupFilters     `json:"filters,omitempty"`
	Criteria RecommendCriteria `json:"criteria,omitempty"`
	// ItemRef is a catalog item id once the intent has been grounded.
	ItemRef  string `json:"item_ref,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Reason   string `json:"reason,omitempty"`
	// Candidates lists item names when the reason is an ambiguous reference.
	Candidates []string `json:"candidates,omitempty"`
	// Mention is the unmatched item text when the reason is unknown_item.
	Mention string `json:"mention,omitempty"`
}

func Lookup(f LookupFilters) Intent {
	return Intent{Kind: IntentLookup, Filters: f}
}

func Recommend(c RecommendCriteria) Intent {
	return Intent{Kind: IntentRecommend, Criteria: c}
}

func AddItem(ref string, qty int) Intent {
	return Intent{Kind: IntentAddItem, ItemRef: ref, Quantity: qty}
}

// RemoveItem with qty 0 removes the whole line.
func RemoveItem(ref string, qty int) Intent {
	return Intent{Kind: IntentRemoveItem, ItemRef: ref, Quantity: qty}
}

func SetQuantity(ref string, qty int) Intent {
	return Intent{Kind: IntentSetQuantity, ItemRef: ref, Quantity: qty}
}

func ClearCart() Intent {
	return Intent{Kind: IntentClearCart}
}

func Unresolved(reason string, candidates ...string) Intent {
	return Intent{Kind: IntentUnresolved, Reason: reason, Candidates: candidates}
}

// UnknownItem reports a reference to something the tenant does not sell.
func UnknownItem(mention string) Intent {
	return Intent{Kind: IntentUnresolved, Reason: ReasonUnknownItem, Mention: mention}
}

// ExcerptItem is the narrow view of a catalog item handed to extractors.
type ExcerptItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type SessionContext struct {
	LastIntent IntentKind `json:"last_intent,omitempty"`
	LastItemID string     `json:"last_item_id,omitempty"`
	CartItems  []string   `json:"cart_items,omitempty"`
}

type ExtractRequest struct {
	Query      string         `json:"query"`
	Tool       Tool           `json:"tool"`
	Categories []string       `json:"categories"`
	Tags       []string       `json:"tags"`
	Items      []ExcerptItem  `json:"items"`
	Context    SessionContext `json:"context"`
}

func (r ExtractRequest) HasItem(id string) bool {
	return slices.ContainsFunc(r.Items, func(it ExcerptItem) bool { return it.ID == id })
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusClarify Status = "clarify"
	StatusError   Status = "error"
)

type Result struct {
	Status  Status `json:"status"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

func OK(message string, payload any) Result {
	return Result{Status: StatusOK, Message: message, Payload: payload}
}

func Clarify(code Code, message string) Result {
	return Result{Status: StatusClarify, Code: code, Message: message}
}

// ResultFromError renders err for the caller. Unresolved becomes a clarification,
// validation failures keep their user message, infrastructure failures are generic.
func ResultFromError(err error) Result {
	code := CodeOf(err)
	var ue *UserError
	msg := ""
	if errors.As(err, &ue) {
		msg = ue.Message
	}
	if code == CodeUnresolved {
		if msg == "" {
			msg = "Could you tell me a bit more about what you would like?"
		}
		return Clarify(code, msg)
	}
	if msg == "" || !IsDomain(err) {
		msg = genericMessages[code]
	}
	if msg == "" {
		msg = "Something went wrong, please try again."
	}
	return Result{Status: StatusError, Code: code, Message: msg}
}

var genericMessages = map[Code]string{
	CodeUnknownTenant:      "This restaurant is not configured.",
	CodeSessionUnavailable: "Your order is temporarily unavailable, please try again shortly.",
	CodeCatalogUnavailable: "The menu is temporarily unavailable, please try again shortly.",
	CodeExtractorTimeout:   "That took too long to understand, please try again.",
	CodeExtractorFailure:   "Sorry, I could not understand that right now, please try again.",
	CodeStoreConflict:      "Your order was being updated elsewhere, please try again.",
	CodeItemNotFound:       "That item is not on the menu.",
	CodeItemUnavailable:    "That item is currently unavailable.",
	CodeLineNotFound:       "That item is not in your order.",
	CodeInvalidQuantity:    "That quantity is not valid.",
	CodeRateLimited:        "Too many requests for this restaurant, please slow down.",
	CodeValidation:         "The request is missing required fields.",
}
