package intent

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// modelIntent is the flat JSON object a model is asked to produce.
type modelIntent struct {
	Kind          string   `json:"kind"`
	ItemID        string   `json:"item_id,omitempty"`
	Quantity      int      `json:"quantity,omitempty"`
	Category      string   `json:"category,omitempty"`
	NameContains  string   `json:"name_contains,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	MinPrice      float64  `json:"min_price,omitempty"`
	MaxPrice      float64  `json:"max_price,omitempty"`
	AvailableOnly bool     `json:"available_only,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Candidates    []string `json:"candidates,omitempty"`
	Mention       string   `json:"mention,omitempty"`
}

var knownReasons = map[string]bool{
	contractx.ReasonNoMatch:         true,
	contractx.ReasonAmbiguousItem:   true,
	contractx.ReasonMissingItem:     true,
	contractx.ReasonMissingQuantity: true,
	contractx.ReasonUnknownItem:     true,
	contractx.ReasonNoReference:     true,
	contractx.ReasonMultipleItems:   true,
}

func marshalRequest(req contractx.ExtractRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal extract request: %v", contractx.ErrValidation, err)
	}
	return string(b), nil
}

func decodeModelIntent(content string) (modelIntent, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out modelIntent
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return modelIntent{}, fmt.Errorf("%w: decode model output: %v", contractx.ErrSchemaViolation, err)
	}
	return out, nil
}

// ground turns model output into an Intent that only references the catalog excerpt.
// Values the model made up are dropped or turned into an unresolved intent.
func ground(out modelIntent, req contractx.ExtractRequest) (contractx.Intent, error) {
	kind := contractx.IntentKind(strings.ToLower(strings.TrimSpace(out.Kind)))
	switch kind {
	case contractx.IntentLookup:
		minP, maxP, err := prices(out)
		if err != nil {
			return contractx.Intent{}, err
		}
		f := contractx.LookupFilters{
			NameContains:  strings.TrimSpace(out.NameContains),
			Tags:          known(out.Tags, req.Tags),
			MinPrice:      minP,
			MaxPrice:      maxP,
			AvailableOnly: out.AvailableOnly,
		}
		if cats := known([]string{out.Category}, req.Categories); len(cats) > 0 {
			f.Category = cats[0]
		}
		return contractx.Lookup(f), nil

	case contractx.IntentRecommend:
		_, maxP, err := prices(out)
		if err != nil {
			return contractx.Intent{}, err
		}
		cats := known(out.Categories, req.Categories)
		if out.Category != "" {
			cats = known(append(cats, out.Category), req.Categories)
		}
		return contractx.Recommend(contractx.RecommendCriteria{
			Categories: cats,
			Tags:       known(out.Tags, req.Tags),
			MaxPrice:   maxP,
			Limit:      max(out.Limit, 0),
		}), nil

	case contractx.IntentAddItem, contractx.IntentRemoveItem, contractx.IntentSetQuantity:
		ref := strings.TrimSpace(out.ItemID)
		if !req.HasItem(ref) {
			item, fail, ok := resolveItem(ref, req, kind == contractx.IntentRemoveItem)
			if !ok {
				return fail, nil
			}
			ref = item.ID
		}
		switch kind {
		case contractx.IntentAddItem:
			if out.Quantity == 0 {
				return contractx.Unresolved(contractx.ReasonMissingQuantity), nil
			}
			return contractx.AddItem(ref, out.Quantity), nil
		case contractx.IntentRemoveItem:
			return contractx.RemoveItem(ref, out.Quantity), nil
		}
		return contractx.SetQuantity(ref, out.Quantity), nil

	case contractx.IntentClearCart:
		return contractx.ClearCart(), nil

	case contractx.IntentUnresolved:
		reason := strings.TrimSpace(out.Reason)
		switch {
		case reason == contractx.ReasonUnknownItem:
			return contractx.UnknownItem(strings.TrimSpace(out.Mention)), nil
		case reason == contractx.ReasonAmbiguousItem:
			return contractx.Unresolved(reason, out.Candidates...), nil
		case knownReasons[reason]:
			return contractx.Unresolved(reason), nil
		}
		return contractx.Unresolved(contractx.ReasonNoMatch), nil
	}
	return contractx.Intent{}, fmt.Errorf("%w: unsupported kind=%q", contractx.ErrSchemaViolation, out.Kind)
}

func prices(out modelIntent) (contractx.Money, contractx.Money, error) {
	minP, err := contractx.MoneyFromFloat(out.MinPrice)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min_price: %v", contractx.ErrSchemaViolation, err)
	}
	maxP, err := contractx.MoneyFromFloat(out.MaxPrice)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: max_price: %v", contractx.ErrSchemaViolation, err)
	}
	if maxP > 0 && minP > maxP {
		minP, maxP = maxP, minP
	}
	return minP, maxP, nil
}

// known keeps the values present in allowed, canonicalized to allowed's spelling.
func known(values, allowed []string) []string {
	var out []string
	for _, v := range values {
		i := slices.IndexFunc(allowed, func(a string) bool { return strings.EqualFold(a, strings.TrimSpace(v)) })
		if i >= 0 && !slices.Contains(out, allowed[i]) {
			out = append(out, allowed[i])
		}
	}
	return out
}
