// Package menu answers read-only catalog questions: filtered lookups and ranked recommendations.
package menu

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
)

const DefaultRecommendLimit = 3

// Recommendation weights.
const (
	scoreCategory   = 3
	scoreTag        = 2
	scoreCompletion = 1
)

type ItemView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       contractx.Money `json:"price"`
	Available   bool            `json:"available"`
	Tags        []string        `json:"tags,omitempty"`
	Description string          `json:"description,omitempty"`
	Score       int             `json:"score,omitempty"`
}

type GuideResult struct {
	Kind    contractx.IntentKind `json:"kind"`
	Items   []ItemView           `json:"items"`
	Message string               `json:"message"`
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Handle never mutates the tenant or the session. sess may be nil.
func (e *Engine) Handle(ctx context.Context, in contractx.Intent, tenant *catalog.Tenant, sess *statex.Session) (GuideResult, error) {
	if err := ctx.Err(); err != nil {
		return GuideResult{}, err
	}
	if tenant == nil {
		return GuideResult{}, fmt.Errorf("%w: tenant is required", contractx.ErrValidation)
	}
	switch in.Kind {
	case contractx.IntentLookup:
		return lookup(in.Filters, tenant), nil
	case contractx.IntentRecommend:
		var cart statex.Cart
		if sess != nil {
			cart = sess.Cart
		}
		return recommend(in.Criteria, tenant, cart), nil
	default:
		return GuideResult{}, fmt.Errorf("%w: menu guide cannot handle %s", contractx.ErrValidation, in.Kind)
	}
}

func lookup(f contractx.LookupFilters, tenant *catalog.Tenant) GuideResult {
	if f.Category != "" {
		if c, ok := tenant.MatchCategory(f.Category); ok {
			f.Category = c
		}
	}
	items := tenant.Find(f)
	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i] = view(it, 0)
	}
	return GuideResult{
		Kind:    contractx.IntentLookup,
		Items:   views,
		Message: describeLookup(views, lookupHeading(f)),
	}
}

func lookupHeading(f contractx.LookupFilters) string {
	switch {
	case f.Category != "":
		return "in " + f.Category
	case f.NameContains != "":
		return fmt.Sprintf("matching %q", f.NameContains)
	case f.MaxPrice > 0:
		return "under " + f.MaxPrice.String()
	}
	return "on the menu"
}

// recommend scores available items. When criteria name categories or tags, items
// matching none of them are left out; otherwise every available item is a candidate
// and meal completion decides.
func recommend(c contractx.RecommendCriteria, tenant *catalog.Tenant, cart statex.Cart) GuideResult {
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	inCart := make(map[string]struct{}, len(cart.Lines))
	for _, l := range cart.Lines {
		if it, ok := tenant.Get(l.ItemID); ok {
			inCart[strings.ToLower(it.Category)] = struct{}{}
		}
	}
	categories := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if canonical, ok := tenant.MatchCategory(cat); ok {
			cat = canonical
		}
		categories = append(categories, cat)
	}
	filtered := len(categories) > 0 || len(c.Tags) > 0

	var views []ItemView
	for _, it := range tenant.Items() {
		if !it.Available || (c.MaxPrice > 0 && it.Price > c.MaxPrice) {
			continue
		}
		if _, ordered := cart.Find(it.ID); ordered {
			continue
		}
		matched := 0
		for _, cat := range categories {
			if strings.EqualFold(cat, it.Category) {
				matched += scoreCategory
			}
		}
		for _, tag := range c.Tags {
			if it.HasTag(tag) {
				matched += scoreTag
			}
		}
		if filtered && matched == 0 {
			continue
		}
		score := matched
		if _, seen := inCart[strings.ToLower(it.Category)]; !seen {
			score += scoreCompletion
		}
		views = append(views, view(it, score))
	}
	slices.SortFunc(views, func(a, b ItemView) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(a.Price, b.Price),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if len(views) > limit {
		views = views[:limit]
	}
	if views == nil {
		views = []ItemView{}
	}
	return GuideResult{
		Kind:    contractx.IntentRecommend,
		Items:   views,
		Message: describeRecommend(views),
	}
}

func view(it catalog.Item, score int) ItemView {
	return ItemView{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Price:       it.Price,
		Available:   it.Available,
		Tags:        it.Tags,
		Description: it.Description,
		Score:       score,
	}
}

func describeLookup(views []ItemView, heading string) string {
	if len(views) == 0 {
		return "No menu items matched."
	}
	return fmt.Sprintf("%d item(s) %s: %s.", len(views), heading, listing(views))
}

func describeRecommend(views []ItemView) string {
	if len(views) == 0 {
		return "I have nothing to recommend right now."
	}
	return "I'd recommend " + listing(views) + "."
}

func listing(views []ItemView) string {
	parts := make([]string, len(views))
	for i, v := range views {
		parts[i] = fmt.Sprintf("%s (%s)", v.Name, v.Price)
		if !v.Available {
			parts[i] += " - unavailable"
		}
	}
	return strings.Join(parts, ", ")
}
