package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       contractx.Money `json:"price"`
	Available   bool            `json:"available"`
	Tags        []string        `json:"tags,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (it Item) HasTag(tag string) bool {
	return slices.Contains(it.Tags, Normalize(tag))
}

type Meta struct {
	AIName     string
	OutletName string
	Keyterms   []string
}

// Tenant is an immutable menu snapshot. Items are kept in display order:
// category, then name, then id.
type Tenant struct {
	Key        string
	AIName     string
	OutletName string
	Keyterms   []string

	items      []Item
	byID       map[string]int
	categories []string
}

func NewTenant(key string, meta Meta, items []Item) (*Tenant, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: tenant key is required", contractx.ErrValidation)
	}
	t := &Tenant{
		Key:        key,
		AIName:     meta.AIName,
		OutletName: meta.OutletName,
		Keyterms:   slices.Clone(meta.Keyterms),
		items:      make([]Item, 0, len(items)),
		byID:       make(map[string]int, len(items)),
	}
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		it.Name = strings.TrimSpace(it.Name)
		it.Category = strings.TrimSpace(it.Category)
		if it.ID == "" || it.Name == "" {
			return nil, fmt.Errorf("%w: tenant %s: item id and name are required", contractx.ErrValidation, key)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("%w: tenant %s: item %s has a negative price", contractx.ErrValidation, key, it.ID)
		}
		if _, dup := t.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: tenant %s: duplicate item id %s", contractx.ErrValidation, key, it.ID)
		}
		tags := make([]string, 0, len(it.Tags))
		for _, tag := range it.Tags {
			if tag = Normalize(tag); tag != "" && !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
		it.Tags = tags
		t.byID[it.ID] = -1
		t.items = append(t.items, it)
	}
	slices.SortFunc(t.items, compareItems)
	for i, it := range t.items {
		t.byID[it.ID] = i
		if it.Category != "" && !slices.ContainsFunc(t.categories, func(c string) bool { return strings.EqualFold(c, it.Category) }) {
			t.categories = append(t.categories, it.Category)
		}
	}
	return t, nil
}

func compareItems(a, b Item) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)),
		cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		cmp.Compare(a.ID, b.ID),
	)
}

func (t *Tenant) Get(id string) (Item, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Item{}, false
	}
	return cloneItem(t.items[i]), true
}

func (t *Tenant) Items() []Item {
	out := make([]Item, len(t.items))
	for i, it := range t.items {
		out[i] = cloneItem(it)
	}
	return out
}

func (t *Tenant) Categories() []string {
	return slices.Clone(t.categories)
}

// Tags returns the distinct tags used across the menu, sorted.
func (t *Tenant) Tags() []string {
	var tags []string
	for _, it := range t.items {
		for _, tag := range it.Tags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

func (t *Tenant) Len() int {
	return len(t.items)
}

// Find applies f and returns matches in display order. No match is an empty, non-nil slice.
func (t *Tenant) Find(f contractx.LookupFilters) []Item {
	out := []Item{}
	name := Normalize(f.NameContains)
	for _, it := range t.items {
		if f.Category != "" && !strings.EqualFold(it.Category, strings.TrimSpace(f.Category)) {
			continue
		}
		if f.AvailableOnly && !it.Available {
			continue
		}
		if f.MinPrice > 0 && it.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && it.Price > f.MaxPrice {
			continue
		}
		if name != "" && !strings.Contains(Normalize(it.Name), name) && !strings.Contains(StemPhrase(it.Name), StemPhrase(name)) {
			continue
		}
		if !slices.ContainsFunc(f.Tags, func(tag string) bool { return !it.HasTag(tag) }) {
			out = append(out, cloneItem(it))
		}
	}
	return out
}

// MatchName resolves a free-text reference to catalog items. A result with more
// than one item means the reference is ambiguous.
func (t *Tenant) MatchName(ref string) []Item {
	matched := Match(t.items, ref, func(it Item) (string, string) { return it.ID, it.Name })
	for i := range matched {
		matched[i] = cloneItem(matched[i])
	}
	return matched
}

// Match resolves ref against items by tiers (id, exact name, stemmed name, substring).
// The first tier with hits wins.
func Match[T any](items []T, ref string, key func(T) (id, name string)) []T {
	ref = Normalize(ref)
	if ref == "" {
		return nil
	}
	one := Stem(ref)
	tiers := []func(id, name string) bool{
		func(id, _ string) bool { return strings.EqualFold(id, ref) },
		func(_, name string) bool { return name == ref },
		func(_, name string) bool { return Stem(name) == one },
		func(_, name string) bool { return strings.Contains(name, ref) || strings.Contains(name, one) },
	}
	for _, match := range tiers {
		var out []T
		for _, it := range items {
			id, name := key(it)
			if match(id, Normalize(name)) {
				out = append(out, it)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// MatchCategory returns the tenant's spelling of category, if any.
func (t *Tenant) MatchCategory(category string) (string, bool) {
	category = Normalize(category)
	for _, c := range t.categories {
		n := Normalize(c)
		if n == category || Stem(n) == Stem(category) {
			return c, true
		}
	}
	return "", false
}

// Excerpt is the minimal view handed to intent extractors.
func (t *Tenant) Excerpt() []contractx.ExcerptItem {
	out := make([]contractx.ExcerptItem, len(t.items))
	for i, it := range t.items {
		out[i] = contractx.ExcerptItem{ID: it.ID, Name: it.Name, Category: it.Category}
	}
	return out
}

func cloneItem(it Item) Item {
	it.Tags = slices.Clone(it.Tags)
	return it
}

// Normalize lowercases s and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Stem reduces the last word of s to a crude singular form so that "brownies",
// "brownie", "berries" and "berry" compare equal to their counterparts.
func Stem(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 4:
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ie"):
		return s[:len(s)-1]
	case strings.HasSuffix(s, "y") && len(s) > 2:
		return s[:len(s)-1] + "i"
	case strings.HasSuffix(s, "oes"),
		strings.HasSuffix(s, "ches"), strings.HasSuffix(s, "shes"),
		strings.HasSuffix(s, "sses"), strings.HasSuffix(s, "xes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 3:
		return s[:len(s)-1]
	}
	return s
}

// StemPhrase stems every word of s.
func StemPhrase(s string) string {
	words := strings.Fields(Normalize(s))
	for i, w := range words {
		words[i] = Stem(w)
	}
	return strings.Join(words, " ")
}
