package intent

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

var (
	reNonWord = regexp.MustCompile(`[^a-z0-9.$\-]+`)
	reNonVeg  = regexp.MustCompile(`\bnon[ \-]?veg(?:etarian)?\b`)

	politePrefixes = []string{"please ", "pls ", "hi ", "hello ", "hey ", "ok ", "okay ", "so ", "um ", "can you ", "could you ", "would you ", "will you "}
	politeSuffixes = []string{" please", " pls", " thanks", " thank you", " thx"}
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"dozen": 12, "couple": 2, "pair": 2, "single": 1, "double": 2,
}

var tagSynonyms = map[string]string{
	"vegetarian": "veg",
	"veggie":     "veg",
	"nonveg":     "non-veg",
}

// clean lowercases q, drops punctuation and politeness so the grammar can anchor on verbs.
func clean(q string) string {
	s := strings.ToLower(q)
	s = strings.NewReplacer("'", " ", "’", " ", "&", " and ").Replace(s)
	s = reNonWord.ReplaceAllString(s, " ")
	s = reNonVeg.ReplaceAllString(s, "non-veg")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.TrimRight(w, ".")
	}
	s = strings.Join(slices.DeleteFunc(words, func(w string) bool { return w == "" }), " ")

	for changed := true; changed; {
		changed = false
		for _, p := range politePrefixes {
			if strings.HasPrefix(s, p) {
				s, changed = strings.TrimPrefix(s, p), true
			}
		}
		for _, p := range politeSuffixes {
			if strings.HasSuffix(s, p) {
				s, changed = strings.TrimSuffix(s, p), true
			}
		}
	}
	return s
}

// parseCount reads a quantity token such as "3", "3x" or "three".
func parseCount(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	tok = strings.TrimSuffix(strings.TrimPrefix(tok, "x"), "x")
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	return 0, false
}

type quantity struct {
	n        int
	explicit bool // a number was given
	article  bool // "a", "an", "another"
}

var fillerWords = map[string]bool{
	"the": true, "my": true, "some": true, "of": true, "more": true, "x": true,
	"order": true, "orders": true, "portion": true, "portions": true, "serving": true, "servings": true,
	"plate": true, "plates": true, "piece": true, "pieces": true, "cup": true, "cups": true,
	"glass": true, "glasses": true, "bowl": true, "bowls": true,
}

var trailingFillers = []string{" too", " as well", " also", " now", " for me", " each", " instead", " please"}

// splitQuantity separates a leading quantity from the item mention.
func splitQuantity(phrase string) (quantity, string) {
	var q quantity
	words := strings.Fields(phrase)
	i := 0
	for ; i < len(words); i++ {
		w := words[i]
		if (w == "a" || w == "an" || w == "another") && !q.explicit {
			q.n, q.article = 1, true
			continue
		}
		if n, ok := parseCount(w); ok && !q.explicit {
			q.n, q.explicit = n, true
			continue
		}
		if fillerWords[w] {
			continue
		}
		break
	}
	rest := strings.Join(words[i:], " ")
	for changed := true; changed; {
		changed = false
		for _, f := range trailingFillers {
			if strings.HasSuffix(rest, f) {
				rest, changed = strings.TrimSuffix(rest, f), true
			}
		}
	}
	return q, rest
}

var pronouns = map[string]bool{
	"it": true, "that": true, "this": true, "that one": true, "this one": true, "them": true,
	"those": true, "these": true, "same": true, "the same": true, "one": true, "the last one": true,
	"same thing": true, "the same thing": true,
}

// resolveItem grounds a mention on the excerpt. preferCart narrows ambiguous
// matches to items already in the cart, which is what removals usually mean.
func resolveItem(mention string, req contractx.ExtractRequest, preferCart bool) (contractx.ExcerptItem, contractx.Intent, bool) {
	mention = strings.TrimSpace(mention)
	if mention == "" {
		return contractx.ExcerptItem{}, contractx.Unresolved(contractx.ReasonMissingItem), false
	}
	if pronouns[mention] {
		id := req.Context.LastItemID
		if id == "" || !req.HasItem(id) {
			return contractx.ExcerptItem{}, contractx.Unresolved(contractx.ReasonNoReference), false
		}
		i := slices.IndexFunc(req.Items, func(it contractx.ExcerptItem) bool { return it.ID == id })
		return req.Items[i], contractx.Intent{}, true
	}
	if strings.Contains(" "+mention+" ", " and ") || strings.Contains(mention, ",") {
		return contractx.ExcerptItem{}, contractx.Unresolved(contractx.ReasonMultipleItems), false
	}

	matches := catalog.Match(req.Items, mention, func(it contractx.ExcerptItem) (string, string) { return it.ID, it.Name })
	if len(matches) > 1 && preferCart {
		inCart := slices.DeleteFunc(slices.Clone(matches), func(it contractx.ExcerptItem) bool {
			return !slices.Contains(req.Context.CartItems, it.ID)
		})
		if len(inCart) == 1 {
			matches = inCart
		}
	}
	switch len(matches) {
	case 0:
		return contractx.ExcerptItem{}, contractx.UnknownItem(mention), false
	case 1:
		return matches[0], contractx.Intent{}, true
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return contractx.ExcerptItem{}, contractx.Unresolved(contractx.ReasonAmbiguousItem, names...), false
}

// isPlural reports a bare plural mention ("lattes") that is not itself the item's name.
func isPlural(mention string, item contractx.ExcerptItem) bool {
	if catalog.Normalize(item.Name) == mention {
		return false
	}
	return strings.HasSuffix(mention, "s") && !strings.HasSuffix(mention, "ss")
}

func stemWords(s string) []string {
	return strings.Fields(catalog.StemPhrase(s))
}

func containsSeq(words, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(words) {
		return false
	}
	for i := 0; i+len(seq) <= len(words); i++ {
		if slices.Equal(words[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}

func hasWord(text string, words ...string) bool {
	fields := strings.Fields(text)
	for _, w := range words {
		if strings.Contains(w, " ") {
			if containsSeq(fields, strings.Fields(w)) {
				return true
			}
			continue
		}
		if slices.Contains(fields, w) {
			return true
		}
	}
	return false
}

func mentionedCategories(text string, categories []string) []string {
	words := stemWords(cleanCategory(text))
	var out []string
	for _, c := range categories {
		if containsSeq(words, stemWords(cleanCategory(c))) {
			out = append(out, c)
		}
	}
	return out
}

func cleanCategory(s string) string {
	return reNonWord.ReplaceAllString(strings.ToLower(strings.ReplaceAll(s, "&", " and ")), " ")
}

func mentionedTags(text string, tags []string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		if syn, ok := tagSynonyms[f]; ok {
			fields[i] = syn
		}
	}
	var out []string
	for _, tag := range tags {
		t := catalog.Normalize(tag)
		if slices.Contains(fields, t) || containsSeq(fields, strings.Fields(t)) {
			out = append(out, tag)
		}
	}
	return out
}
