package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

const numberAlt = `\d+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|dozen`

var (
	reClear = regexp.MustCompile(`^(?:(?:clear|empty|reset|wipe)(?: out)?|cancel|delete|remove|drop|scrap)(?: (?:my|the|whole|entire|full|all))* (?:cart|order|basket|bag|everything|items)$|^(?:clear|start over|start again|clear all|empty|remove everything|remove all|cancel everything)$`)

	reSet      = regexp.MustCompile(`^(?:set|change|update|make|adjust) (?:the |my )?(?:quantity of |number of |amount of )?(.+?) (?:to|into|=) (\S+)(?: instead)?$`)
	reSetShort = regexp.MustCompile(`^(?:make|set) (it|that|this|them|those) (` + numberAlt + `)$`)
	reAnother  = regexp.MustCompile(`^(?:add |and |also )?(?:another|one more)(?: (.+?))?$`)
	reRemove   = regexp.MustCompile(`^(?:remove|delete|drop|take off|take out|cancel|minus|get rid of|no more|i don t want|i do not want) (.+?)(?: (?:from|off|out of) (?:my |the )?(?:cart|order|basket|bag))?(?: anymore)?$`)
	reAdd      = regexp.MustCompile(`^(?:add|order|buy|get me|give me|grab me|bring me|i want|i d like|i would like|i ll have|i will have|i ll take|i will take|i ll get|can i have|can i get|could i have|could i get|may i have|let me get|let me have|i need|we ll have|we will have|we d like|we want)(?: to (?:order|add|have|get|try))? (.+?)(?: (?:to|in|into|on) (?:my |the )?(?:cart|order|basket|bag))?(?: (?:too|as well|also))?$`)

	reMaxPrice = regexp.MustCompile(`(?:under|below|less than|cheaper than|up to|max|maximum|at most|within|no more than) \$?(\d+(?:\.\d{1,2})?)`)
	reMinPrice = regexp.MustCompile(`(?:over|above|more than|at least|from) \$?(\d+(?:\.\d{1,2})?)`)
	reBetween  = regexp.MustCompile(`between \$?(\d+(?:\.\d{1,2})?) and \$?(\d+(?:\.\d{1,2})?)`)
	reLimit    = regexp.MustCompile(`(?:recommend|suggest|top|best|pick|me) (` + numberAlt + `)\b|\b(` + numberAlt + `) (?:suggestions|options|ideas|things|items|dishes|picks|recommendations)`)

	reAsk       = regexp.MustCompile(`^(?:do you (?:have|sell|serve|make)|is there|are there|have you got|you got|got any|how much (?:is|are|does|do|for)|what s the price of|what is the price of|price of|cost of|tell me about|what about|what s in|what is in) (?:a |an |any |the |some |your )?(.+?)(?: (?:cost|costs|available|on the menu|in stock|today|right now))*$`)
	reAvailable = regexp.MustCompile(`^(?:is|are) (?:the |your |a |an )?(.+?) (?:available|in stock|on the menu)(?: today| right now)?$`)
)

var recommendWords = []string{
	"recommend", "recommendation", "recommendations", "suggest", "suggestion", "suggestions",
	"popular", "best", "good", "favourite", "favorite", "special", "specials", "signature",
	"should i try", "should i get", "what to try",
}

var lookupWords = []string{
	"menu", "show", "list", "anything", "something", "options", "browse", "offer", "sell", "serve",
	"price", "prices", "cost", "cheap", "cheapest", "available",
	"what do you have", "what have you got", "what s on", "what is on", "what can i order", "what can i get",
}

// Rules is the deterministic extractor. It understands the strict ADD/REMOVE/SET/CLEAR
// wire commands and a small English grammar, and reports no_match for anything else.
type Rules struct{}

func NewRules() *Rules {
	return &Rules{}
}

func (r *Rules) Extract(ctx context.Context, req contractx.ExtractRequest) (contractx.Intent, error) {
	if err := ctx.Err(); err != nil {
		return contractx.Intent{}, err
	}
	raw := strings.TrimSpace(req.Query)
	if raw == "" {
		return contractx.Unresolved(contractx.ReasonEmptyQuery), nil
	}
	if in, ok := parseCommand(raw, req); ok {
		return in, nil
	}

	text := clean(raw)
	if reClear.MatchString(text) {
		return contractx.ClearCart(), nil
	}
	mut, isMutation := parseMutation(text, req)
	if isMutation && (mut.Reason != contractx.ReasonUnknownItem || !hasGuideSignal(text, req)) {
		return mut, nil
	}
	if in, ok := parseGuide(text, req); ok {
		return in, nil
	}
	if isMutation {
		return mut, nil
	}
	return contractx.Unresolved(contractx.ReasonNoMatch), nil
}

// parseCommand handles "ADD:<ref>:<qty>", "REMOVE:<ref>[:<qty>]", "SET:<ref>:<qty>" and "CLEAR".
func parseCommand(raw string, req contractx.ExtractRequest) (contractx.Intent, bool) {
	upper := strings.ToUpper(raw)
	if upper == "CLEAR" || strings.HasPrefix(upper, "CLEAR:") || strings.Contains(upper, "CANCEL ORDER") {
		return contractx.ClearCart(), true
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return contractx.Intent{}, false
	}
	op := strings.ToUpper(strings.TrimSpace(parts[0]))
	if op != "ADD" && op != "REMOVE" && op != "SET" {
		return contractx.Intent{}, false
	}

	qty, hasQty := 0, len(parts) == 3
	if hasQty {
		n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return contractx.Unresolved(contractx.ReasonMissingQuantity), true
		}
		qty = n
	}

	item, fail, ok := resolveItem(strings.TrimSpace(parts[1]), req, op == "REMOVE")
	if !ok {
		return fail, true
	}
	switch op {
	case "ADD":
		if !hasQty {
			qty = 1
		}
		return contractx.AddItem(item.ID, qty), true
	case "REMOVE":
		return contractx.RemoveItem(item.ID, qty), true
	default:
		if !hasQty {
			return contractx.Unresolved(contractx.ReasonMissingQuantity), true
		}
		return contractx.SetQuantity(item.ID, qty), true
	}
}

func parseMutation(text string, req contractx.ExtractRequest) (contractx.Intent, bool) {
	if m := reSetShort.FindStringSubmatch(text); m != nil {
		return setIntent(m[1], m[2], req), true
	}
	if m := reSet.FindStringSubmatch(text); m != nil {
		if _, ok := parseCount(m[2]); ok {
			return setIntent(m[1], m[2], req), true
		}
	}
	if m := reAnother.FindStringSubmatch(text); m != nil {
		mention := m[1]
		if mention == "" || mention == "one" {
			mention = "it"
		}
		_, mention = splitQuantity(mention)
		item, fail, ok := resolveItem(orPronoun(mention), req, false)
		if !ok {
			return fail, true
		}
		return contractx.AddItem(item.ID, 1), true
	}
	if m := reRemove.FindStringSubmatch(text); m != nil {
		q, mention := splitQuantity(m[1])
		item, fail, ok := resolveItem(orPronoun(mention), req, true)
		if !ok {
			return fail, true
		}
		qty := 0
		if q.explicit || q.article {
			qty = q.n
		}
		return contractx.RemoveItem(item.ID, qty), true
	}
	if m := reAdd.FindStringSubmatch(text); m != nil {
		q, mention := splitQuantity(m[1])
		item, fail, ok := resolveItem(orPronoun(mention), req, false)
		if !ok {
			return fail, true
		}
		switch {
		case q.explicit, q.article:
			return contractx.AddItem(item.ID, q.n), true
		case isPlural(mention, item):
			return contractx.Unresolved(contractx.ReasonMissingQuantity), true
		}
		return contractx.AddItem(item.ID, 1), true
	}
	return contractx.Intent{}, false
}

func setIntent(mention, count string, req contractx.ExtractRequest) contractx.Intent {
	n, _ := parseCount(count)
	_, mention = splitQuantity(mention)
	item, fail, ok := resolveItem(orPronoun(mention), req, true)
	if !ok {
		return fail
	}
	return contractx.SetQuantity(item.ID, n)
}

// orPronoun treats a mention consumed entirely by its quantity ("remove one") as "it".
func orPronoun(mention string) string {
	if strings.TrimSpace(mention) == "" {
		return "it"
	}
	return mention
}

func hasGuideSignal(text string, req contractx.ExtractRequest) bool {
	minP, maxP := parsePrice(text)
	return hasWord(text, recommendWords...) ||
		hasWord(text, "something", "anything") ||
		len(mentionedCategories(text, req.Categories)) > 0 ||
		len(mentionedTags(text, req.Tags)) > 0 ||
		minP > 0 || maxP > 0
}

func parseGuide(text string, req contractx.ExtractRequest) (contractx.Intent, bool) {
	minP, maxP := parsePrice(text)
	cats := mentionedCategories(text, req.Categories)
	tags := mentionedTags(text, req.Tags)
	available := hasWord(text, "available", "in stock", "right now", "can i order")

	if hasWord(text, recommendWords...) {
		return contractx.Recommend(contractx.RecommendCriteria{
			Categories: cats,
			Tags:       tags,
			MaxPrice:   maxP,
			Limit:      parseLimit(text),
		}), true
	}

	name := ""
	if m := reAvailable.FindStringSubmatch(text); m != nil {
		available = true
		name = askedName(m[1], cats, tags)
	} else if m := reAsk.FindStringSubmatch(text); m != nil {
		name = askedName(m[1], cats, tags)
	}

	if len(cats) == 0 && len(tags) == 0 && minP == 0 && maxP == 0 && name == "" && !hasWord(text, lookupWords...) {
		return contractx.Intent{}, false
	}
	f := contractx.LookupFilters{
		NameContains:  name,
		Tags:          tags,
		MinPrice:      minP,
		MaxPrice:      maxP,
		AvailableOnly: available,
	}
	if len(cats) > 0 {
		f.Category = cats[0]
	}
	return contractx.Lookup(f), true
}

// askedName extracts the item word from "do you have lattes" style questions, unless
// the phrase was already understood as a category or tag.
func askedName(phrase string, cats, tags []string) string {
	_, phrase = splitQuantity(phrase)
	if phrase == "" || len(cats) > 0 || len(tags) > 0 || hasWord(phrase, "anything", "something", "options", "food", "menu") {
		return ""
	}
	return catalog.Normalize(phrase)
}

func parsePrice(text string) (minP, maxP contractx.Money) {
	if m := reBetween.FindStringSubmatch(text); m != nil {
		minP, _ = contractx.ParseMoney(m[1])
		maxP, _ = contractx.ParseMoney(m[2])
		return minP, maxP
	}
	if m := reMaxPrice.FindStringSubmatch(text); m != nil {
		maxP, _ = contractx.ParseMoney(m[1])
	}
	if m := reMinPrice.FindStringSubmatch(text); m != nil {
		minP, _ = contractx.ParseMoney(m[1])
	}
	return minP, maxP
}

func parseLimit(text string) int {
	if m := reLimit.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1] + m[2]); ok {
			return n
		}
	}
	if hasWord(text, "a few", "few") {
		return 3
	}
	return 0
}
