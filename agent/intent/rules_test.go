package intent

import (
	"context"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

func cafeRequest(query string) contractx.ExtractRequest {
	return contractx.ExtractRequest{
		Query:      query,
		Tool:       contractx.ToolOrderManagement,
		Categories: []string{"Coffee", "Desserts", "Food"},
		Tags:       []string{"cold", "hot", "non-veg", "veg"},
		Items: []contractx.ExcerptItem{
			{ID: "latte", Name: "Latte", Category: "Coffee"},
			{ID: "iced-latte", Name: "Iced Latte", Category: "Coffee"},
			{ID: "espresso", Name: "Espresso", Category: "Coffee"},
			{ID: "brownie", Name: "Chocolate Brownie", Category: "Desserts"},
			{ID: "choc-cake", Name: "Chocolate Cake", Category: "Desserts"},
			{ID: "club", Name: "Club Sandwich", Category: "Food"},
		},
	}
}

func TestRulesMutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		context contractx.SessionContext
		want    contractx.Intent
	}{
		{name: "article", query: "add a latte", want: contractx.AddItem("latte", 1)},
		{name: "polite with number", query: "Please, I'd like 2 iced lattes!", want: contractx.AddItem("iced-latte", 2)},
		{name: "number word", query: "can I get three brownies", want: contractx.AddItem("brownie", 3)},
		{name: "bare singular", query: "add club sandwich to my cart", want: contractx.AddItem("club", 1)},
		{name: "bare plural needs quantity", query: "add lattes", want: contractx.Unresolved(contractx.ReasonMissingQuantity)},
		{name: "strict add", query: "ADD:latte:2", want: contractx.AddItem("latte", 2)},
		{name: "strict add default quantity", query: "ADD:Latte", want: contractx.AddItem("latte", 1)},
		{name: "strict set without quantity", query: "SET:latte", want: contractx.Unresolved(contractx.ReasonMissingQuantity)},
		{name: "strict remove whole line", query: "REMOVE:latte", want: contractx.RemoveItem("latte", 0)},
		{name: "strict clear", query: "CLEAR", want: contractx.ClearCart()},
		{name: "cancel order", query: "please cancel order", want: contractx.ClearCart()},
		{name: "clear cart", query: "clear my cart please", want: contractx.ClearCart()},
		{name: "remove line", query: "remove the latte", want: contractx.RemoveItem("latte", 0)},
		{name: "remove some", query: "remove one latte from my cart", want: contractx.RemoveItem("latte", 1)},
		{name: "set", query: "change latte to 3", want: contractx.SetQuantity("latte", 3)},
		{
			name:    "set pronoun",
			query:   "make it 2",
			context: contractx.SessionContext{LastItemID: "latte"},
			want:    contractx.SetQuantity("latte", 2),
		},
		{
			name:    "another",
			query:   "add another one",
			context: contractx.SessionContext{LastItemID: "brownie"},
			want:    contractx.AddItem("brownie", 1),
		},
		{name: "pronoun without reference", query: "add it", want: contractx.Unresolved(contractx.ReasonNoReference)},
		{
			name:  "ambiguous",
			query: "add a chocolate",
			want:  contractx.Unresolved(contractx.ReasonAmbiguousItem, "Chocolate Brownie", "Chocolate Cake"),
		},
		{
			name:    "removal prefers cart",
			query:   "remove the chocolate",
			context: contractx.SessionContext{CartItems: []string{"choc-cake"}},
			want:    contractx.RemoveItem("choc-cake", 0),
		},
		{name: "several items", query: "add a latte and a brownie", want: contractx.Unresolved(contractx.ReasonMultipleItems)},
		{name: "unknown item", query: "add a pizza", want: contractx.UnknownItem("pizza")},
	}

	rules := NewRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := cafeRequest(tt.query)
			req.Context = tt.context
			got, err := rules.Extract(context.Background(), req)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Extract(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestRulesGuide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  contractx.Intent
	}{
		{name: "category", query: "show me desserts", want: contractx.Lookup(contractx.LookupFilters{Category: "Desserts"})},
		{name: "price ceiling", query: "anything under $5?", want: contractx.Lookup(contractx.LookupFilters{MaxPrice: 500})},
		{
			name:  "category and price",
			query: "desserts under 4.50",
			want:  contractx.Lookup(contractx.LookupFilters{Category: "Desserts", MaxPrice: 450}),
		},
		{
			name:  "price range",
			query: "show items between 3 and 5",
			want:  contractx.Lookup(contractx.LookupFilters{MinPrice: 300, MaxPrice: 500}),
		},
		{name: "tag synonym", query: "do you have vegetarian options", want: contractx.Lookup(contractx.LookupFilters{Tags: []string{"veg"}})},
		{name: "asked name", query: "do you have lattes", want: contractx.Lookup(contractx.LookupFilters{NameContains: "lattes"})},
		{
			name:  "availability",
			query: "is the espresso available today?",
			want:  contractx.Lookup(contractx.LookupFilters{NameContains: "espresso", AvailableOnly: true}),
		},
		{name: "recommend", query: "what do you recommend", want: contractx.Recommend(contractx.RecommendCriteria{})},
		{name: "whats good", query: "what's good here?", want: contractx.Recommend(contractx.RecommendCriteria{})},
		{
			name:  "recommend with criteria",
			query: "recommend 2 desserts under 6",
			want:  contractx.Recommend(contractx.RecommendCriteria{Categories: []string{"Desserts"}, MaxPrice: 600, Limit: 2}),
		},
		{name: "unknown item falls back to guide", query: "i want a dessert", want: contractx.Lookup(contractx.LookupFilters{Category: "Desserts"})},
		{
			name:  "request for suggestions",
			query: "give me 3 suggestions",
			want:  contractx.Recommend(contractx.RecommendCriteria{Limit: 3}),
		},
		{name: "no match", query: "tell me a joke", want: contractx.Unresolved(contractx.ReasonNoMatch)},
		{name: "empty", query: "   ", want: contractx.Unresolved(contractx.ReasonEmptyQuery)},
	}

	rules := NewRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := cafeRequest(tt.query)
			req.Tool = contractx.ToolMenuGuide
			got, err := rules.Extract(context.Background(), req)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Extract(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestRulesHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRules().Extract(ctx, cafeRequest("add a latte")); err == nil {
		t.Fatal("Extract() error = nil, want context error")
	}
}
