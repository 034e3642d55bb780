package catalog

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

func cafeTenant(t *testing.T) *Tenant {
	t.Helper()

	tenant, err := NewTenant("cafe1", Meta{AIName: "Barista", OutletName: "Cafe One"}, []Item{
		{ID: "latte", Name: "Latte", Category: "Coffee", Price: 400, Available: true, Tags: []string{"Hot", "veg"}},
		{ID: "iced-latte", Name: "Iced Latte", Category: "Coffee", Price: 450, Available: true, Tags: []string{"cold", "veg"}},
		{ID: "espresso", Name: "Espresso", Category: "Coffee", Price: 300, Available: false, Tags: []string{"hot"}},
		{ID: "brownie", Name: "Brownie", Category: "Desserts", Price: 350, Available: true, Tags: []string{"veg"}},
		{ID: "cheesecake", Name: "Cheesecake", Category: "Desserts", Price: 500, Available: true},
		{ID: "club", Name: "Club Sandwich", Category: "Food", Price: 800, Available: true, Tags: []string{"non-veg"}},
	})
	if err != nil {
		t.Fatalf("NewTenant() error = %v", err)
	}
	return tenant
}

func TestNewTenantRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := NewTenant("cafe1", Meta{}, []Item{
		{ID: "latte", Name: "Latte", Price: 400},
		{ID: "latte", Name: "Latte Again", Price: 400},
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewTenant() error = %v, want ErrValidation", err)
	}
}

func TestNewTenantRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	_, err := NewTenant("cafe1", Meta{}, []Item{{ID: "x", Name: "X", Price: -1}})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewTenant() error = %v, want ErrValidation", err)
	}
}

func TestTenantItemsOrderedByCategoryThenName(t *testing.T) {
	t.Parallel()

	tenant := cafeTenant(t)
	want := []string{"espresso", "iced-latte", "latte", "brownie", "cheesecake", "club"}
	got := tenant.Items()
	if len(got) != len(want) {
		t.Fatalf("len(Items()) = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("Items()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if cats := tenant.Categories(); len(cats) != 3 || cats[0] != "Coffee" || cats[2] != "Food" {
		t.Fatalf("Categories() = %v", cats)
	}
}

func TestTenantFind(t *testing.T) {
	t.Parallel()

	tenant := cafeTenant(t)
	tests := []struct {
		name   string
		filter contractx.LookupFilters
		want   []string
	}{
		{name: "category is case insensitive", filter: contractx.LookupFilters{Category: "desserts"}, want: []string{"brownie", "cheesecake"}},
		{name: "available only", filter: contractx.LookupFilters{Category: "Coffee", AvailableOnly: true}, want: []string{"iced-latte", "latte"}},
		{name: "price range", filter: contractx.LookupFilters{MinPrice: 350, MaxPrice: 450}, want: []string{"iced-latte", "latte", "brownie"}},
		{name: "name substring", filter: contractx.LookupFilters{NameContains: "LATTE"}, want: []string{"iced-latte", "latte"}},
		{name: "tags must all match", filter: contractx.LookupFilters{Tags: []string{"veg", "hot"}}, want: []string{"latte"}},
		{name: "no match", filter: contractx.LookupFilters{Category: "Soup"}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tenant.Find(tc.filter)
			if got == nil {
				t.Fatal("Find() returned nil, want empty slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Find() returned %d items, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("Find()[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestTenantMatchName(t *testing.T) {
	t.Parallel()

	tenant := cafeTenant(t)
	tests := []struct {
		ref  string
		want []string
	}{
		{ref: "latte", want: []string{"latte"}},
		{ref: "Lattes", want: []string{"latte"}},
		{ref: "brownies", want: []string{"brownie"}},
		{ref: "club", want: []string{"club"}},
		{ref: "iced-latte", want: []string{"iced-latte"}},
		{ref: "sandwich", want: []string{"club"}},
		{ref: "mocha", want: nil},
	}
	for _, tc := range tests {
		got := tenant.MatchName(tc.ref)
		if len(got) != len(tc.want) {
			t.Fatalf("MatchName(%q) = %v, want %v", tc.ref, got, tc.want)
		}
		for i := range tc.want {
			if got[i].ID != tc.want[i] {
				t.Fatalf("MatchName(%q)[%d] = %s, want %s", tc.ref, i, got[i].ID, tc.want[i])
			}
		}
	}
}

func TestTenantMatchNameAmbiguous(t *testing.T) {
	t.Parallel()

	tenant, err := NewTenant("cafe2", Meta{}, []Item{
		{ID: "hot-choc", Name: "Hot Chocolate", Price: 300, Available: true},
		{ID: "choc-cake", Name: "Chocolate Cake", Price: 500, Available: true},
	})
	if err != nil {
		t.Fatalf("NewTenant() error = %v", err)
	}
	if got := tenant.MatchName("chocolate"); len(got) != 2 {
		t.Fatalf("MatchName() = %v, want two candidates", got)
	}
}

func TestTenantGetReturnsCopy(t *testing.T) {
	t.Parallel()

	tenant := cafeTenant(t)
	item, ok := tenant.Get("latte")
	if !ok {
		t.Fatal("Get(latte) not found")
	}
	item.Tags[0] = "mutated"
	again, _ := tenant.Get("latte")
	if again.Tags[0] == "mutated" {
		t.Fatal("Get() leaked internal tag slice")
	}
	if !again.HasTag("HOT") {
		t.Fatalf("tags not normalized: %v", again.Tags)
	}
}
