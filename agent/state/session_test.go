package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

func TestCartAddMergesAndKeepsFirstPrice(t *testing.T) {
	t.Parallel()

	var cart Cart
	cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 1, UnitPrice: 400})
	cart.Add(CartLine{ItemID: "brownie", Name: "Brownie", Quantity: 1, UnitPrice: 350})
	cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 2, UnitPrice: 500})

	if len(cart.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(cart.Lines))
	}
	latte, _ := cart.Find("latte")
	if latte.Quantity != 3 || latte.UnitPrice != 400 {
		t.Fatalf("latte line = %+v, want qty 3 at 4.00", latte)
	}
	if cart.Lines[0].ItemID != "latte" {
		t.Fatalf("insertion order lost: %+v", cart.Lines)
	}
	if got := cart.Subtotal(); got != 1550 {
		t.Fatalf("Subtotal() = %s, want 15.50", got)
	}
	if got := cart.ItemCount(); got != 4 {
		t.Fatalf("ItemCount() = %d, want 4", got)
	}
	if got := cart.Summary(); got != "3x Latte, 1x Brownie" {
		t.Fatalf("Summary() = %q", got)
	}
	if err := cart.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestCartRemove(t *testing.T) {
	t.Parallel()

	newCart := func() Cart {
		var c Cart
		c.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 3, UnitPrice: 400})
		return c
	}

	tests := []struct {
		name    string
		qty     int
		wantErr error
		wantQty int
	}{
		{name: "whole line", qty: 0, wantQty: 0},
		{name: "partial", qty: 2, wantQty: 1},
		{name: "exact quantity drops line", qty: 3, wantQty: 0},
		{name: "too many", qty: 4, wantErr: contractx.ErrInvalidQuantity, wantQty: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cart := newCart()
			err := cart.Remove("latte", tc.qty)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Remove() error = %v, want %v", err, tc.wantErr)
			}
			line, ok := cart.Find("latte")
			if tc.wantQty == 0 {
				if ok {
					t.Fatalf("line still present: %+v", line)
				}
				return
			}
			if line.Quantity != tc.wantQty {
				t.Fatalf("quantity = %d, want %d", line.Quantity, tc.wantQty)
			}
		})
	}

	cart := newCart()
	if err := cart.Remove("mocha", 0); !errors.Is(err, contractx.ErrLineNotFound) {
		t.Fatalf("Remove(mocha) error = %v, want ErrLineNotFound", err)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := NewSession(Key{TenantKey: "cafe1", SessionID: "s1"}, time.Now())
	s.Cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 1, UnitPrice: 400})

	cp := s.Clone()
	cp.Cart.Lines[0].Quantity = 9
	cp.Cart.Add(CartLine{ItemID: "brownie", Name: "Brownie", Quantity: 1, UnitPrice: 350})

	if s.Cart.Lines[0].Quantity != 1 || len(s.Cart.Lines) != 1 {
		t.Fatalf("original mutated through clone: %+v", s.Cart)
	}
}

func TestSessionExtractContext(t *testing.T) {
	t.Parallel()

	s := NewSession(Key{TenantKey: "cafe1", SessionID: "s1"}, time.Now())
	s.Context = Context{LastIntent: contractx.IntentAddItem, LastItemID: "latte"}
	s.Cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 1})

	got := s.ExtractContext()
	if got.LastItemID != "latte" || got.LastIntent != contractx.IntentAddItem {
		t.Fatalf("ExtractContext() = %+v", got)
	}
	if len(got.CartItems) != 1 || got.CartItems[0] != "latte" {
		t.Fatalf("CartItems = %v", got.CartItems)
	}
}

func TestKeyValidate(t *testing.T) {
	t.Parallel()

	if err := (Key{TenantKey: "cafe1"}).Validate(); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Validate() error = %v, want ErrInvalidKey", err)
	}
	if err := (Key{TenantKey: "cafe1", SessionID: "s1"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestCartValidateCapsLineQuantity(t *testing.T) {
	t.Parallel()

	cart := Cart{Lines: []CartLine{{ItemID: "latte", Name: "Latte", Quantity: MaxLineQuantity, UnitPrice: 400}}}
	if err := cart.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	cart.Lines[0].Quantity = MaxLineQuantity + 1
	if err := cart.Validate(); err == nil {
		t.Fatalf("Validate() accepted quantity %d", cart.Lines[0].Quantity)
	}
}
