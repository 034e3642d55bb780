package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("load missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Load(context.Background(), Key{TenantKey: "cafe1", SessionID: "nope"})
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("create then load", func(t *testing.T) {
		store := newStore(t)
		key := Key{TenantKey: "cafe1", SessionID: "s1"}
		sess := NewSession(key, time.Now())
		if err := store.Create(context.Background(), sess); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if sess.Version != 1 {
			t.Fatalf("Version after Create = %d, want 1", sess.Version)
		}
		if err := store.Create(context.Background(), NewSession(key, time.Now())); !errors.Is(err, ErrSessionExists) {
			t.Fatalf("second Create() error = %v, want ErrSessionExists", err)
		}
		got, err := store.Load(context.Background(), key)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != 1 || got.Key() != key {
			t.Fatalf("Load() = %+v", got)
		}
	})

	t.Run("compare and swap", func(t *testing.T) {
		store := newStore(t)
		key := Key{TenantKey: "cafe1", SessionID: "s2"}
		sess, err := LoadOrCreate(context.Background(), store, key, time.Now())
		if err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}

		next := sess.Clone()
		next.Cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 1, UnitPrice: 400})
		if err := store.CompareAndSwap(context.Background(), next, sess.Version); err != nil {
			t.Fatalf("CompareAndSwap() error = %v", err)
		}
		if next.Version != 2 {
			t.Fatalf("Version after CAS = %d, want 2", next.Version)
		}

		stale := sess.Clone()
		stale.Cart.Add(CartLine{ItemID: "brownie", Name: "Brownie", Quantity: 1, UnitPrice: 350})
		err = store.CompareAndSwap(context.Background(), stale, sess.Version)
		if !errors.Is(err, contractx.ErrStoreConflict) {
			t.Fatalf("stale CompareAndSwap() error = %v, want ErrStoreConflict", err)
		}

		got, err := store.Load(context.Background(), key)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != 2 || got.Cart.Summary() != "1x Latte" {
			t.Fatalf("stored session = %+v", got)
		}
		if got.Cart.Lines[0].UnitPrice != 400 {
			t.Fatalf("price snapshot = %s, want 4.00", got.Cart.Lines[0].UnitPrice)
		}
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		store := newStore(t)
		a := Key{TenantKey: "cafe1", SessionID: "shared"}
		b := Key{TenantKey: "cafe2", SessionID: "shared"}
		sa, err := LoadOrCreate(context.Background(), store, a, time.Now())
		if err != nil {
			t.Fatalf("LoadOrCreate(a) error = %v", err)
		}
		sa.Cart.Add(CartLine{ItemID: "latte", Name: "Latte", Quantity: 1, UnitPrice: 400})
		if err := store.CompareAndSwap(context.Background(), sa, 1); err != nil {
			t.Fatalf("CompareAndSwap(a) error = %v", err)
		}
		sb, err := LoadOrCreate(context.Background(), store, b, time.Now())
		if err != nil {
			t.Fatalf("LoadOrCreate(b) error = %v", err)
		}
		if !sb.Cart.Empty() {
			t.Fatalf("tenant b sees tenant a's cart: %+v", sb.Cart)
		}
	})

	t.Run("separator inside key parts", func(t *testing.T) {
		store := newStore(t)
		a := Key{TenantKey: "a:b", SessionID: "c"}
		b := Key{TenantKey: "a", SessionID: "b:c"}
		if _, err := LoadOrCreate(context.Background(), store, a, time.Now()); err != nil {
			t.Fatalf("LoadOrCreate(a) error = %v", err)
		}
		if _, err := store.Load(context.Background(), b); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Load(b) error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		key := Key{TenantKey: "cafe1", SessionID: "s3"}
		if _, err := LoadOrCreate(context.Background(), store, key, time.Now()); err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}
		if err := store.Delete(context.Background(), key); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Load(context.Background(), key); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Load() after Delete error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestMemoryStoreContract(t *testing.T) {
	t.Parallel()

	runStoreContract(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestLoadOrCreateConcurrentFirstReference(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	key := Key{TenantKey: "cafe1", SessionID: "race"}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := LoadOrCreate(context.Background(), store, key, time.Now())
			if err == nil && s.Version != 1 {
				err = errors.New("unexpected version")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("LoadOrCreate() error = %v", err)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
}

func TestLoadOrCreateRejectsIncompleteKey(t *testing.T) {
	t.Parallel()

	_, err := LoadOrCreate(context.Background(), NewMemoryStore(), Key{SessionID: "s1"}, time.Now())
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("LoadOrCreate() error = %v, want ErrInvalidKey", err)
	}
}
