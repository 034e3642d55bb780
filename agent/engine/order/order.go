// Package order applies cart mutations to a session under a per-session lock and a
// versioned compare-and-swap, so concurrent writers never lose an update.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanpawarit/chative-food-order/agent/catalog"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
)

const defaultConflictRetries = 5

type LineView struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice contractx.Money `json:"unit_price"`
	Total     contractx.Money `json:"total"`
}

type CartResult struct {
	Kind      contractx.IntentKind `json:"kind"`
	Lines     []LineView           `json:"lines"`
	Subtotal  contractx.Money      `json:"subtotal"`
	ItemCount int                  `json:"item_count"`
	Summary   string               `json:"summary"`
	Message   string               `json:"message"`
	Version   int64                `json:"version"`
}

type Option func(*Engine)

// WithConflictRetries bounds how many CAS conflicts are retried before giving up.
func WithConflictRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.conflictRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

type Engine struct {
	store           statex.Store
	locks           *Locks
	conflictRetries int
	now             func() time.Time
}

func New(store statex.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		locks:           NewLocks(),
		conflictRetries: defaultConflictRetries,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// mutation is a validated change ready to apply to a session copy.
type mutation struct {
	kind contractx.IntentKind
	item catalog.Item
	ref  string
	qty  int
}

// Handle validates in against the tenant catalog, then commits it to the session's cart.
// Validation failures leave the stored cart untouched.
func (e *Engine) Handle(ctx context.Context, tenant *catalog.Tenant, key statex.Key, in contractx.Intent) (CartResult, error) {
	if tenant == nil || tenant.Key != key.TenantKey {
		return CartResult{}, fmt.Errorf("%w: tenant does not own session %s", contractx.ErrValidation, key)
	}
	m, err := prepare(tenant, in)
	if err != nil {
		return CartResult{}, err
	}

	// The extractor has already run; only the store read-modify-write is serialized.
	unlock, err := e.locks.Lock(ctx, key.String())
	if err != nil {
		return CartResult{}, err
	}
	defer unlock()

	log := zerolog.Ctx(ctx)
	for attempt := 0; ; attempt++ {
		cur, err := statex.LoadOrCreate(ctx, e.store, key, e.now())
		if err != nil {
			return CartResult{}, err
		}
		next := cur.Clone()
		msg, err := apply(next, m)
		if err != nil {
			return CartResult{}, err
		}
		next.Touch(e.now())

		err = e.store.CompareAndSwap(ctx, next, cur.Version)
		if err == nil {
			return result(next, m.kind, msg), nil
		}
		if !errors.Is(err, contractx.ErrStoreConflict) {
			return CartResult{}, err
		}
		if attempt >= e.conflictRetries {
			return CartResult{}, err
		}
		log.Debug().Int("attempt", attempt+1).Str("session", key.String()).Msg("cart write conflict, retrying")
	}
}

func prepare(tenant *catalog.Tenant, in contractx.Intent) (mutation, error) {
	m := mutation{kind: in.Kind, ref: in.ItemRef, qty: in.Quantity}
	switch in.Kind {
	case contractx.IntentClearCart:
		return m, nil
	case contractx.IntentRemoveItem:
		if in.ItemRef == "" {
			return m, contractx.Userf(contractx.ErrValidation, "Which item should I remove?")
		}
		if in.Quantity < 0 {
			return m, contractx.Userf(contractx.ErrInvalidQuantity, "Quantity must be a positive number.")
		}
		if in.Quantity > statex.MaxLineQuantity {
			return m, tooMany(in.ItemRef)
		}
		if it, ok := tenant.Get(in.ItemRef); ok {
			m.item = it
		}
		return m, nil
	case contractx.IntentAddItem, contractx.IntentSetQuantity:
		it, ok := tenant.Get(in.ItemRef)
		if !ok {
			return m, contractx.Userf(contractx.ErrItemNotFound, "Sorry, %s is not on the menu.", displayRef(in.ItemRef))
		}
		if in.Quantity <= 0 {
			return m, contractx.Userf(contractx.ErrInvalidQuantity, "Quantity for %s must be at least 1.", it.Name)
		}
		if in.Quantity > statex.MaxLineQuantity {
			return m, tooMany(it.Name)
		}
		m.item = it
		return m, nil
	default:
		return m, fmt.Errorf("%w: order management cannot handle %s", contractx.ErrValidation, in.Kind)
	}
}

func apply(s *statex.Session, m mutation) (string, error) {
	switch m.kind {
	case contractx.IntentAddItem:
		if err := checkAvailable(m.item); err != nil {
			return "", err
		}
		if line, ok := s.Cart.Find(m.item.ID); ok && line.Quantity > statex.MaxLineQuantity-m.qty {
			return "", contractx.Userf(contractx.ErrInvalidQuantity,
				"You already have %d %s; a line can hold at most %d.", line.Quantity, line.Name, statex.MaxLineQuantity)
		}
		s.Cart.Add(newLine(m.item, m.qty))
		s.Context = statex.Context{LastIntent: m.kind, LastItemID: m.item.ID}
		return fmt.Sprintf("Added %dx %s.", m.qty, m.item.Name), nil

	case contractx.IntentSetQuantity:
		if !s.Cart.Set(m.item.ID, m.qty) {
			// Creating the line goes through the same checks as an add.
			if err := checkAvailable(m.item); err != nil {
				return "", err
			}
			s.Cart.Add(newLine(m.item, m.qty))
		}
		s.Context = statex.Context{LastIntent: m.kind, LastItemID: m.item.ID}
		return fmt.Sprintf("Set %s to %d.", m.item.Name, m.qty), nil

	case contractx.IntentRemoveItem:
		line, ok := s.Cart.Find(m.ref)
		if !ok {
			name := m.item.Name
			if name == "" {
				name = displayRef(m.ref)
			}
			return "", contractx.Userf(contractx.ErrLineNotFound, "%s is not in your cart.", name)
		}
		if err := s.Cart.Remove(m.ref, m.qty); err != nil {
			if errors.Is(err, contractx.ErrInvalidQuantity) {
				return "", contractx.Userf(contractx.ErrInvalidQuantity, "You only have %d %s in your cart.", line.Quantity, line.Name)
			}
			return "", err
		}
		s.Context = statex.Context{LastIntent: m.kind, LastItemID: m.ref}
		if m.qty == 0 || m.qty == line.Quantity {
			return fmt.Sprintf("Removed %s.", line.Name), nil
		}
		return fmt.Sprintf("Removed %dx %s.", m.qty, line.Name), nil

	case contractx.IntentClearCart:
		s.Cart.Clear()
		s.Context = statex.Context{LastIntent: m.kind}
		return "Cleared your cart.", nil
	}
	return "", fmt.Errorf("%w: unsupported mutation %s", contractx.ErrValidation, m.kind)
}

func tooMany(name string) error {
	return contractx.Userf(contractx.ErrInvalidQuantity, "You can order at most %d %s at a time.", statex.MaxLineQuantity, displayRef(name))
}

func checkAvailable(it catalog.Item) error {
	if !it.Available {
		return contractx.Userf(contractx.ErrItemUnavailable, "Sorry, %s is currently unavailable.", it.Name)
	}
	return nil
}

func newLine(it catalog.Item, qty int) statex.CartLine {
	return statex.CartLine{ItemID: it.ID, Name: it.Name, Quantity: qty, UnitPrice: it.Price}
}

func displayRef(ref string) string {
	if ref == "" {
		return "that item"
	}
	return ref
}

func result(s *statex.Session, kind contractx.IntentKind, msg string) CartResult {
	lines := make([]LineView, len(s.Cart.Lines))
	for i, l := range s.Cart.Lines {
		lines[i] = LineView{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
		}
	}
	summary := s.Cart.Summary()
	if !s.Cart.Empty() {
		msg = fmt.Sprintf("%s Your cart: %s (subtotal %s).", msg, summary, s.Cart.Subtotal())
	} else {
		msg = msg + " " + summary
	}
	return CartResult{
		Kind:      kind,
		Lines:     lines,
		Subtotal:  s.Cart.Subtotal(),
		ItemCount: s.Cart.ItemCount(),
		Summary:   summary,
		Message:   msg,
		Version:   s.Version,
	}
}
