package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

const DefaultSessionID = "default"

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 999

// Key partitions every session by tenant. Two tenants may use the same session id.
type Key struct {
	TenantKey string `json:"tenant_key"`
	SessionID string `json:"session_id"`
}

var ErrInvalidKey = errors.New("session key is incomplete")

func (k Key) Validate() error {
	if strings.TrimSpace(k.TenantKey) == "" || strings.TrimSpace(k.SessionID) == "" {
		return fmt.Errorf("%w: tenant=%q session=%q", ErrInvalidKey, k.TenantKey, k.SessionID)
	}
	return nil
}

func (k Key) String() string {
	return k.TenantKey + "/" + k.SessionID
}

type CartLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice contractx.Money `json:"unit_price"`
}

func (l CartLine) Total() contractx.Money {
	return l.UnitPrice.Times(l.Quantity)
}

// Cart lines are kept in insertion order and never share an item id.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Find(itemID string) (CartLine, bool) {
	i := c.index(itemID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.Lines[i], true
}

func (c Cart) index(itemID string) int {
	return slices.IndexFunc(c.Lines, func(l CartLine) bool { return l.ItemID == itemID })
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Subtotal() contractx.Money {
	var total contractx.Money
	for _, l := range c.Lines {
		total += l.Total()
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Summary renders the cart as "2x Latte, 1x Brownie".
func (c Cart) Summary() string {
	if c.Empty() {
		return "Your cart is empty."
	}
	parts := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		parts[i] = fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	}
	return strings.Join(parts, ", ")
}

// Add merges into an existing line, keeping its price snapshot, or appends line.
func (c *Cart) Add(line CartLine) {
	if i := c.index(line.ItemID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// Remove drops qty units of itemID, or the whole line when qty is 0.
func (c *Cart) Remove(itemID string, qty int) error {
	i := c.index(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", contractx.ErrLineNotFound, itemID)
	}
	switch {
	case qty < 0 || qty > c.Lines[i].Quantity:
		return fmt.Errorf("%w: cannot remove %d of %d", contractx.ErrInvalidQuantity, qty, c.Lines[i].Quantity)
	case qty == 0 || qty == c.Lines[i].Quantity:
		c.Lines = slices.Delete(c.Lines, i, i+1)
	default:
		c.Lines[i].Quantity -= qty
	}
	return nil
}

// Set overwrites the quantity of an existing line. It reports false when no line exists.
func (c *Cart) Set(itemID string, qty int) bool {
	i := c.index(itemID)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity = qty
	return true
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.Quantity <= 0 || l.Quantity > MaxLineQuantity {
			return fmt.Errorf("%w: line %s has quantity %d", contractx.ErrInvalidQuantity, l.ItemID, l.Quantity)
		}
		if _, dup := seen[l.ItemID]; dup {
			return fmt.Errorf("cart has duplicate line %s", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
	}
	return nil
}

// Context is the short conversational memory used for pronoun resolution.
type Context struct {
	LastIntent contractx.IntentKind `json:"last_intent,omitempty"`
	LastItemID string               `json:"last_item_id,omitempty"`
}

type Session struct {
	TenantKey string  `json:"tenant_key"`
	SessionID string  `json:"session_id"`
	Cart      Cart    `json:"cart"`
	Context   Context `json:"context"`
	// Version is 0 until first persisted and increases by one on every committed write.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(key Key, now time.Time) *Session {
	return &Session{
		TenantKey: key.TenantKey,
		SessionID: key.SessionID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Key() Key {
	return Key{TenantKey: s.TenantKey, SessionID: s.SessionID}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Cart.Lines = slices.Clone(s.Cart.Lines)
	return &cp
}

func (s *Session) Validate() error {
	if err := s.Key().Validate(); err != nil {
		return err
	}
	return s.Cart.Validate()
}

// ExtractContext is the session slice handed to intent extractors.
func (s *Session) ExtractContext() contractx.SessionContext {
	ids := make([]string, len(s.Cart.Lines))
	for i, l := range s.Cart.Lines {
		ids[i] = l.ItemID
	}
	return contractx.SessionContext{
		LastIntent: s.Context.LastIntent,
		LastItemID: s.Context.LastItemID,
		CartItems:  ids,
	}
}
