package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// Store resolves a tenant's menu snapshot. Implementations return an error wrapping
// contract.ErrUnknownTenant when the key is not configured.
type Store interface {
	Tenant(ctx context.Context, key string) (*Tenant, error)
}

func unknownTenant(key string) error {
	return fmt.Errorf("%w: %s", contractx.ErrUnknownTenant, key)
}

type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
}

func NewMemoryStore(tenants ...*Tenant) *MemoryStore {
	s := &MemoryStore{tenants: make(map[string]*Tenant, len(tenants))}
	for _, t := range tenants {
		s.tenants[t.Key] = t
	}
	return s
}

func (s *MemoryStore) Tenant(ctx context.Context, key string) (*Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[key]
	if !ok {
		return nil, unknownTenant(key)
	}
	return t, nil
}

// Put replaces the snapshot for t.Key.
func (s *MemoryStore) Put(t *Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.Key] = t
}

// Keys lists the configured tenant keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.tenants))
	for k := range s.tenants {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
