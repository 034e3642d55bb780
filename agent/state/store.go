package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrNilSession      = errors.New("session is nil")
)

const (
	defaultStoreKeyPrefix = "food:session:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store persists sessions keyed by (tenant, session id).
//
// Create inserts only when the key is absent and sets Version to 1.
// CompareAndSwap writes s only when the stored version equals expected, then sets
// s.Version to expected+1. A mismatch returns an error wrapping contract.ErrStoreConflict.
type Store interface {
	Load(ctx context.Context, key Key) (*Session, error)
	Create(ctx context.Context, s *Session) error
	CompareAndSwap(ctx context.Context, s *Session, expected int64) error
	Delete(ctx context.Context, key Key) error
}

// LoadOrCreate returns the stored session for key, creating it on first reference.
func LoadOrCreate(ctx context.Context, store Store, key Key, now time.Time) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s, err := store.Load(ctx, key)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	s = NewSession(key, now)
	err = store.Create(ctx, s)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSessionExists) {
		return nil, err
	}
	// Lost the creation race; the winner's record is authoritative.
	return store.Load(ctx, key)
}

func conflict(key Key, expected int64) error {
	return fmt.Errorf("%w: %s expected version %d", contractx.ErrStoreConflict, key, expected)
}

func checkWritable(s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	return s.Validate()
}

// StoreOption customizes the key prefix and ttl of the remote stores.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix string
	ttl       time.Duration
	client    *http.Client
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

// WithHTTPClient applies to the Upstash REST store only.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.client = client
		}
	}
}

func applyOptions(opts []StoreOption) (storeOptions, error) {
	o := storeOptions{keyPrefix: defaultStoreKeyPrefix, ttl: defaultStoreTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

// redisKey escapes both key parts so a ':' inside either cannot collide with the separator.
func redisKey(prefix string, key Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	return prefix + url.QueryEscape(key.TenantKey) + ":" + url.QueryEscape(key.SessionID), nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
