package router

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"golang.org/x/time/rate"
)

// Limiter throttles tool calls per tenant. Idle tenants expire from the table.
type Limiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewLimiter allows perSecond calls per tenant with the given burst. A perSecond of
// zero or less returns nil, which disables limiting.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](1000, nil, 10*time.Minute),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *Limiter) Allow(tenantKey string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters.Get(tenantKey)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(tenantKey, limiter)
	}
	l.mu.Unlock()

	if !limiter.Allow() {
		return fmt.Errorf("%w: tenant %s", contractx.ErrRateLimited, tenantKey)
	}
	return nil
}
