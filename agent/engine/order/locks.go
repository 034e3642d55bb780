package order

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// Locks is a keyed mutex. Entries are reference counted and dropped when unused,
// so the table only holds sessions with in-flight writes.
type Locks struct {
	m *xsync.MapOf[string, *lockEntry]
}

func NewLocks() *Locks {
	return &Locks{m: xsync.NewMapOf[string, *lockEntry]()}
}

// Lock blocks until key is free or ctx is done. The returned func releases the lock.
func (l *Locks) Lock(ctx context.Context, key string) (func(), error) {
	e, _ := l.m.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, bool) {
		if !loaded {
			old = &lockEntry{sem: make(chan struct{}, 1)}
		}
		old.refs++
		return old, false
	})

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.release(key)
		}, nil
	case <-ctx.Done():
		l.release(key)
		return nil, ctx.Err()
	}
}

func (l *Locks) release(key string) {
	l.m.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, bool) {
		if !loaded {
			return nil, true
		}
		old.refs--
		return old, old.refs <= 0
	})
}

// Len reports the number of keys currently held or awaited.
func (l *Locks) Len() int {
	return l.m.Size()
}
