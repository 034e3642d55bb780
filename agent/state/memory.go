package state

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps sessions in process. It is the single-instance default and the test double.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[Key]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[Key]*Session)}
}

func (s *MemoryStore) Load(ctx context.Context, key Key) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	return cur.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkWritable(sess); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.Key()]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.Key())
	}
	sess.Version = 1
	s.sessions[sess.Key()] = sess.Clone()
	return nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, sess *Session, expected int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkWritable(sess); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.Key()]
	if !ok || cur.Version != expected {
		return conflict(sess.Key(), expected)
	}
	next := sess.Clone()
	next.Version = expected + 1
	s.sessions[sess.Key()] = next
	sess.Version = next.Version
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
