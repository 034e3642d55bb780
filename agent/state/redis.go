package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in a directly reachable Redis, using WATCH/MULTI for CAS.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, keyPrefix: o.keyPrefix, ttl: o.ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, key Key) (*Session, error) {
	rk, err := redisKey(s.keyPrefix, key)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeSession(raw, key)
}

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	if err := checkWritable(sess); err != nil {
		return err
	}
	rk, err := redisKey(s.keyPrefix, sess.Key())
	if err != nil {
		return err
	}
	next := sess.Clone()
	next.Version = 1
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, rk, payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s: %w", sess.Key(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.Key())
	}
	sess.Version = 1
	return nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, sess *Session, expected int64) error {
	if err := checkWritable(sess); err != nil {
		return err
	}
	key := sess.Key()
	rk, err := redisKey(s.keyPrefix, key)
	if err != nil {
		return err
	}
	next := sess.Clone()
	next.Version = expected + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return conflict(key, expected)
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
		cur, err := decodeSession(raw, key)
		if err != nil {
			return err
		}
		if cur.Version != expected {
			return conflict(key, expected)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, payload, s.ttl)
			return nil
		})
		return err
	}, rk)
	if errors.Is(err, redis.TxFailedErr) {
		return conflict(key, expected)
	}
	if err != nil {
		return err
	}
	sess.Version = next.Version
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	rk, err := redisKey(s.keyPrefix, key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, rk).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
