package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

// casScript replaces KEYS[1] with ARGV[2] only when the stored version equals ARGV[1].
const casScript = `local cur = redis.call('GET', KEYS[1])
if not cur then return 0 end
local doc = cjson.decode(cur)
if tonumber(doc['version']) ~= tonumber(ARGV[1]) then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1`

// UpstashRedisStore persists sessions in Upstash Redis via its REST API.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := o.client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &UpstashRedisStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: client,
		keyPrefix:  o.keyPrefix,
		ttl:        o.ttl,
	}, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, key Key) (*Session, error) {
	rk, err := redisKey(s.keyPrefix, key)
	if err != nil {
		return nil, err
	}
	resp, err := s.exec(ctx, []any{"GET", rk})
	if err != nil {
		return nil, err
	}
	if isNull(resp.Result) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}

	var encoded string
	if err := json.Unmarshal(resp.Result, &encoded); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	return decodeSession([]byte(encoded), key)
}

func (s *UpstashRedisStore) Create(ctx context.Context, sess *Session) error {
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

	cmd := []any{"SET", rk, string(payload), "NX"}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}
	resp, err := s.exec(ctx, cmd)
	if err != nil {
		return err
	}
	if isNull(resp.Result) {
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.Key())
	}
	sess.Version = 1
	return nil
}

func (s *UpstashRedisStore) CompareAndSwap(ctx context.Context, sess *Session, expected int64) error {
	if err := checkWritable(sess); err != nil {
		return err
	}
	rk, err := redisKey(s.keyPrefix, sess.Key())
	if err != nil {
		return err
	}
	next := sess.Clone()
	next.Version = expected + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	var ttl int64
	if s.ttl > 0 {
		ttl = ttlSeconds(s.ttl)
	}
	resp, err := s.exec(ctx, []any{"EVAL", casScript, "1", rk, expected, string(payload), ttl})
	if err != nil {
		return err
	}
	var swapped int64
	if err := json.Unmarshal(resp.Result, &swapped); err != nil {
		return fmt.Errorf("decode cas result: %w", err)
	}
	if swapped != 1 {
		return conflict(sess.Key(), expected)
	}
	sess.Version = next.Version
	return nil
}

func (s *UpstashRedisStore) Delete(ctx context.Context, key Key) error {
	rk, err := redisKey(s.keyPrefix, key)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", rk})
	return err
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeSession(payload []byte, key Key) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.Key() != key {
		return nil, fmt.Errorf("session record %s stored under %s", sess.Key(), key)
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session loaded from store: %w", err)
	}
	return &sess, nil
}
