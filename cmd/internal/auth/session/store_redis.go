package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix    = "cauth:"
	defaultRedisRetention = 24 * time.Hour
	redisUpdateAttempts   = 3
)

// RedisStore implements Store on Redis.
//
// Each session is a JSON value under <prefix>s:<id>, with two index keys
// (<prefix>a:<sha256(access)> and <prefix>r:<sha256(refresh)>) pointing at
// the id. Keys expire Retention after the refresh token does, so rows past
// their refresh expiry stay readable for that long and then disappear on
// their own. An index key holds one id, so a duplicated token resolves to
// the most recently written row.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// RedisOption configures the store.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix (default "cauth:").
func WithRedisPrefix(p string) RedisOption {
	return func(s *RedisStore) { s.prefix = p }
}

// WithRetention sets how long keys outlive the refresh token (default 24h).
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		prefix:    defaultRedisPrefix,
		retention: defaultRedisRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (r *RedisStore) rowKey(id string) string { return r.prefix + "s:" + id }

func (r *RedisStore) accessKey(tok string) string { return r.prefix + "a:" + digest(tok) }

func (r *RedisStore) refreshKey(tok string) string { return r.prefix + "r:" + digest(tok) }

func digest(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

func (r *RedisStore) ttl(s Session) time.Duration {
	d := time.UnixMilli(s.RefreshExpiresAt).Sub(r.now()) + r.retention
	if d < r.retention {
		return r.retention
	}
	return d
}

func (r *RedisStore) FindByAccessToken(ctx context.Context, token string) (*Session, error) {
	s, err := r.viaIndex(ctx, r.accessKey(token))
	if err != nil || s == nil || s.AccessToken != token {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) FindByRefreshToken(ctx context.Context, token string) (*Session, error) {
	s, err := r.viaIndex(ctx, r.refreshKey(token))
	if err != nil || s == nil || s.RefreshToken != token {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) viaIndex(ctx context.Context, indexKey string) (*Session, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis index: %w", err)
	}
	return r.load(ctx, r.client, id)
}

// getter is the part of redis.Client and redis.Tx used by load.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (*Session, error) {
	raw, err := c.Get(ctx, r.rowKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	ttl := r.ttl(s)
	pipe.Set(ctx, r.rowKey(s.ID), data, ttl)
	pipe.Set(ctx, r.accessKey(s.AccessToken), s.ID, ttl)
	pipe.Set(ctx, r.refreshKey(s.RefreshToken), s.ID, ttl)
	return nil
}

func (r *RedisStore) Insert(ctx context.Context, s Session) (Session, error) {
	id, err := NewID()
	if err != nil {
		return Session{}, err
	}
	s.ID = id

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return r.write(ctx, pipe, s)
	})
	if err != nil {
		return Session{}, fmt.Errorf("session: redis insert: %w", err)
	}
	return s, nil
}

// Update rewrites the row and swaps its index keys under WATCH, retrying a
// few times when a concurrent writer touches the same row.
func (r *RedisStore) Update(ctx context.Context, id string, f Fields) error {
	txf := func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrSessionNotFound
		}
		next := *cur
		next.apply(f)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.accessKey(cur.AccessToken), r.refreshKey(cur.RefreshToken))
			return r.write(ctx, pipe, next)
		})
		return err
	}

	var err error
	for range redisUpdateAttempts {
		err = r.client.Watch(ctx, txf, r.rowKey(id))
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("session: redis update: %w", err)
	}
	return err
}

func (r *RedisStore) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	if f.empty() {
		return 0, nil
	}

	if f.RefreshToken != "" {
		s, err := r.FindByRefreshToken(ctx, f.RefreshToken)
		if err != nil || s == nil || !f.Matches(*s) {
			return 0, err
		}
		return r.remove(ctx, *s)
	}

	var n int64
	iter := r.client.Scan(ctx, 0, r.prefix+"s:*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(r.prefix)+2:]
		s, err := r.load(ctx, r.client, id)
		if err != nil {
			return n, err
		}
		if s == nil || !f.Matches(*s) {
			continue
		}
		removed, err := r.remove(ctx, *s)
		if err != nil {
			return n, err
		}
		n += removed
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("session: redis scan: %w", err)
	}
	return n, nil
}

func (r *RedisStore) remove(ctx context.Context, s Session) (int64, error) {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.rowKey(s.ID))
		pipe.Del(ctx, r.accessKey(s.AccessToken), r.refreshKey(s.RefreshToken))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session: redis delete: %w", err)
	}
	return del.Val(), nil
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
