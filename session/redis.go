package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Legacy storage keys, one independent entry per field.
const (
	legacyAccessKey   = "access"
	legacyRefreshKey  = "refresh"
	legacyUsernameKey = "username"
	recordKey         = "session"
)

// RedisStore keeps the session record in Redis so that several processes can share
// one storage scope. The record is written with a single SET; the legacy
// three-key layout is migrated forward on read.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a RedisStore. A zero ttl keeps the record until Clear.
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "authflow"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStore) legacyKeys() []string {
	return []string{r.key(legacyAccessKey), r.key(legacyRefreshKey), r.key(legacyUsernameKey)}
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	if err := checkSave(s); err != nil {
		return err
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = r.now().UTC()
	}
	return r.write(ctx, &s)
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(recordKey), data, r.ttl)
		pipe.Del(ctx, r.legacyKeys()...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// loadRetries bounds how often Load retries a migration whose watched keys
// changed under it.
const loadRetries = 4

// Load returns the stored record. When only the legacy keys exist they are
// migrated into a record under WATCH, so a concurrent Save or Clear aborts the
// migration instead of being overwritten by the stale legacy pair.
func (r *RedisStore) Load(ctx context.Context) (*Session, error) {
	keys := append([]string{r.key(recordKey)}, r.legacyKeys()...)

	for i := 0; i < loadRetries; i++ {
		var (
			loaded *Session
			txErr  error
		)
		err := r.redis.Watch(ctx, func(tx *redis.Tx) error {
			loaded, txErr = r.loadTx(ctx, tx)
			return txErr
		}, keys...)
		switch {
		case err == nil:
			return loaded, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case txErr != nil && err == txErr:
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil, fmt.Errorf("%w: legacy migration kept conflicting", ErrStoreUnavailable)
}

func (r *RedisStore) loadTx(ctx context.Context, tx *redis.Tx) (*Session, error) {
	data, err := tx.Get(ctx, r.key(recordKey)).Bytes()
	switch {
	case err == nil:
		s, err := Decode(data)
		if err != nil {
			return nil, err
		}
		if !s.Tokens.Valid() {
			return nil, ErrNoSession
		}
		return s, nil
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return r.migrateLegacy(ctx, tx)
}

func (r *RedisStore) migrateLegacy(ctx context.Context, tx *redis.Tx) (*Session, error) {
	values, err := tx.MGet(ctx, r.legacyKeys()...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	str := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}
	s := &Session{
		Username: str(values[2]),
		Tokens: Tokens{
			Access:  str(values[0]),
			Refresh: str(values[1]),
		},
	}
	if !s.Tokens.Valid() {
		return nil, ErrNoSession
	}

	s.SavedAt = r.now().UTC()
	data, err := Encode(s)
	if err != nil {
		return nil, err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(recordKey), data, r.ttl)
		pipe.Del(ctx, r.legacyKeys()...)
		return nil
	})
	if err != nil {
		// TxFailedErr must reach Load unwrapped so it can retry.
		if errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s, nil
}

func (r *RedisStore) HasValidSession(ctx context.Context) bool {
	return hasValid(ctx, r)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	keys := append([]string{r.key(recordKey)}, r.legacyKeys()...)
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
