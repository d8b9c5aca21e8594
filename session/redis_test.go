package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisStoreMigratesLegacyKeys(t *testing.T) {
	st, mr := newRedisStoreTest(t)
	ctx := context.Background()

	mr.Set("chat:access", "A")
	mr.Set("chat:refresh", "R")
	mr.Set("chat:username", "alice")

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Username != "alice" || got.Tokens.Access != "A" || got.Tokens.Refresh != "R" {
		t.Fatalf("unexpected migrated session %+v", got)
	}

	for _, key := range []string{"chat:access", "chat:refresh", "chat:username"} {
		if mr.Exists(key) {
			t.Fatalf("expected legacy key %s to be removed", key)
		}
	}
	raw, err := mr.Get("chat:session")
	if err != nil {
		t.Fatalf("expected migrated record: %v", err)
	}
	if raw == "" || raw[0] != CurrentSchemaVersion {
		t.Fatalf("expected record schema byte %d", CurrentSchemaVersion)
	}
}

func TestRedisStoreIgnoresPartialLegacyPair(t *testing.T) {
	st, mr := newRedisStoreTest(t)
	ctx := context.Background()

	mr.Set("chat:access", "A")
	mr.Set("chat:username", "alice")

	if st.HasValidSession(ctx) {
		t.Fatal("a lone access key must not count as a session")
	}
	if _, err := st.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if mr.Exists("chat:session") {
		t.Fatal("partial legacy pair must not be migrated")
	}
}

func TestRedisStoreClearRemovesLegacyKeys(t *testing.T) {
	st, mr := newRedisStoreTest(t)
	mr.Set("chat:access", "A")
	mr.Set("chat:refresh", "R")

	if err := st.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("chat:access") || mr.Exists("chat:refresh") {
		t.Fatal("expected legacy keys cleared")
	}
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	st, mr := newRedisStoreTest(t)
	st.ttl = time.Hour

	if err := st.Save(context.Background(), Session{Username: "alice", Tokens: Tokens{Access: "A", Refresh: "R"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("chat:session"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if st.HasValidSession(context.Background()) {
		t.Fatal("expected session to expire with its ttl")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	st, mr := newRedisStoreTest(t)
	mr.Close()

	err := st.Save(context.Background(), Session{Username: "alice", Tokens: Tokens{Access: "A", Refresh: "R"}})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// afterCommandHook runs fn once, right after the first command named name
// completes on the hooked client.
type afterCommandHook struct {
	name string
	once sync.Once
	fn   func()
}

func (h *afterCommandHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *afterCommandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == h.name {
			h.once.Do(h.fn)
		}
		return err
	}
}

func (h *afterCommandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStoreMigrationYieldsToConcurrentWrites(t *testing.T) {
	tests := []struct {
		name  string
		race  func(ctx context.Context, other *RedisStore) error
		check func(t *testing.T, got *Session, err error)
	}{
		{
			name: "clear",
			race: func(ctx context.Context, other *RedisStore) error { return other.Clear(ctx) },
			check: func(t *testing.T, got *Session, err error) {
				if !errors.Is(err, ErrNoSession) {
					t.Fatalf("expected ErrNoSession after a concurrent Clear, got %+v, %v", got, err)
				}
			},
		},
		{
			name: "save",
			race: func(ctx context.Context, other *RedisStore) error {
				return other.Save(ctx, Session{Username: "bob", Tokens: Tokens{Access: "A2", Refresh: "R2"}})
			},
			check: func(t *testing.T, got *Session, err error) {
				if err != nil {
					t.Fatalf("load: %v", err)
				}
				if got.Username != "bob" || got.Tokens.Access != "A2" {
					t.Fatalf("legacy pair overwrote a newer save: %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, mr := newRedisStoreTest(t)
			ctx := context.Background()

			mr.Set("chat:access", "A")
			mr.Set("chat:refresh", "R")
			mr.Set("chat:username", "alice")

			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { rdb.Close() })
			rdb.AddHook(&afterCommandHook{name: "mget", fn: func() {
				if err := tt.race(ctx, other); err != nil {
					t.Errorf("concurrent write: %v", err)
				}
			}})
			reader := NewRedisStore(rdb, "chat", 0)

			got, err := reader.Load(ctx)
			tt.check(t, got, err)

			if tt.name == "clear" && other.HasValidSession(ctx) {
				t.Fatal("session came back after a concurrent Clear")
			}
			for _, key := range []string{"chat:access", "chat:refresh", "chat:username"} {
				if mr.Exists(key) {
					t.Fatalf("expected legacy key %s to be gone", key)
				}
			}
		})
	}
}
