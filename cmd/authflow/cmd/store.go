package cmd

import (
	"context"
	"fmt"

	"github.com/chatline/authflow/session"
	"github.com/redis/go-redis/v9"
)

const (
	storeMemory = "memory"
	storeFile   = "file"
	storeRedis  = "redis"
)

// openStore returns the configured session store and a func releasing it.
func openStore(ctx context.Context, s storeSettings) (session.Store, func(), error) {
	switch s.Kind {
	case storeMemory:
		return session.NewMemoryStore(), func() {}, nil
	case storeFile:
		if s.Path == "" {
			return nil, nil, fmt.Errorf("file store: empty path")
		}
		return session.NewFileStore(s.Path), func() {}, nil
	case storeRedis:
		opts, err := redis.ParseURL(s.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis store: ping %s: %w", opts.Addr, err)
		}
		return session.NewRedisStore(rdb, s.Prefix, s.TTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q (want memory, file or redis)", s.Kind)
	}
}
