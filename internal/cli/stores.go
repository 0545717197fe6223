package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/partree/pkg/adapters/file"
	"github.com/aretw0/partree/pkg/adapters/memory"
	"github.com/aretw0/partree/pkg/adapters/redis"
	"github.com/aretw0/partree/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store kinds accepted by --store.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Backend is an opened summary store plus the Redis client behind it, if any.
type Backend struct {
	Store  ports.SummaryStore
	Client backend.UniversalClient
}

// Close releases the Redis connection.
func (b *Backend) Close() error {
	if b.Client != nil {
		return b.Client.Close()
	}
	return nil
}

// OpenStore opens the summary store named by opts. Redis is pinged before use.
// The none kind yields a nil Store.
func OpenStore(ctx context.Context, opts StoreOptions) (*Backend, error) {
	switch opts.Kind {
	case StoreNone:
		return &Backend{}, nil
	case "", StoreFile:
		return &Backend{Store: file.NewStore(opts.Path)}, nil
	case StoreMemory:
		return &Backend{Store: memory.NewStore()}, nil
	case StoreRedis:
		client, err := NewRedisClient(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		var storeOpts []redis.StoreOption
		if opts.RedisKey != "" {
			storeOpts = append(storeOpts, redis.WithKey(opts.RedisKey))
		}
		if opts.Limit > 0 {
			storeOpts = append(storeOpts, redis.WithLimit(opts.Limit))
		}
		return &Backend{Store: redis.NewStore(client, storeOpts...), Client: client}, nil
	}
	return nil, fmt.Errorf("unknown store %q (want none, memory, file or redis)", opts.Kind)
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (backend.UniversalClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := backend.NewUniversalClient(&backend.UniversalOptions{Addrs: []string{addr}})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
