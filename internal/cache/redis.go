package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/config"
	"github.com/repairhub/repair-search/internal/observability"
)

// RedisCache stores the user id to owned shop id resolution. Search hits are
// never cached.
type RedisCache struct {
	client redis.UniversalClient
	ttl    config.CacheTTLConfig
	logger *zap.Logger
}

func NewRedisCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("redis: no addresses configured")
	}

	var client redis.UniversalClient
	if len(cfg.Addresses) > 1 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addresses,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addresses[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis cache connected", zap.Strings("addresses", cfg.Addresses))

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// GetShopOwner returns the cached shop id for userID. found is false on a
// cache miss; an empty shopID with found set means the user owns no shop.
func (rc *RedisCache) GetShopOwner(ctx context.Context, userID string) (string, bool, error) {
	val, err := rc.client.Get(ctx, ownerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		observability.CacheMisses.Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get shop owner: %w", err)
	}
	observability.CacheHits.Inc()
	return val, true, nil
}

// SetShopOwner caches the resolution. An empty shopID is stored as a
// negative entry with the shorter miss TTL.
func (rc *RedisCache) SetShopOwner(ctx context.Context, userID, shopID string) error {
	if err := rc.client.Set(ctx, ownerKey(userID), shopID, rc.ttlFor(shopID)).Err(); err != nil {
		return fmt.Errorf("cache set shop owner: %w", err)
	}
	return nil
}

func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func (rc *RedisCache) ttlFor(shopID string) time.Duration {
	if shopID == "" {
		return rc.ttl.ShopOwnerMiss
	}
	return rc.ttl.ShopOwner
}

// User ids are hashed so keys never carry them in clear.
func ownerKey(userID string) string {
	return fmt.Sprintf("owner:%s", hashString(userID))
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:8])
}
