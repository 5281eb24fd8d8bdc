package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crucial707/booktrack/internal/metrics"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store is the byte cache behind Cached.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	Client *redis.Client
}

func (s RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// NewRedisClient connects and pings with a short timeout. It returns an
// error when Redis is unreachable so the caller can run without a cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Cached wraps a Searcher with a TTL cache. Cache failures are logged and
// fall through to the provider.
type Cached struct {
	Next   Searcher
	Store  Store
	TTL    time.Duration
	Prefix string
}

func (c *Cached) key(query string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha1.Sum([]byte(norm))
	prefix := c.Prefix
	if prefix == "" {
		prefix = "catalog:search"
	}
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

func (c *Cached) Search(ctx context.Context, query string) ([]models.Volume, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Volume{}, nil
	}
	key := c.key(query)

	if b, ok, err := c.Store.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "catalog cache get failed", "err", err)
	} else if ok {
		var vols []models.Volume
		if err := json.Unmarshal(b, &vols); err == nil {
			metrics.IncCatalog("cache", "hit")
			return vols, nil
		}
	}

	vols, err := c.Next.Search(ctx, query)
	if err != nil {
		metrics.IncCatalog("provider", "error")
		return nil, err
	}
	metrics.IncCatalog("provider", "ok")

	if b, err := json.Marshal(vols); err == nil {
		if err := c.Store.Set(ctx, key, b, c.TTL); err != nil {
			slog.WarnContext(ctx, "catalog cache set failed", "err", err)
		}
	}
	return vols, nil
}
