package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/pkg/common"
)

const (
	defaultIOTimeout = 5 * time.Second
	scanBatch        = 200
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	URL       string
	KeyPrefix string
	// Timeout bounds dialing, reads and writes. Defaults to 5s.
	Timeout time.Duration
	// BreakerFailures is how many consecutive failures open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

// RedisStore is a ports.Cache backed by Redis. The client is created on
// first use and shared; a circuit breaker short-circuits calls while Redis
// is failing so requests fall through to the repository immediately.
type RedisStore struct {
	client  *common.Lazy[*redis.Client]
	breaker *gobreaker.CircuitBreaker
	prefix  string
	logger  *zap.Logger
}

// NewRedisStore validates the URL now and connects later.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultIOTimeout
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 10 * time.Second
	}

	s := &RedisStore{prefix: cfg.KeyPrefix, logger: logger}
	s.client = common.NewLazy(func(ctx context.Context) (*redis.Client, error) {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, cache will degrade until it is", zap.String("addr", opts.Addr), zap.Error(err))
		} else {
			logger.Info("Connected to Redis", zap.String("addr", opts.Addr))
		}
		return client, nil
	})
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})
	return s, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) execute(ctx context.Context, fn func(*redis.Client) (interface{}, error)) (interface{}, error) {
	client, err := s.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.breaker.Execute(func() (interface{}, error) {
		return fn(client)
	})
}

func (s *RedisStore) Get(ctx context.Context, key string) ports.Lookup {
	res, err := s.execute(ctx, func(c *redis.Client) (interface{}, error) {
		return c.Get(ctx, s.key(key)).Bytes()
	})
	switch {
	case errors.Is(err, redis.Nil):
		return ports.Lookup{Status: ports.LookupMiss}
	case err != nil:
		s.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		return ports.Lookup{Status: ports.LookupUnavailable}
	}
	return ports.Lookup{Status: ports.LookupHit, Value: res.([]byte)}
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.execute(ctx, func(c *redis.Client) (interface{}, error) {
		return nil, c.SetEx(ctx, s.key(key), value, ttl).Err()
	})
	if err != nil {
		s.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, keyOrPattern string) (int64, error) {
	var res interface{}
	var err error
	if strings.Contains(keyOrPattern, "*") {
		res, err = s.execute(ctx, func(c *redis.Client) (interface{}, error) {
			return s.deletePattern(ctx, c, s.key(keyOrPattern))
		})
	} else {
		res, err = s.execute(ctx, func(c *redis.Client) (interface{}, error) {
			return c.Del(ctx, s.key(keyOrPattern)).Result()
		})
	}
	if err != nil {
		s.logger.Warn("Cache delete failed", zap.String("key", keyOrPattern), zap.Error(err))
		return 0, err
	}
	return res.(int64), nil
}

// deletePattern walks the keyspace with SCAN rather than KEYS so large
// databases are not blocked.
func (s *RedisStore) deletePattern(ctx context.Context, c *redis.Client, pattern string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (s *RedisStore) Exists(ctx context.Context, key string) bool {
	res, err := s.execute(ctx, func(c *redis.Client) (interface{}, error) {
		return c.Exists(ctx, s.key(key)).Result()
	})
	if err != nil {
		s.logger.Warn("Cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return res.(int64) > 0
}

func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.execute(ctx, func(c *redis.Client) (interface{}, error) {
		return nil, c.Ping(ctx).Err()
	})
	return err
}

// Close releases the connection pool if it was ever opened.
func (s *RedisStore) Close() error {
	if client, ok := s.client.Peek(); ok {
		return client.Close()
	}
	return nil
}
