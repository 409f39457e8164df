package cache

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"hr-backend/application/ports"
)

// Open selects a store from a CACHE_URL value:
//
//	redis://[:password@]host:port/db   Redis (rediss:// for TLS)
//	memory://?size=N                   in-process LRU
//	""                                 caching disabled
//
// The returned closer releases the backend's resources.
func Open(rawURL, keyPrefix string, logger *zap.Logger) (ports.Cache, io.Closer, error) {
	if rawURL == "" {
		logger.Warn("CACHE_URL not set, caching disabled")
		return DisabledStore{}, nopCloser{}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CACHE_URL: %w", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
		store, err := NewRedisStore(RedisConfig{URL: rawURL, KeyPrefix: keyPrefix}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "memory":
		size := 0
		if v := u.Query().Get("size"); v != "" {
			if size, err = strconv.Atoi(v); err != nil {
				return nil, nil, fmt.Errorf("invalid memory cache size %q: %w", v, err)
			}
		}
		logger.Info("Using in-process cache", zap.Int("size", size))
		return NewMemoryStore(size, keyPrefix), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
