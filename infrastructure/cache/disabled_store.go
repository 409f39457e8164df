package cache

import (
	"context"
	"errors"
	"time"

	"hr-backend/application/ports"
)

// ErrDisabled is returned by Ping when no cache is configured.
var ErrDisabled = errors.New("cache disabled")

// DisabledStore is used when CACHE_URL is unset. Every read reports the
// cache as unavailable so reads go straight to the repository.
type DisabledStore struct{}

func (DisabledStore) Get(context.Context, string) ports.Lookup {
	return ports.Lookup{Status: ports.LookupUnavailable}
}

func (DisabledStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (DisabledStore) Delete(context.Context, string) (int64, error) { return 0, nil }

func (DisabledStore) Exists(context.Context, string) bool { return false }

func (DisabledStore) Ping(context.Context) error { return ErrDisabled }
