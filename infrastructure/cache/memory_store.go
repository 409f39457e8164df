package cache

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"hr-backend/application/ports"
)

const (
	defaultMemorySize = 1024
	// memoryMaxTTL bounds how long any entry can survive in the LRU. Entries
	// also carry their own deadline, which is usually shorter.
	memoryMaxTTL = 24 * time.Hour
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local ports.Cache for development and single
// instance deployments. It is never unavailable.
type MemoryStore struct {
	lru    *expirable.LRU[string, memoryEntry]
	prefix string
	now    func() time.Time
}

func NewMemoryStore(size int, prefix string) *MemoryStore {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &MemoryStore{
		lru:    expirable.NewLRU[string, memoryEntry](size, nil, memoryMaxTTL),
		prefix: prefix,
		now:    time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ports.Lookup {
	k := m.prefix + key
	e, ok := m.lru.Get(k)
	if !ok {
		return ports.Lookup{Status: ports.LookupMiss}
	}
	if !m.now().Before(e.expiresAt) {
		m.lru.Remove(k)
		return ports.Lookup{Status: ports.LookupMiss}
	}
	return ports.Lookup{Status: ports.LookupHit, Value: e.value}
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	copied := make([]byte, len(value))
	copy(copied, value)
	m.lru.Add(m.prefix+key, memoryEntry{value: copied, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keyOrPattern string) (int64, error) {
	target := m.prefix + keyOrPattern
	if !strings.Contains(keyOrPattern, "*") {
		if m.lru.Remove(target) {
			return 1, nil
		}
		return 0, nil
	}

	var removed int64
	for _, k := range m.lru.Keys() {
		if ok, _ := path.Match(target, k); ok && m.lru.Remove(k) {
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) bool {
	return m.Get(ctx, key).Status == ports.LookupHit
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
