package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
)

// Repository keeps records of one kind in process memory. Records are
// stored encoded so callers never share state with the store.
type Repository[T entities.Entity] struct {
	mu     sync.RWMutex
	kind   entities.Kind
	items  map[int64][]byte
	lastID int64
	now    func() time.Time
}

func NewRepository[T entities.Entity](kind entities.Kind) *Repository[T] {
	return &Repository[T]{
		kind:  kind,
		items: make(map[int64][]byte),
		now:   time.Now,
	}
}

func (r *Repository[T]) Load(_ context.Context, id int64) (T, error) {
	r.mu.RLock()
	data, ok := r.items[id]
	r.mu.RUnlock()

	var entity T
	if !ok {
		return entity, fmt.Errorf("%s %d: %w", r.kind.Singular, id, ports.ErrNotFound)
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return entity, err
	}
	return entity, nil
}

func (r *Repository[T]) LoadAll(_ context.Context) ([]T, error) {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	encoded := make([][]byte, len(ids))
	for i, id := range ids {
		encoded[i] = r.items[id]
	}
	r.mu.RUnlock()

	out := make([]T, 0, len(encoded))
	for _, data := range encoded {
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (r *Repository[T]) Save(_ context.Context, entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A non-zero id replaces a stored record; a record deleted since the
	// caller loaded it stays deleted.
	id := entity.EntityID()
	if id == 0 {
		r.lastID++
		id = r.lastID
		entity.SetEntityID(id)
	} else if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%s %d: %w", r.kind.Singular, id, ports.ErrNotFound)
	}
	entity.Stamp(r.now())

	data, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	r.items[id] = data
	return nil
}

func (r *Repository[T]) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%s %d: %w", r.kind.Singular, id, ports.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}
