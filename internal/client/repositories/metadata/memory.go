package metadata

import (
	"context"
	"sync"
)

// MemoryRepository is a process-local Repository. Values are copied on the
// way in and out.
type MemoryRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{values: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = append([]byte(nil), value...)
	return nil
}

func (r *MemoryRepository) SetMany(_ context.Context, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range values {
		r.values[k] = append([]byte(nil), v...)
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context) (map[string][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]byte, len(r.values))
	for k, v := range r.values {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = make(map[string][]byte)
	return nil
}
