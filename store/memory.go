package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is an in-memory Backend, useful for tests and ephemeral
// pipelines. Safe for concurrent use.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Put stores data at location.
func (m *MemoryBackend) Put(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validLocation(location); err != nil {
		return fmt.Errorf("%w: %q", err, location)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[location] = buf
	return nil
}

// Get returns the content at location.
func (m *MemoryBackend) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[location]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the content at location.
func (m *MemoryBackend) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[location]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	delete(m.data, location)
	return nil
}

// List returns all locations with the given prefix, sorted.
func (m *MemoryBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for location := range m.data {
		if strings.HasPrefix(location, prefix) {
			out = append(out, location)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryBackend) Close() error { return nil }
