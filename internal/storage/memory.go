// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
	"time"
)

type Memory struct {
	mu      sync.RWMutex
	values  map[string][]byte
	written time.Time

	provider  *MemoryProvider
	namespace string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.values[key] = v
	m.written = time.Now()
	m.mu.Unlock()

	if m.provider != nil {
		m.provider.register(m)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) lastWrite() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written
}

// MemoryProvider keeps namespaces in process memory. A namespace is only retained
// once something is written to it.
type MemoryProvider struct {
	mu     sync.Mutex
	stores map[string]*Memory
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{stores: make(map[string]*Memory)}
}

func (p *MemoryProvider) Open(namespace string) Store {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.stores[namespace]; ok {
		return s
	}
	s := NewMemory()
	s.provider = p
	s.namespace = namespace
	return s
}

func (p *MemoryProvider) register(m *Memory) {
	p.mu.Lock()
	if _, ok := p.stores[m.namespace]; !ok {
		p.stores[m.namespace] = m
	}
	p.mu.Unlock()
}

// PurgeBefore drops every namespace that has not been written since cutoff.
// A store still held by a caller re-registers on its next write.
func (p *MemoryProvider) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var purged int64
	for namespace, s := range p.stores {
		if s.lastWrite().Before(cutoff) {
			delete(p.stores, namespace)
			purged++
		}
	}
	return purged, nil
}

// Len is the number of retained namespaces.
func (p *MemoryProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stores)
}
