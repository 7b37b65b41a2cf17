package kv

import "sync"

// Memory is an in-memory bounded store, used by tests and the "memory"
// backend. Contents do not survive the process.
type Memory struct {
	mu       sync.Mutex
	capacity int
	used     int
	data     map[string][]byte
}

// NewMemory creates an in-memory store with the given capacity in bytes.
// A capacity of zero or less means unbounded.
func NewMemory(capacity int) *Memory {
	return &Memory{
		capacity: capacity,
		data:     make(map[string][]byte),
	}
}

// Get returns the stored value for key.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key, enforcing the capacity.
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		next -= entrySize(key, old)
	}
	if m.capacity > 0 && next > m.capacity {
		return ErrCapacityExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	m.used = next
	return nil
}

// Delete removes key if present.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Used reports the current quota usage in bytes.
func (m *Memory) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
