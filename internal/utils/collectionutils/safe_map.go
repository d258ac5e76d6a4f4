package collectionutils

import "sync"

// SafeMap is a map guarded by a read-write mutex.
type SafeMap[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		data: make(map[K]V),
	}
}

func (m *SafeMap[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *SafeMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok
}

func (m *SafeMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// DeleteIf removes key only while pred holds for its current value.
func (m *SafeMap[K, V]) DeleteIf(key K, pred func(V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.data[key]; ok && pred(value) {
		delete(m.data, key)
	}
}
