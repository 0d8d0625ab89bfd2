package concurrent

import "sync"

// Map 泛型并发 map，基于 sync.Map
type Map[K comparable, V any] struct {
	data sync.Map
}

// LoadOrStore 已存在返回旧值且 loaded=true
func (m *Map[K, V]) LoadOrStore(key K, value V) (V, bool) {
	actual, loaded := m.data.LoadOrStore(key, value)
	return actual.(V), loaded
}
