package concurrent

import "sync"

// KeyedMutex 按 key 加锁，不同 key 互不阻塞
type KeyedMutex[K comparable] struct {
	locks Map[K, *sync.Mutex]
}

// Lock 获取 key 对应的锁，返回解锁函数
func (km *KeyedMutex[K]) Lock(key K) func() {
	mu, _ := km.locks.LoadOrStore(key, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}
