package sync

import (
	"sync"
)

const defaultShards = 64

// ShardedMutex serializes work per resource key without a global lock.
// Keys are hashed onto a fixed set of mutexes; two keys that land on the same
// shard simply share a lock, which is safe but reduces parallelism.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with 64 shards.
func NewShardedMutex() *ShardedMutex {
	return NewShardedMutexN(defaultShards)
}

// NewShardedMutexN creates a ShardedMutex with n shards (minimum 1).
func NewShardedMutexN(n int) *ShardedMutex {
	if n < 1 {
		n = 1
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// LockPair acquires the locks for two keys at once. Shards are always taken
// in ascending index order so two goroutines locking (a, b) and (b, a) cannot
// deadlock. When both keys share a shard it is locked once.
func (m *ShardedMutex) LockPair(a, b string) {
	first, second := m.orderedShards(a, b)
	m.shards[first].Lock()
	if second != first {
		m.shards[second].Lock()
	}
}

// UnlockPair releases locks taken by LockPair with the same keys.
func (m *ShardedMutex) UnlockPair(a, b string) {
	first, second := m.orderedShards(a, b)
	if second != first {
		m.shards[second].Unlock()
	}
	m.shards[first].Unlock()
}

func (m *ShardedMutex) orderedShards(a, b string) (int, int) {
	sa, sb := m.shardFor(a), m.shardFor(b)
	if sa > sb {
		return sb, sa
	}
	return sa, sb
}

// shardFor returns the shard index for the given key.
func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % uint32(len(m.shards)))
}

// hashString is a djb2-style hash used only for shard selection.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
