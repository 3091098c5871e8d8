package indexer

import (
	"maps"
	"sync"
)

// Counters holds attestation counts per cType hash. The pipeline increments
// them on every attestation and the reconciler replaces them with what the
// indexer reports.
type Counters struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int)}
}

func (c *Counters) Increment(cTypeHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[cTypeHash]++
}

func (c *Counters) Replace(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = maps.Clone(counts)
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
}

// Snapshot returns a copy of the current counts.
func (c *Counters) Snapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.counts)
}
