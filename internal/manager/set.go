package manager

import (
	"os"

	"github.com/iamNilotpal/lexi/internal/partition"
)

// activeSet is the partition list readers iterate over: oldest-first, so
// that an OR/ordered-combination wrapper sees a globally increasing view
// across partitions (spec §5).
type activeSet []*partition.Partition

// loadActive returns the currently published active set. Safe for any
// number of concurrent readers; never blocks on the ingest or
// maintenance path.
func (m *Manager) loadActive() activeSet {
	v, _ := m.current.Load().(activeSet)
	return v
}

func (m *Manager) storeActive(s activeSet) {
	m.current.Store(s)
}

// appendActive publishes part as a new addition to the active set. A
// flush only adds a partition — it never removes one — so no reader can
// observe data disappearing and the new set can be installed with a
// single pointer swap, no reader-timestamp coordination required (spec
// §5: "it becomes readable only after being atomically added to the
// active set").
func (m *Manager) appendActive(part *partition.Partition) {
	m.setMu.Lock()
	defer m.setMu.Unlock()

	cur := m.loadActive()
	next := make(activeSet, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = part
	m.storeActive(next)
}

// stagePendingLocked replaces every partition in replaced with merged in a
// candidate next active set, and stages it as pending rather than
// installing it immediately: a reader registered against the old set
// may still be mid-query against one of the replaced partitions. The
// pending set activates once every currently registered reader's
// timestamp is at least activateAt (spec §5 "Deregistration removes
// and, if a new partition set is ready and all remaining readers have ts
// ≥ newSetTs, activates the new set"). Callers must hold setMu.
func (m *Manager) stagePendingLocked(replaced []*partition.Partition, merged *partition.Partition, activateAt uint64) {
	byID := make(map[uint64]bool, len(replaced))
	for _, p := range replaced {
		byID[p.ID] = true
	}

	cur := m.loadActive()
	next := make(activeSet, 0, len(cur)-len(replaced)+1)
	inserted := false
	for _, p := range cur {
		if byID[p.ID] {
			if !inserted {
				next = append(next, merged)
				inserted = true
			}
			continue
		}
		next = append(next, p)
	}
	if !inserted {
		next = append(next, merged)
	}

	m.pending = next
	m.pendingTs = activateAt
	m.pendingRetire = replaced
}

// tryActivateLocked installs the pending set once every registered
// reader's timestamp has caught up to pendingTs, retiring the replaced
// partitions' files and cache entries. Callers must hold setMu.
func (m *Manager) tryActivateLocked() {
	if m.pending == nil {
		return
	}
	if m.readers.minTimestamp() < m.pendingTs {
		return
	}

	retire := m.pendingRetire
	m.storeActive(m.pending)
	m.pending = nil
	m.pendingRetire = nil
	m.pendingTs = 0

	for _, p := range retire {
		m.retirePartition(p)
	}
}

// retirePartition closes and removes a partition's backing file and
// drops its segments from the cache (spec §3 "Segments in the cache
// live until evicted or the owning partition is deleted").
func (m *Manager) retirePartition(p *partition.Partition) {
	if m.cache != nil {
		m.cache.InvalidatePartition(p.ID)
	}
	if err := p.Close(); err != nil {
		m.log.Warnw("failed to close retired partition", "partition", p.Path, "error", err)
	}
	if err := os.Remove(p.Path); err != nil {
		m.log.Warnw("failed to remove retired partition file", "partition", p.Path, "error", err)
	}
}
