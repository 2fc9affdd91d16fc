package manager

import (
	"context"

	"github.com/iamNilotpal/lexi/internal/merge"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// Maintain runs one round of background maintenance: it evaluates
// whether the active set warrants a full GC merge (spec §4.6
// GarbageCollectionThreshold/GarbageCollectionMinDeletes) and otherwise
// falls back to the configured ordinary merge policy. It is meant to be
// driven periodically by internal/compaction; at most one maintenance
// round runs at a time, in parallel with readers and the ingest thread
// (spec §5 "a reader and the maintenance task run in parallel; the
// maintenance task never mutates the active partition set — it prepares
// a new set and publishes it through a single pointer swap under the
// manager lock").
func (m *Manager) Maintain(ctx context.Context) error {
	m.maintenanceMu.Lock()
	defer m.maintenanceMu.Unlock()

	snapshot := m.loadActive()
	if len(snapshot) == 0 {
		return nil
	}

	if merge.ShouldFullGC([]*partition.Partition(snapshot), m.opts) {
		return m.runMerge(ctx, []*partition.Partition(snapshot), true)
	}

	policy := merge.NewPolicy(m.opts.MergeOptions.Policy)
	selected := policy.Select([]*partition.Partition(snapshot), m.opts)
	if len(selected) == 0 {
		return nil
	}
	return m.runMerge(ctx, selected, false)
}

// maintainWithPolicy runs one merge round forcing a specific policy,
// used by Close to apply the configured shutdown policy regardless of
// what the ordinary maintenance policy is set to.
func (m *Manager) maintainWithPolicy(ctx context.Context, p options.MergePolicy) error {
	m.maintenanceMu.Lock()
	defer m.maintenanceMu.Unlock()

	snapshot := m.loadActive()
	if len(snapshot) == 0 {
		return nil
	}

	selected := merge.NewPolicy(p).Select([]*partition.Partition(snapshot), m.opts)
	if len(selected) == 0 {
		return nil
	}
	return m.runMerge(ctx, selected, false)
}

// runMerge merges sources into a fresh partition, diverting any long
// list to the in-place index if one is configured, and stages the
// result as the manager's pending partition set. runMerge does not read
// forceGC — the visible-extents list is always passed to
// Merger.Merge, which decides on-the-fly filtering itself against
// OnTheFlyGCThreshold (spec §4.6).
func (m *Manager) runMerge(ctx context.Context, sources []*partition.Partition, forceGC bool) error {
	w, err := m.newPartitionWriter()
	if err != nil {
		return err
	}

	var longList merge.LongListSink
	if m.inplace != nil {
		longList = m.inplace
	}

	merged, stats, err := m.merger.Merge(ctx, w, sources, m.visible, longList)
	if err != nil {
		return err
	}

	m.log.Infow(
		"maintenance merge complete", "sources", len(sources), "termsWritten", stats.TermsWritten,
		"termsDiverted", stats.TermsDiverted, "postingsDropped", stats.PostingsDropped,
	)

	activateAt := m.readers.getTimestamp()

	m.setMu.Lock()
	m.stagePendingLocked(sources, merged, activateAt)
	m.tryActivateLocked()
	m.setMu.Unlock()
	return nil
}
