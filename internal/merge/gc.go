package merge

import (
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// AggregateGarbageRatio returns the combined deletedPostings/postings
// ratio across partitions, the quantity both GC thresholds (spec §4.6)
// are evaluated against.
func AggregateGarbageRatio(partitions []*partition.Partition) (ratio float64, deleted, total uint64) {
	for _, p := range partitions {
		deleted += p.Deleted
		total += p.PostingCount
	}
	if total == 0 {
		return 0, deleted, total
	}
	return float64(deleted) / float64(total), deleted, total
}

// ShouldFullGC reports whether the full active set warrants a dedicated
// GC merge (spec §4.6: aggregate ratio over GarbageCollectionThreshold
// and aggregate deleted count over GarbageCollectionMinDeletes).
func ShouldFullGC(partitions []*partition.Partition, opts *options.Options) bool {
	ratio, deleted, _ := AggregateGarbageRatio(partitions)
	return ratio > opts.MergeOptions.GarbageCollectionThreshold &&
		int(deleted) > opts.MergeOptions.GarbageCollectionMinDeletes
}

// ShouldOnTheFlyGC reports whether an ordinary merge over the given
// input partitions should filter postings against the visible-extents
// list as it writes (spec §4.6: per-merge ratio over
// OnTheFlyGCThreshold).
func ShouldOnTheFlyGC(inputs []*partition.Partition, opts *options.Options) bool {
	ratio, _, _ := AggregateGarbageRatio(inputs)
	return ratio > opts.MergeOptions.OnTheFlyGCThreshold
}
