package merge

import (
	"math"
	"sort"

	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// Policy selects which partitions of the active set participate in a
// maintenance merge (spec §4.6 "Merge-policy selection"). partitions is
// assumed ordered oldest-first, as the active set is maintained.
type Policy interface {
	Name() string
	Select(partitions []*partition.Partition, opts *options.Options) []*partition.Partition
}

// NewPolicy returns the concrete Policy for a pkg/options.MergePolicy
// value (spec §4.6's six named strategies, vocabulary grounded on
// _examples/original_source/index/ondisk_index_manager.cpp).
func NewPolicy(p options.MergePolicy) Policy {
	switch p {
	case options.PolicyImmediate:
		return immediatePolicy{}
	case options.PolicyLogarithmic:
		return logarithmicPolicy{}
	case options.PolicySqrtN:
		return sqrtNPolicy{}
	case options.PolicySmallMerge:
		return smallMergePolicy{}
	case options.PolicyInPlace:
		return inPlacePolicy{}
	default:
		return noMergePolicy{}
	}
}

// noMergePolicy never selects any partition.
type noMergePolicy struct{}

func (noMergePolicy) Name() string { return options.PolicyNoMerge.String() }
func (noMergePolicy) Select([]*partition.Partition, *options.Options) []*partition.Partition {
	return nil
}

// immediatePolicy always selects every active partition.
type immediatePolicy struct{}

func (immediatePolicy) Name() string { return options.PolicyImmediate.String() }
func (immediatePolicy) Select(partitions []*partition.Partition, _ *options.Options) []*partition.Partition {
	return partitions
}

// logarithmicPolicy collects the longest newest-first suffix whose
// combined posting count does not exceed 1.4x the size of the partition
// immediately older than the suffix (spec §4.6).
type logarithmicPolicy struct{}

func (logarithmicPolicy) Name() string { return options.PolicyLogarithmic.String() }

func (logarithmicPolicy) Select(partitions []*partition.Partition, _ *options.Options) []*partition.Partition {
	n := len(partitions)
	if n < 2 {
		return nil
	}

	start := n - 1
	sum := partitions[n-1].PostingCount
	for start > 0 {
		next := partitions[start-1].PostingCount
		if float64(sum) > 1.4*float64(next) {
			break
		}
		start--
		sum += partitions[start].PostingCount
	}

	if start == n-1 {
		return nil
	}
	return partitions[start:]
}

// sqrtNPolicy implements spec §4.6's two-partition rule directly: merge
// the two smallest partitions iff the smaller's size exceeds the square
// root of the larger's; otherwise only the smaller one is selected (to be
// merged with the in-memory update lexicon rather than another
// partition). The spec text only defines this for exactly two partitions;
// generalizing to N, this picks the two smallest and applies the same
// rule, a judgment call recorded in DESIGN.md.
type sqrtNPolicy struct{}

func (sqrtNPolicy) Name() string { return options.PolicySqrtN.String() }

func (sqrtNPolicy) Select(partitions []*partition.Partition, _ *options.Options) []*partition.Partition {
	if len(partitions) < 2 {
		return nil
	}

	ordered := make([]*partition.Partition, len(partitions))
	copy(ordered, partitions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PostingCount < ordered[j].PostingCount })

	smaller, larger := ordered[0], ordered[1]
	if larger.PostingCount == 0 {
		return []*partition.Partition{smaller}
	}

	if float64(smaller.PostingCount) > math.Sqrt(float64(larger.PostingCount)) {
		return []*partition.Partition{smaller, larger}
	}
	return []*partition.Partition{smaller}
}

// smallMergePolicy selects every partition smaller than 0.4 x
// MAX_UPDATE_SPACE, used at shutdown (spec §4.6, §5).
type smallMergePolicy struct{}

func (smallMergePolicy) Name() string { return options.PolicySmallMerge.String() }

func (smallMergePolicy) Select(partitions []*partition.Partition, opts *options.Options) []*partition.Partition {
	var limit uint64
	if opts.LexiconOptions != nil {
		limit = opts.LexiconOptions.MaxUpdateSpace
	}
	threshold := uint64(0.4 * float64(limit))

	var selected []*partition.Partition
	for _, p := range partitions {
		if p.PostingCount < threshold {
			selected = append(selected, p)
		}
	}
	return selected
}

// inPlacePolicy never merges partitions against each other; long lists
// are routed into the in-place index at the per-term level instead (spec
// §4.6 "keep a single small merge tail" is handled by pairing this policy
// with a SmallMerge pass at the caller's discretion).
type inPlacePolicy struct{}

func (inPlacePolicy) Name() string { return options.PolicyInPlace.String() }
func (inPlacePolicy) Select([]*partition.Partition, *options.Options) []*partition.Partition {
	return nil
}

// IncludeLexicon reports whether the update lexicon's buffered bytes
// should participate in this merge rather than being flushed to its own
// partition first (spec §4.6: "included... when its memory use exceeds
// 40% of the limit").
func IncludeLexicon(lexiconBytes, limit uint64) bool {
	if limit == 0 {
		return false
	}
	return float64(lexiconBytes) > 0.40*float64(limit)
}
