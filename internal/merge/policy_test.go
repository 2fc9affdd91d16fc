package merge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/merge"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func partitionsWithSizes(sizes ...uint64) []*partition.Partition {
	var out []*partition.Partition
	for _, s := range sizes {
		out = append(out, &partition.Partition{PostingCount: s})
	}
	return out
}

func TestNoMergePolicySelectsNothing(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicyNoMerge)
	require.Nil(t, p.Select(partitionsWithSizes(10, 20), &opts))
}

func TestImmediatePolicySelectsAll(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicyImmediate)
	parts := partitionsWithSizes(10, 20, 30)
	require.Equal(t, parts, p.Select(parts, &opts))
}

func TestLogarithmicPolicyStopsWhenNewestDwarfsOlder(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicyLogarithmic)

	// newest (100) alone already exceeds 1.4x the next-older (10): no merge.
	parts := partitionsWithSizes(10, 100)
	require.Nil(t, p.Select(parts, &opts))
}

func TestLogarithmicPolicyAbsorbsSmallNewestIntoOlderRun(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicyLogarithmic)

	// newest (10) is well under 1.4x the next-older (1000): absorb it, then
	// the whole array is consumed since there is nothing further to check.
	parts := partitionsWithSizes(1000, 10)
	selected := p.Select(parts, &opts)
	require.Len(t, selected, 2)
}

func TestSqrtNPolicyMergesWhenSmallerExceedsSqrt(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicySqrtN)

	parts := partitionsWithSizes(100, 50) // sqrt(100)=10, 50>10 -> merge both
	selected := p.Select(parts, &opts)
	require.Len(t, selected, 2)
}

func TestSqrtNPolicyKeepsOnlySmallerWhenBelowThreshold(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicySqrtN)

	parts := partitionsWithSizes(10000, 5) // sqrt(10000)=100, 5<100 -> only smaller
	selected := p.Select(parts, &opts)
	require.Len(t, selected, 1)
	require.EqualValues(t, 5, selected[0].PostingCount)
}

func TestSmallMergePolicySelectsBelowThreshold(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.LexiconOptions.MaxUpdateSpace = 1000 // threshold = 0.4 * 1000 = 400

	p := merge.NewPolicy(options.PolicySmallMerge)
	parts := partitionsWithSizes(100, 500, 2000)
	selected := p.Select(parts, &opts)
	require.Len(t, selected, 1)
	require.EqualValues(t, 100, selected[0].PostingCount)
}

func TestInPlacePolicyNeverMergesPartitions(t *testing.T) {
	opts := options.NewDefaultOptions()
	p := merge.NewPolicy(options.PolicyInPlace)
	require.Nil(t, p.Select(partitionsWithSizes(10, 20), &opts))
}

func TestIncludeLexicon(t *testing.T) {
	require.True(t, merge.IncludeLexicon(41, 100))
	require.False(t, merge.IncludeLexicon(40, 100))
	require.False(t, merge.IncludeLexicon(100, 0))
}
