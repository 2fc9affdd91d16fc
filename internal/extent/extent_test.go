package extent_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/extent"
)

func TestExtentValid(t *testing.T) {
	require.True(t, extent.Extent{Start: 1, End: 1}.Valid())
	require.True(t, extent.Extent{Start: 1, End: 5}.Valid())
	require.False(t, extent.Extent{Start: 0, End: 5}.Valid())
	require.False(t, extent.Extent{Start: 5, End: 1}.Valid())
}

func TestExtentContainsAndOverlaps(t *testing.T) {
	outer := extent.Extent{Start: 1, End: 10}
	inner := extent.Extent{Start: 3, End: 5}
	disjoint := extent.Extent{Start: 20, End: 25}

	require.True(t, outer.Contains(inner))
	require.False(t, inner.Contains(outer))
	require.True(t, outer.Overlaps(inner))
	require.False(t, outer.Overlaps(disjoint))
	require.True(t, outer.Before(disjoint))
}

func TestNonNestingSortedDistinct(t *testing.T) {
	extents := []extent.Extent{
		{Start: 1, End: 2},
		{Start: 3, End: 4},
		{Start: 5, End: 9},
	}
	require.True(t, extent.NonNesting(extents))
}

func TestNonNestingRejectsNested(t *testing.T) {
	extents := []extent.Extent{
		{Start: 1, End: 10},
		{Start: 3, End: 4},
	}
	require.False(t, extent.NonNesting(extents))
}

func TestNonNestingRejectsUnsorted(t *testing.T) {
	extents := []extent.Extent{
		{Start: 5, End: 9},
		{Start: 1, End: 2},
	}
	require.False(t, extent.NonNesting(extents))
}

func TestNonNestingEmptyAndSingle(t *testing.T) {
	require.True(t, extent.NonNesting(nil))
	require.True(t, extent.NonNesting([]extent.Extent{{Start: 1, End: 1}}))
}
