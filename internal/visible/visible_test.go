package visible_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
	"github.com/iamNilotpal/lexi/internal/visible"
)

func TestExtentsContains(t *testing.T) {
	e := visible.New()
	require.False(t, e.Contains(5))

	e.Allow(3, 7)
	require.True(t, e.Contains(3))
	require.True(t, e.Contains(7))
	require.False(t, e.Contains(8))

	e.Revoke(5, 5)
	require.True(t, e.Contains(4))
	require.False(t, e.Contains(5))
	require.True(t, e.Contains(6))
}

func TestExtentsAsCursor(t *testing.T) {
	e := visible.New()
	e.Allow(3, 7)
	e.Allow(10, 10)

	got, ok := e.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 3, End: 7}, got)

	got, ok = e.FirstStartGE(8)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 10, End: 10}, got)

	_, ok = e.FirstStartGE(11)
	require.False(t, ok)

	got, ok = e.LastStartLE(9)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 3, End: 7}, got)

	got, ok = e.LastEndLE(9)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 3, End: 7}, got)

	got, ok = e.LastEndLE(100)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 10, End: 10}, got)
}

func TestRestrictListFiltersHiddenPostings(t *testing.T) {
	e := visible.New()
	e.Allow(1, 3)

	lit := gcl.NewLiteral([]extent.Posting{1, 4, 5})
	restricted := e.RestrictList(lit)

	got, ok := restricted.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 1, End: 1}, got)

	_, ok = restricted.FirstStartGE(2)
	require.False(t, ok)
}

func TestRestrictListSkipsAlreadySecureCursor(t *testing.T) {
	e := visible.New()
	e.Allow(1, 1)
	other := visible.New()
	other.Allow(1, 100)

	bounded := gcl.NewBounded(gcl.NewLiteral([]extent.Posting{1, 2}), other)
	restricted := e.RestrictList(bounded)
	require.Same(t, Cursor(bounded), Cursor(restricted))
}

// Cursor is a tiny local alias to compare interface identity without
// importing gcl twice under different names in the assertion above.
type Cursor = gcl.Cursor
