package gcl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
)

// mapResolver resolves literal terms from an in-memory postings table,
// standing in for the index manager in these algebra-only tests.
type mapResolver map[string][]extent.Posting

func (m mapResolver) Resolve(term string) (gcl.Cursor, error) {
	postings, ok := m[term]
	if !ok {
		return gcl.Empty{}, nil
	}
	return gcl.NewLiteral(postings), nil
}

func collect(c gcl.Cursor, limit int) []extent.Extent {
	var out []extent.Extent
	p := extent.Posting(1)
	for i := 0; i < limit; i++ {
		e, ok := c.FirstStartGE(p)
		if !ok {
			break
		}
		out = append(out, e)
		p = e.Start + 1
	}
	return out
}

func TestLiteralCursor(t *testing.T) {
	lit := gcl.NewLiteral([]extent.Posting{1, 5})
	require.Equal(t, []extent.Extent{{Start: 1, End: 1}, {Start: 5, End: 5}}, collect(lit, 10))

	e, ok := lit.LastStartLE(5)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 5, End: 5}, e)

	_, ok = lit.LastStartLE(0)
	require.False(t, ok)
}

func TestSequencePhrase(t *testing.T) {
	resolver := mapResolver{
		"cat": {2},
		"mat": {6},
	}
	parser := gcl.NewParser(resolver)

	c, err := parser.Parse(`"cat".."mat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Extent{{Start: 2, End: 6}}, collect(c, 10))
}

// TestParsedAndOperator is spec.md:247's worked example, driven through the
// parser rather than gcl.NewAnd directly, to confirm "^" reaches And (per
// _examples/original_source/query/gclquery.cpp:568-581) and that And's
// covering-extent rule reproduces the canonical [(1,6),(5,6)] result.
func TestParsedAndOperator(t *testing.T) {
	resolver := mapResolver{
		"the": {1, 5},
		"mat": {6},
	}
	parser := gcl.NewParser(resolver)

	c, err := parser.Parse(`"the"^"mat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Extent{{Start: 1, End: 6}, {Start: 5, End: 6}}, collect(c, 10))
}

func TestImplicitPhraseFromQuotedWhitespace(t *testing.T) {
	resolver := mapResolver{
		"new":  {1, 4},
		"york": {2, 5},
	}
	parser := gcl.NewParser(resolver)

	c, err := parser.Parse(`"new york"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Extent{{Start: 1, End: 2}, {Start: 4, End: 5}}, collect(c, 10))
}

func TestRangeAndContainment(t *testing.T) {
	resolver := mapResolver{"the": {1, 5}}
	parser := gcl.NewParser(resolver)

	c, err := parser.Parse(`"the"<[3]`)
	require.NoError(t, err)
	require.Equal(t, []extent.Extent{{Start: 1, End: 1}, {Start: 5, End: 5}}, collect(c, 10))
}

func TestOrNarrowest(t *testing.T) {
	a := gcl.NewLiteral([]extent.Posting{1, 10})
	b := gcl.NewLiteral([]extent.Posting{2, 3})
	or := gcl.NewOr(a, b)

	e, ok := or.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 1, End: 1}, e)
}

func TestAndCoveringExtent(t *testing.T) {
	a := gcl.NewLiteral([]extent.Posting{1})
	b := gcl.NewLiteral([]extent.Posting{10})
	and := gcl.NewAnd(a, b)

	e, ok := and.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 1, End: 10}, e)
}

func TestAndFailsWhenAnyChildFails(t *testing.T) {
	a := gcl.NewLiteral([]extent.Posting{1})
	b := gcl.NewLiteral([]extent.Posting{1, 2})
	and := gcl.NewAnd(a, b)

	e, ok := and.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 1, End: 1}, e)

	_, ok = and.FirstStartGE(2)
	require.False(t, ok, "a has no posting >= 2, so the intersection must fail rather than fall back to b alone")
}

func TestBigramStrictAdjacency(t *testing.T) {
	first := gcl.NewLiteral([]extent.Posting{1, 10})
	second := gcl.NewLiteral([]extent.Posting{2, 20})
	bg := gcl.NewBigram(first, second)

	e, ok := bg.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Extent{Start: 1, End: 2}, e)

	_, ok = bg.FirstStartGE(3)
	require.False(t, ok)
}

func TestSyntaxErrorNeverPanics(t *testing.T) {
	parser := gcl.NewParser(mapResolver{})

	_, err := parser.Parse(`"unterminated`)
	require.ErrorIs(t, err, gcl.ErrSyntax)

	_, err = parser.Parse(`(("a")`)
	require.ErrorIs(t, err, gcl.ErrSyntax)

	_, err = parser.Parse(`"a" ### `)
	require.ErrorIs(t, err, gcl.ErrSyntax)
}

func TestUnknownTermYieldsEmptyIterator(t *testing.T) {
	parser := gcl.NewParser(mapResolver{})
	c, err := parser.Parse(`"ghost"`)
	require.NoError(t, err)
	require.Empty(t, collect(c, 10))
}
