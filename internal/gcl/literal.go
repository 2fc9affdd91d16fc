package gcl

import (
	"sort"

	"github.com/iamNilotpal/lexi/internal/extent"
)

// Literal is the leaf operator: a single term's posting list, each
// occurrence represented as a degenerate extent [p,p]. Postings arrive
// already sorted and strictly increasing from the index manager.
type Literal struct {
	secureFlags
	postings []extent.Posting
	lastIdx  int
}

// NewLiteral wraps a sorted, strictly increasing posting list as a Cursor.
func NewLiteral(postings []extent.Posting) *Literal {
	return &Literal{postings: postings}
}

func (l *Literal) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	i := l.seek(p)
	if i >= len(l.postings) {
		return extent.Extent{}, false
	}
	return extent.Extent{Start: l.postings[i], End: l.postings[i]}, true
}

func (l *Literal) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	return l.FirstStartGE(p)
}

func (l *Literal) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	i := l.seek(p + 1)
	if i == 0 {
		return extent.Extent{}, false
	}
	v := l.postings[i-1]
	return extent.Extent{Start: v, End: v}, true
}

func (l *Literal) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	return l.LastStartLE(p)
}

// seek returns the index of the first posting >= p. The cached lastIdx
// is returned without a search only when postings[lastIdx-1] < p <=
// postings[lastIdx]; any other p, including one that has moved past
// lastIdx, runs a binary search over the whole list.
func (l *Literal) seek(p extent.Posting) int {
	if l.lastIdx < len(l.postings) && l.postings[l.lastIdx] >= p {
		// p resolves to the cached index itself; no search is needed.
		if l.lastIdx == 0 || l.postings[l.lastIdx-1] < p {
			return l.lastIdx
		}
	}
	i := sort.Search(len(l.postings), func(i int) bool { return l.postings[i] >= p })
	l.lastIdx = i
	return i
}
