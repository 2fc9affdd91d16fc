package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// OrderedCombination concatenates cursors known in advance to cover
// disjoint, increasing Posting ranges without overlap — the shape of a
// term's postings once split across an active partition set, where each
// partition occupies its own address range (spec §4.6 "ordered
// combination" fast path). Because the ranges never interleave, each
// primitive needs only find the one covering cursor instead of scanning
// every child like Or does.
type OrderedCombination struct {
	secureFlags
	spans []orderedSpan
}

type orderedSpan struct {
	first, last extent.Posting
	cursor      Cursor
}

// NewOrderedCombination builds a combination cursor from cursors paired
// with the inclusive [first,last] Posting range each one covers. Spans
// must be supplied in increasing, non-overlapping order.
func NewOrderedCombination(spans ...struct {
	First, Last extent.Posting
	Cursor      Cursor
}) *OrderedCombination {
	oc := &OrderedCombination{spans: make([]orderedSpan, len(spans))}
	for i, s := range spans {
		oc.spans[i] = orderedSpan{first: s.First, last: s.Last, cursor: s.Cursor}
	}
	return oc
}

func (oc *OrderedCombination) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	for _, span := range oc.spans {
		if span.last < p {
			continue
		}
		if e, ok := span.cursor.FirstStartGE(p); ok {
			return e, true
		}
	}
	return extent.Extent{}, false
}

func (oc *OrderedCombination) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	for _, span := range oc.spans {
		if span.last < p {
			continue
		}
		if e, ok := span.cursor.FirstEndGE(p); ok {
			return e, true
		}
	}
	return extent.Extent{}, false
}

func (oc *OrderedCombination) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	for i := len(oc.spans) - 1; i >= 0; i-- {
		span := oc.spans[i]
		if span.first > p {
			continue
		}
		if e, ok := span.cursor.LastStartLE(p); ok {
			return e, true
		}
	}
	return extent.Extent{}, false
}

func (oc *OrderedCombination) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	for i := len(oc.spans) - 1; i >= 0; i-- {
		span := oc.spans[i]
		if span.first > p {
			continue
		}
		if e, ok := span.cursor.LastEndLE(p); ok {
			return e, true
		}
	}
	return extent.Extent{}, false
}
