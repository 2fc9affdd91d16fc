package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Sequence implements GCL's adjacency operator (`..`): an ordered chain
// of two or more children where each subsequent child's match must start
// strictly after the previous one ends. The resulting extent spans from
// the first child's Start to the last child's End (spec §4.5).
type Sequence struct {
	secureFlags
	children []Cursor
}

// NewSequence builds an ordered phrase/sequence cursor over children, in
// the order they must appear.
func NewSequence(children ...Cursor) *Sequence {
	return &Sequence{children: children}
}

func (s *Sequence) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	for {
		first, ok := s.children[0].FirstStartGE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if last, ok := s.chainFrom(first); ok {
			return extent.Extent{Start: first.Start, End: last.End}, true
		}
		p = first.Start + 1
	}
}

func (s *Sequence) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	// Any full chain's End is the last child's End; seek the first chain
	// whose first child starts at or after p's plausible lower bound and
	// walk forward until the chain's End satisfies p.
	start := extent.Posting(1)
	for {
		e, ok := s.FirstStartGE(start)
		if !ok {
			return extent.Extent{}, false
		}
		if e.End >= p {
			return e, true
		}
		start = e.Start + 1
	}
}

func (s *Sequence) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	for {
		first, ok := s.children[0].LastStartLE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if last, ok := s.chainFrom(first); ok {
			return extent.Extent{Start: first.Start, End: last.End}, true
		}
		if first.Start == 0 {
			return extent.Extent{}, false
		}
		p = first.Start - 1
	}
}

func (s *Sequence) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	best := extent.Extent{}
	found := false
	start := extent.Posting(1)
	for {
		e, ok := s.FirstStartGE(start)
		if !ok {
			break
		}
		if e.End > p {
			break
		}
		best, found = e, true
		start = e.Start + 1
	}
	return best, found
}

// chainFrom tries to extend a chain starting at first through the
// remaining children in order, each strictly after the previous one
// ends, and returns the final child's matched extent.
func (s *Sequence) chainFrom(first extent.Extent) (extent.Extent, bool) {
	prevEnd := first.End
	last := first
	for _, child := range s.children[1:] {
		next, ok := child.FirstStartGE(prevEnd + 1)
		if !ok {
			return extent.Extent{}, false
		}
		last = next
		prevEnd = next.End
	}
	return last, true
}
