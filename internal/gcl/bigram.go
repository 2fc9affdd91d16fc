package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Bigram is the specialised two-child AND for consecutive positions: a
// match requires the second child to occur at exactly first.End+1, the
// tight case the lexicon's optional bigram index precomputes directly
// (spec §4.5, §4.2 Bigram option).
type Bigram struct {
	secureFlags
	first  Cursor
	second Cursor
}

// NewBigram builds a strict-adjacency cursor over first and second.
func NewBigram(first, second Cursor) *Bigram {
	return &Bigram{first: first, second: second}
}

func (b *Bigram) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	for {
		f, ok := b.first.FirstStartGE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if s, ok := b.second.FirstStartGE(f.End + 1); ok && s.Start == f.End+1 {
			return extent.Extent{Start: f.Start, End: s.End}, true
		}
		p = f.Start + 1
	}
}

func (b *Bigram) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	start := extent.Posting(1)
	for {
		e, ok := b.FirstStartGE(start)
		if !ok {
			return extent.Extent{}, false
		}
		if e.End >= p {
			return e, true
		}
		start = e.Start + 1
	}
}

func (b *Bigram) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	for {
		f, ok := b.first.LastStartLE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if s, ok := b.second.FirstStartGE(f.End + 1); ok && s.Start == f.End+1 {
			return extent.Extent{Start: f.Start, End: s.End}, true
		}
		if f.Start == 0 {
			return extent.Extent{}, false
		}
		p = f.Start - 1
	}
}

func (b *Bigram) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	best := extent.Extent{}
	found := false
	start := extent.Posting(1)
	for {
		e, ok := b.FirstStartGE(start)
		if !ok || e.End > p {
			break
		}
		best, found = e, true
		start = e.Start + 1
	}
	return best, found
}
