package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Range is the synthetic GCL operator `[n]`: every extent (i, i+n-1) for
// i in [1, extent.MaxOffset-n+1], generated on demand rather than
// materialized.
type Range struct {
	secureFlags
	n extent.Posting
}

// NewRange constructs the `[n]` operator. n must be >= 1.
func NewRange(n extent.Posting) *Range {
	if n < 1 {
		n = 1
	}
	return &Range{n: n}
}

func (r *Range) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	if p < 1 {
		p = 1
	}
	return r.at(p)
}

func (r *Range) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	// End = Start + n - 1 >= p  =>  Start >= p - n + 1.
	var start extent.Posting = 1
	if p > r.n-1 {
		start = p - r.n + 1
	}
	return r.FirstStartGE(start)
}

func (r *Range) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	if p < 1 {
		return extent.Extent{}, false
	}
	return r.at(p)
}

func (r *Range) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	if p < r.n {
		return extent.Extent{}, false
	}
	return r.LastStartLE(p - r.n + 1)
}

func (r *Range) at(start extent.Posting) (extent.Extent, bool) {
	end := start + r.n - 1
	if end > extent.MaxOffset || end < start {
		return extent.Extent{}, false
	}
	return extent.Extent{Start: start, End: end}, true
}
