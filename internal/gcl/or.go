package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Or is the GCL union operator: for each primitive call, every child
// produces its own candidate and Or returns the narrowest one (smallest
// End, ties broken by the largest Start), per spec §4.5.
type Or struct {
	secureFlags
	children []Cursor
}

// NewOr constructs the union of children. No bound is applied to the
// number of children; options.gclOptions.MaxScorerCount is not checked
// here or by the parser.
func NewOr(children ...Cursor) *Or {
	return &Or{children: children}
}

func (o *Or) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	return narrowest(callAll(o.children, func(c Cursor) (extent.Extent, bool) { return c.FirstStartGE(p) }))
}

func (o *Or) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	return narrowest(callAll(o.children, func(c Cursor) (extent.Extent, bool) { return c.FirstEndGE(p) }))
}

func (o *Or) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	return narrowest(callAll(o.children, func(c Cursor) (extent.Extent, bool) { return c.LastStartLE(p) }))
}

func (o *Or) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	return narrowest(callAll(o.children, func(c Cursor) (extent.Extent, bool) { return c.LastEndLE(p) }))
}

// callAll invokes fn against every child and collects the candidates that
// found a match.
func callAll(children []Cursor, fn func(Cursor) (extent.Extent, bool)) []extent.Extent {
	out := make([]extent.Extent, 0, len(children))
	for _, c := range children {
		if e, ok := fn(c); ok {
			out = append(out, e)
		}
	}
	return out
}

// narrowest picks the candidate with the smallest End, breaking ties in
// favor of the largest Start (the tightest-fitting match).
func narrowest(cands []extent.Extent) (extent.Extent, bool) {
	if len(cands) == 0 {
		return extent.Extent{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.End < best.End || (c.End == best.End && c.Start > best.Start) {
			best = c
		}
	}
	return best, true
}

