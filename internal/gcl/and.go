package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// And is the GCL intersection operator: a primitive call only succeeds if
// every child succeeds, and the result is the covering extent spanning all
// of the children's candidates — the smallest Start and the largest End
// (spec §4.5, "like OR but with the widest extent"). This is how Wumpus's
// ExtentList_AND composes with Simplifier::simplifyList to collapse nested
// conjunctions into the non-nesting (Start, End) pairs spec.md:247 gives
// for "the"^"mat" (_examples/original_source/query/gclquery.cpp:570-576).
type And struct {
	secureFlags
	children []Cursor
}

// NewAnd constructs the intersection of children.
func NewAnd(children ...Cursor) *And {
	return &And{children: children}
}

func (a *And) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	return combineAll(a.children, func(c Cursor) (extent.Extent, bool) { return c.FirstStartGE(p) })
}

func (a *And) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	return combineAll(a.children, func(c Cursor) (extent.Extent, bool) { return c.FirstEndGE(p) })
}

func (a *And) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	return combineAll(a.children, func(c Cursor) (extent.Extent, bool) { return c.LastStartLE(p) })
}

func (a *And) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	return combineAll(a.children, func(c Cursor) (extent.Extent, bool) { return c.LastEndLE(p) })
}

// combineAll invokes fn against every child. If any child fails to find a
// match, the intersection as a whole fails — unlike callAll, a missing
// child is not simply dropped. Otherwise it returns the extent covering
// every child's candidate: the smallest Start paired with the largest End.
func combineAll(children []Cursor, fn func(Cursor) (extent.Extent, bool)) (extent.Extent, bool) {
	if len(children) == 0 {
		return extent.Extent{}, false
	}

	first, ok := fn(children[0])
	if !ok {
		return extent.Extent{}, false
	}
	covering := first

	for _, c := range children[1:] {
		e, ok := fn(c)
		if !ok {
			return extent.Extent{}, false
		}
		if e.Start < covering.Start {
			covering.Start = e.Start
		}
		if e.End > covering.End {
			covering.End = e.End
		}
	}

	return covering, true
}
