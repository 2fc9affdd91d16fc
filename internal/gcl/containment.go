package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// ContainmentOp selects which of the four containment arrows (>, <, />,
// /<) a Containment cursor implements.
type ContainmentOp int

const (
	// OpContains is ">": Left extents that contain a Right extent.
	OpContains ContainmentOp = iota
	// OpContainedIn is "<": Left extents contained within a Right extent.
	OpContainedIn
	// OpNotContains is "/>": Left extents that contain no Right extent.
	OpNotContains
	// OpNotContainedIn is "/<": Left extents contained in no Right extent.
	OpNotContainedIn
)

// Containment implements the four GCL containment arrows. Per spec §4.5,
// the result always reports extents of Left, advancing Left and Right
// alternately until a Left candidate does (or does not) sit inside a
// Right extent, as the chosen operator requires.
type Containment struct {
	secureFlags
	left  Cursor
	right Cursor
	op    ContainmentOp
}

// NewContainment builds a containment cursor for left OP right.
func NewContainment(left, right Cursor, op ContainmentOp) *Containment {
	return &Containment{left: left, right: right, op: op}
}

func (c *Containment) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	for {
		l, ok := c.left.FirstStartGE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if c.matches(l) {
			return l, true
		}
		p = l.Start + 1
	}
}

func (c *Containment) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	for {
		l, ok := c.left.FirstEndGE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if c.matches(l) {
			return l, true
		}
		p = l.End + 1
	}
}

func (c *Containment) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	for {
		l, ok := c.left.LastStartLE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if c.matches(l) {
			return l, true
		}
		if l.Start == 0 {
			return extent.Extent{}, false
		}
		p = l.Start - 1
	}
}

func (c *Containment) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	for {
		l, ok := c.left.LastEndLE(p)
		if !ok {
			return extent.Extent{}, false
		}
		if c.matches(l) {
			return l, true
		}
		if l.End == 0 {
			return extent.Extent{}, false
		}
		p = l.End - 1
	}
}

// matches evaluates the containment predicate for one Left candidate
// against the Right cursor.
func (c *Containment) matches(l extent.Extent) bool {
	switch c.op {
	case OpContains:
		return c.rightWithin(l)
	case OpNotContains:
		return !c.rightWithin(l)
	case OpContainedIn:
		return c.leftWithinRight(l)
	case OpNotContainedIn:
		return !c.leftWithinRight(l)
	}
	return false
}

// rightWithin reports whether some Right extent lies fully inside l.
func (c *Containment) rightWithin(l extent.Extent) bool {
	r, ok := c.right.FirstStartGE(l.Start)
	if !ok {
		return false
	}
	return l.Contains(r)
}

// leftWithinRight reports whether some Right extent fully encloses l.
func (c *Containment) leftWithinRight(l extent.Extent) bool {
	r, ok := c.right.LastStartLE(l.Start)
	if !ok {
		return false
	}
	return r.Contains(l)
}
