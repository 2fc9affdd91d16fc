package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Bounded is the security-restriction wrapper: it intersects an
// otherwise unrestricted cursor with a visible-ranges cursor so that
// every match reported is contained in some visible extent (spec §4.5
// "restriction wrapper", tracked via isSecure/isAlmostSecure so it is
// applied at most once per query path).
type Bounded struct {
	inner *Containment
}

// NewBounded restricts cursor to the ranges visible reports, given as a
// Cursor over the visible address space (internal/visible implements
// this over a roaring-bitmap range set).
func NewBounded(cursor Cursor, visible Cursor) *Bounded {
	return &Bounded{inner: NewContainment(cursor, visible, OpContainedIn)}
}

func (b *Bounded) FirstStartGE(p extent.Posting) (extent.Extent, bool) { return b.inner.FirstStartGE(p) }
func (b *Bounded) FirstEndGE(p extent.Posting) (extent.Extent, bool)   { return b.inner.FirstEndGE(p) }
func (b *Bounded) LastStartLE(p extent.Posting) (extent.Extent, bool) { return b.inner.LastStartLE(p) }
func (b *Bounded) LastEndLE(p extent.Posting) (extent.Extent, bool)   { return b.inner.LastEndLE(p) }

func (b *Bounded) IsSecure() bool       { return true }
func (b *Bounded) IsAlmostSecure() bool { return true }
