package gcl

import (
	"sort"

	"github.com/iamNilotpal/lexi/internal/extent"
)

// Cached wraps an eagerly-materialized, sorted, non-nesting extent list.
// No operator and not the parser constructs one, and
// options.gclOptions.ShortListThreshold is not read: every operator walks
// its child cursors on each call, whatever their size.
type Cached struct {
	secureFlags
	extents []extent.Extent
}

// NewCached materializes extents as a Cached cursor. extents must already
// be sorted by extent.Extent.Less and non-nesting.
func NewCached(extents []extent.Extent) *Cached {
	return &Cached{extents: extents}
}

func (c *Cached) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	i := sort.Search(len(c.extents), func(i int) bool { return c.extents[i].Start >= p })
	if i >= len(c.extents) {
		return extent.Extent{}, false
	}
	return c.extents[i], true
}

func (c *Cached) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	i := sort.Search(len(c.extents), func(i int) bool { return c.extents[i].End >= p })
	if i >= len(c.extents) {
		return extent.Extent{}, false
	}
	return c.extents[i], true
}

func (c *Cached) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	i := sort.Search(len(c.extents), func(i int) bool { return c.extents[i].Start > p })
	if i == 0 {
		return extent.Extent{}, false
	}
	return c.extents[i-1], true
}

func (c *Cached) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	// extents is non-nesting and sorted by Start, which (absent
	// containment) makes End non-decreasing too, so this search is valid.
	i := sort.Search(len(c.extents), func(i int) bool { return c.extents[i].End > p })
	if i == 0 {
		return extent.Extent{}, false
	}
	return c.extents[i-1], true
}
