// Package visible implements the VisibleExtents security collaborator:
// the address ranges a given reader is permitted to see, and the
// restriction wrapper that intersects an unrestricted cursor with them.
package visible

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
)

// Extents is the visible-ranges collaborator (spec §4.5, §6): a sparse,
// mostly-contiguous set of Posting addresses a reader may observe,
// backed by a roaring bitmap so membership and range tests stay cheap
// even over a multi-billion-posting address space.
type Extents struct {
	mu     sync.RWMutex
	ranges *roaring64.Bitmap
}

// New returns an Extents with nothing marked visible.
func New() *Extents {
	return &Extents{ranges: roaring64.New()}
}

// NewAllVisible returns an Extents where every address in [1,
// extent.MaxOffset] is visible — the default for an index with no
// security restriction configured.
func NewAllVisible() *Extents {
	e := New()
	e.ranges.AddRange(1, uint64(extent.MaxOffset)+1)
	return e
}

// Allow marks [start,end] visible.
func (e *Extents) Allow(start, end extent.Posting) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ranges.AddRange(start, end+1)
}

// Revoke marks [start,end] no longer visible.
func (e *Extents) Revoke(start, end extent.Posting) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ranges.RemoveRange(start, end+1)
}

// Contains reports whether p is currently visible.
func (e *Extents) Contains(p extent.Posting) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ranges.Contains(p)
}

// RestrictList wraps c so every match it reports is contained in a
// visible extent, applying the security filter at most once along a
// query path (spec §4.5).
func (e *Extents) RestrictList(c gcl.Cursor) gcl.Cursor {
	if sec, ok := c.(gcl.Secure); ok && sec.IsSecure() {
		return c
	}
	return gcl.NewBounded(c, e)
}

// FirstStartGE, FirstEndGE, LastStartLE, and LastEndLE let Extents serve
// directly as the "container" cursor of a gcl.Containment, representing
// the visible ranges as maximal contiguous extents.
func (e *Extents) FirstStartGE(p extent.Posting) (extent.Extent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rangeFrom(p)
}

func (e *Extents) FirstEndGE(p extent.Posting) (extent.Extent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	// A contiguous visible range's End only grows as Start grows, so the
	// first range satisfying End >= p is the same search as Start >= p
	// once p is clamped into the covering range's start.
	if !e.ranges.Contains(p) {
		return e.rangeFrom(p)
	}
	start := p
	for start > 1 && e.ranges.Contains(start-1) {
		start--
	}
	return e.extendRange(start)
}

func (e *Extents) LastStartLE(p extent.Posting) (extent.Extent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ranges.Contains(p) {
		start := p
		for start > 1 && e.ranges.Contains(start-1) {
			start--
		}
		return e.extendRange(start)
	}
	it := e.ranges.ReverseIterator()
	it.AdvanceIfNeeded(p)
	for it.HasNext() {
		v := it.PeekNext()
		if v <= p {
			start := v
			for start > 1 && e.ranges.Contains(start-1) {
				start--
			}
			return e.extendRange(start)
		}
		it.Next()
	}
	return extent.Extent{}, false
}

func (e *Extents) LastEndLE(p extent.Posting) (extent.Extent, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	it := e.ranges.ReverseIterator()
	for it.HasNext() {
		v := it.Next()
		if v > p {
			continue
		}
		if e.ranges.Contains(v + 1) {
			continue // v is not the end of its contiguous run
		}
		start := v
		for start > 1 && e.ranges.Contains(start-1) {
			start--
		}
		return extent.Extent{Start: start, End: v}, true
	}
	return extent.Extent{}, false
}

// rangeFrom finds the first set bit >= p and returns its maximal
// contiguous run as an extent. Caller holds e.mu.
func (e *Extents) rangeFrom(p extent.Posting) (extent.Extent, bool) {
	it := e.ranges.Iterator()
	it.AdvanceIfNeeded(p)
	if !it.HasNext() {
		return extent.Extent{}, false
	}
	return e.extendRange(it.Next())
}

// extendRange grows start forward while consecutive bits remain set,
// returning the maximal contiguous run starting at start. Caller holds
// e.mu.
func (e *Extents) extendRange(start extent.Posting) (extent.Extent, bool) {
	end := start
	for e.ranges.Contains(end + 1) {
		end++
	}
	return extent.Extent{Start: start, End: end}, true
}
