// Package gcl implements the Generalized Concordance List extent algebra:
// a closed set of lazy, stateful iterators over the non-nesting extent
// space defined by internal/extent, composed from four Clarke/Burkowski
// primitives and driven by a small recursive-descent parser over GCL query
// text.
package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Cursor is the interface every GCL operator implements: four primitives
// for seeking the nearest match to a given Posting. Repeated calls with
// monotonically increasing p are not amortized: Literal binary-searches
// unless p resolves to its cached index, and Sequence and Bigram rescan
// their children on FirstEndGE and LastEndLE. A cursor is stateful —
// it is not safe for concurrent use, matching the "per-iterator cache, no
// shared-cache lock" concurrency rule every consumer of this package
// follows.
type Cursor interface {
	// FirstStartGE returns the extent with the smallest Start >= p, or
	// (zero, false) if none exists.
	FirstStartGE(p extent.Posting) (extent.Extent, bool)

	// FirstEndGE returns the extent with the smallest End >= p, or (zero,
	// false) if none exists.
	FirstEndGE(p extent.Posting) (extent.Extent, bool)

	// LastStartLE returns the extent with the largest Start <= p, or
	// (zero, false) if none exists.
	LastStartLE(p extent.Posting) (extent.Extent, bool)

	// LastEndLE returns the extent with the largest End <= p, or (zero,
	// false) if none exists.
	LastEndLE(p extent.Posting) (extent.Extent, bool)
}

// Secure reports whether a cursor's output is already known to lie within
// the caller's visible-extents restriction, so the manager can apply
// restrictList at most once along any path (spec §4.5).
type Secure interface {
	IsSecure() bool
	IsAlmostSecure() bool
}

// secureFlags is embedded by cursors to report their security status.
// Nothing in this package sets its fields, so every embedding cursor
// reports the zero value, "not secure"; children's status is not
// forwarded.
type secureFlags struct {
	secure       bool
	almostSecure bool
}

func (f secureFlags) IsSecure() bool       { return f.secure }
func (f secureFlags) IsAlmostSecure() bool { return f.almostSecure }
