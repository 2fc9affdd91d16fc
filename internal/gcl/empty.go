package gcl

import "github.com/iamNilotpal/lexi/internal/extent"

// Empty is the Cursor for a query that can never match: an oversize
// token, an unknown term, or a parse fallback (spec §7 "malformed GCL
// query -> empty iterator, never abort").
type Empty struct{ secureFlags }

func (Empty) FirstStartGE(extent.Posting) (extent.Extent, bool) { return extent.Extent{}, false }
func (Empty) FirstEndGE(extent.Posting) (extent.Extent, bool)   { return extent.Extent{}, false }
func (Empty) LastStartLE(extent.Posting) (extent.Extent, bool)  { return extent.Extent{}, false }
func (Empty) LastEndLE(extent.Posting) (extent.Extent, bool)    { return extent.Extent{}, false }
