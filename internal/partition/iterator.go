package partition

import (
	"io"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/posting"
)

// Iterator walks every term in a partition's dictionary in ascending
// order, decoding each term's full posting list as it goes. Unlike Get,
// which narrows straight to one dictionary group via the sparse index,
// Iterator scans the front-coded stream linearly from its start — the
// access pattern a full merge needs rather than a point lookup.
type Iterator struct {
	r        *Reader
	registry *posting.Registry

	pos      int64
	prevTerm string
	done     bool
}

// Iterate returns an Iterator positioned at the first dictionary entry.
func (r *Reader) Iterate(registry *posting.Registry) *Iterator {
	return &Iterator{r: r, registry: registry}
}

// Next advances to the next term and returns it with its fully decoded
// posting list. ok is false once every term has been consumed.
func (it *Iterator) Next() (term string, postings []extent.Posting, ok bool, err error) {
	if it.done || len(it.r.index) == 0 {
		return "", nil, false, nil
	}
	if it.pos == 0 {
		it.pos = it.r.index[0].Offset
	}
	if it.pos >= it.r.indexOffset {
		it.done = true
		return "", nil, false, nil
	}

	candidate, err := it.r.readOneFrontCodedTerm(it.pos, it.prevTerm)
	if err != nil {
		if err == io.EOF {
			it.done = true
			return "", nil, false, nil
		}
		return "", nil, false, err
	}
	it.prevTerm = candidate.term

	postings, err = it.r.decodeSegments(candidate.segmentsOffset, it.registry)
	if err != nil {
		return "", nil, false, err
	}

	span, err := it.r.segmentsByteLen(candidate.segmentsOffset)
	if err != nil {
		return "", nil, false, err
	}
	it.pos = candidate.segmentsOffset + span
	return candidate.term, postings, true, nil
}
