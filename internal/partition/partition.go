// Package partition implements lexi's on-disk partition format: an
// immutable, sorted, term-keyed file of segmented posting lists with a
// front-coded dictionary and sparse index, written once by Writer and
// opened for random lookups by Reader.
package partition

import (
	stdErrors "errors"

	"github.com/iamNilotpal/lexi/internal/extent"
)

// ErrNotFound indicates a term has no entry in this partition's dictionary.
var ErrNotFound = stdErrors.New("partition: term not found")

// segmentHeaderSize is the on-disk size of a single segment header: 4
// bytes byteLen, 4 bytes postingCount, 8 bytes firstPosting, 8 bytes
// lastPosting, all little-endian (spec §6).
const segmentHeaderSize = 24

// segmentHeader describes one compressed posting block within a term's
// segment list.
type segmentHeader struct {
	ByteLen      uint32
	PostingCount uint32
	FirstPosting extent.Posting
	LastPosting  extent.Posting
}

// Partition is a handle to an immutable on-disk partition: its sequence
// id, backing file path, and the trailer metadata read at Open time.
// Postings are resolved lazily through the embedded Reader.
type Partition struct {
	ID           uint64
	Path         string
	TermCount    uint64 // number of distinct terms in this partition's dictionary
	ListCount    uint64 // number of segment-lists, one per term
	PostingCount uint64 // total postings across every segment in the file
	FirstPost    extent.Posting
	LastPost     extent.Posting
	Deleted      uint64 // deleted-posting count, maintained by merge/GC bookkeeping
	*Reader
}

// GarbageRatio returns deletedPostings / postings for this partition, the
// quantity merge-policy thresholds are evaluated against.
func (p *Partition) GarbageRatio() float64 {
	if p.PostingCount == 0 {
		return 0
	}
	return float64(p.Deleted) / float64(p.PostingCount)
}
