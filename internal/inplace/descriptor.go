package inplace

import (
	"encoding/binary"

	"github.com/iamNilotpal/lexi/internal/extent"
)

// segmentHeaderSize is the on-disk size of one segment header: 8 bytes
// filePosition, 8 bytes firstPosting, 8 bytes lastPosting, 4 bytes
// postingCount, 4 bytes byteLen, little-endian (mirrors
// internal/partition's fixed-width header layout rather than the
// original's gap-varint-coded one; see DESIGN.md).
const segmentHeaderSize = 32

// segmentHeader locates one compressed posting segment within the
// in-place file, either in the term's current contiguous chunk or in a
// chunk it has since been chained away from.
type segmentHeader struct {
	FilePosition uint64
	FirstPosting extent.Posting
	LastPosting  extent.Posting
	PostingCount uint32
	ByteLen      uint32
}

func (h segmentHeader) marshal(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], h.FilePosition)
	binary.LittleEndian.PutUint64(b[8:], h.FirstPosting)
	binary.LittleEndian.PutUint64(b[16:], h.LastPosting)
	binary.LittleEndian.PutUint32(b[24:], h.PostingCount)
	binary.LittleEndian.PutUint32(b[28:], h.ByteLen)
}

func unmarshalSegmentHeader(b []byte) segmentHeader {
	return segmentHeader{
		FilePosition: binary.LittleEndian.Uint64(b[0:]),
		FirstPosting: binary.LittleEndian.Uint64(b[8:]),
		LastPosting:  binary.LittleEndian.Uint64(b[16:]),
		PostingCount: binary.LittleEndian.Uint32(b[24:]),
		ByteLen:      binary.LittleEndian.Uint32(b[28:]),
	}
}

// descriptor is one term's in-place book-keeping record: the active
// contiguous chunk it is currently appending into (BlockStart/BlockLength/
// BytesUsed), and every segment header written for it so far, wherever in
// the file each segment actually lives (spec §4.7's
// MyInPlaceTermDescriptor, adapted — a term that has been chained keeps
// its older segments' original FilePosition values forever; only the
// active chunk ever relocates).
type descriptor struct {
	Term         string
	BlockStart   uint32 // block index of the active contiguous chunk
	BlockLength  uint64 // bytes, a multiple of the index's block size
	BytesUsed    uint64 // bytes used within the active chunk
	PostingCount uint64
	Segments     []segmentHeader
}
