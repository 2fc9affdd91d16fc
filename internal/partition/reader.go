package partition

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/errors"
)

// Reader provides random-access term lookup over a closed, immutable
// partition file: a sparse in-memory dictionary index built at Open time
// narrows a lookup to the dictionary group holding the greatest indexed
// term not after it, and the front-coded entries are then scanned
// linearly from there, across group boundaries, until the term is
// reached or passed.
type Reader struct {
	file  *os.File
	path  string
	codec posting.Method

	groupSize   int
	index       []indexEntry
	indexOffset int64

	termCount    uint64
	listCount    uint64
	postingCount uint64
	firstPost    extent.Posting
	lastPost     extent.Posting
}

// Open opens an existing partition file for read access.
func Open(path string, groupSize int, registry *posting.Registry) (*Partition, error) {
	reader, err := openReader(path)
	if err != nil {
		return nil, err
	}
	reader.groupSize = groupSize
	_ = registry // codecs are resolved per-segment from their own tag byte

	return &Partition{
		Path:         path,
		TermCount:    reader.termCount,
		ListCount:    reader.listCount,
		PostingCount: reader.postingCount,
		FirstPost:    reader.firstPost,
		LastPost:     reader.lastPost,
		Reader:       reader,
	}, nil
}

// openReader reads the trailer and dictionary index of the partition at
// path and returns a Reader positioned for Get calls.
func openReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open partition file").WithPath(path)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat partition file").WithPath(path)
	}
	if info.Size() < footerSize {
		_ = file.Close()
		return nil, errors.NewIndexCorruptionError("Open", int(info.Size()), nil)
	}

	footer := make([]byte, footerSize)
	if _, err := file.ReadAt(footer, info.Size()-footerSize); err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read partition trailer").WithPath(path)
	}

	termCount := binary.LittleEndian.Uint64(footer[0:])
	listCount := binary.LittleEndian.Uint64(footer[8:])
	postingCount := binary.LittleEndian.Uint64(footer[16:])
	firstPosting := binary.LittleEndian.Uint64(footer[24:])
	lastPosting := binary.LittleEndian.Uint64(footer[32:])
	codec := posting.Method(footer[40])
	indexOffset := int64(binary.LittleEndian.Uint64(footer[41:]))
	indexCount := binary.LittleEndian.Uint64(footer[49:])

	r := &Reader{
		file:         file,
		path:         path,
		codec:        codec,
		indexOffset:  indexOffset,
		termCount:    termCount,
		listCount:    listCount,
		postingCount: postingCount,
		firstPost:    firstPosting,
		lastPost:     lastPosting,
	}

	if indexCount > 0 {
		r.index = make([]indexEntry, 0, indexCount)
		pos := indexOffset
		for i := uint64(0); i < indexCount; i++ {
			term, n, err := readStringAt(file, pos)
			if err != nil {
				_ = file.Close()
				return nil, err
			}
			pos += n

			var offBuf [8]byte
			if _, err := file.ReadAt(offBuf[:], pos); err != nil {
				_ = file.Close()
				return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read dictionary index entry").WithPath(path)
			}
			pos += 8

			r.index = append(r.index, indexEntry{Term: term, Offset: int64(binary.LittleEndian.Uint64(offBuf[:]))})
		}
	}

	return r, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if err := r.file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close partition file").WithPath(r.path)
	}
	return nil
}

// Get returns the full, decoded, ascending posting list for term, or
// ErrNotFound if this partition's dictionary has no entry for it.
func (r *Reader) Get(term string, registry *posting.Registry) ([]extent.Posting, error) {
	off, err := r.findSegmentsOffset(term)
	if err != nil {
		return nil, err
	}
	return r.decodeSegments(off, registry)
}

// findSegmentsOffset scans forward from term's indexed dictionary group
// and returns the file offset where its segment-list data begins, or
// ErrNotFound.
func (r *Reader) findSegmentsOffset(term string) (int64, error) {
	if len(r.index) == 0 {
		return 0, ErrNotFound
	}

	pos := r.findGroupOffset(term)
	prevTerm := ""

	// The index holds one entry per indexGranularity bytes of records,
	// not one per group, so the scan is not confined to a single group.
	for pos < r.indexOffset {
		candidate, err := r.readOneFrontCodedTerm(pos, prevTerm)
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		prevTerm = candidate.term

		if candidate.term == term {
			return candidate.segmentsOffset, nil
		}
		if candidate.term > term {
			return 0, ErrNotFound
		}

		span, err := r.segmentsByteLen(candidate.segmentsOffset)
		if err != nil {
			return 0, err
		}
		pos = candidate.segmentsOffset + span
	}

	return 0, ErrNotFound
}

// SegmentLocation is one segment's on-disk span within a partition file:
// enough to fetch and cache its still-encoded payload independently of
// its neighbors (internal/cache's Fetch callback), without decoding it.
type SegmentLocation struct {
	Offset       int64
	ByteLen      uint32
	PostingCount uint32
	FirstPosting extent.Posting
	LastPosting  extent.Posting
}

// Locate returns the on-disk location of every segment in term's segment
// list, in ascending on-disk (and therefore posting) order, without
// reading any payload bytes.
func (r *Reader) Locate(term string) ([]SegmentLocation, error) {
	off, err := r.findSegmentsOffset(term)
	if err != nil {
		return nil, err
	}

	var countBuf [4]byte
	if _, err := r.file.ReadAt(countBuf[:], off); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment count").WithPath(r.path)
	}
	segCount := int(int32(binary.LittleEndian.Uint32(countBuf[:])))
	pos := off + 4

	locs := make([]SegmentLocation, segCount)
	for i := 0; i < segCount; i++ {
		var hb [segmentHeaderSize]byte
		if _, err := r.file.ReadAt(hb[:], pos); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment header").WithPath(r.path)
		}
		h := segmentHeader{
			ByteLen:      binary.LittleEndian.Uint32(hb[0:]),
			PostingCount: binary.LittleEndian.Uint32(hb[4:]),
			FirstPosting: binary.LittleEndian.Uint64(hb[8:]),
			LastPosting:  binary.LittleEndian.Uint64(hb[16:]),
		}
		pos += segmentHeaderSize
		locs[i] = SegmentLocation{
			Offset: pos, ByteLen: h.ByteLen, PostingCount: h.PostingCount,
			FirstPosting: h.FirstPosting, LastPosting: h.LastPosting,
		}
		pos += int64(h.ByteLen)
	}
	return locs, nil
}

// ReadSegment reads one segment's raw, still-encoded payload bytes at
// loc, decoded by the caller (internal/cache decodes through a
// posting.Registry so it can hold the same bytes regardless of which
// codec wrote them).
func (r *Reader) ReadSegment(loc SegmentLocation) ([]byte, error) {
	payload := make([]byte, loc.ByteLen)
	if _, err := r.file.ReadAt(payload, loc.Offset); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment payload").WithPath(r.path)
	}
	return payload, nil
}

// findGroupOffset returns the file offset of the dictionary group whose
// first term is the greatest recorded index term <= target, or the very
// first group's offset if target precedes every indexed term. Callers
// must ensure r.index is non-empty.
func (r *Reader) findGroupOffset(target string) int64 {
	i := sort.Search(len(r.index), func(i int) bool {
		return r.index[i].Term > target
	})
	if i == 0 {
		return r.index[0].Offset
	}
	return r.index[i-1].Offset
}

// frontCodedTerm is one decoded dictionary entry and the file offset
// where its segment-list data begins.
type frontCodedTerm struct {
	term           string
	segmentsOffset int64
}

// readOneFrontCodedTerm decodes a single front-coded dictionary entry at
// pos and returns the decoded term and the offset where its segment data
// begins. Reaching the next dictionary entry requires separately
// skipping over that segment data (see segmentsByteLen) — it does not
// simply follow the term string.
func (r *Reader) readOneFrontCodedTerm(pos int64, prevTerm string) (frontCodedTerm, error) {
	var lenBuf [4]byte
	if _, err := r.file.ReadAt(lenBuf[:], pos); err != nil {
		return frontCodedTerm{}, io.EOF
	}
	shared := int(int32(binary.LittleEndian.Uint32(lenBuf[:])))
	pos += 4

	if shared < 0 || shared > len(prevTerm) {
		return frontCodedTerm{}, errors.NewIndexCorruptionError("readOneFrontCodedTerm", int(pos), nil)
	}

	suffix, n, err := readStringAt(r.file, pos)
	if err != nil {
		return frontCodedTerm{}, err
	}
	pos += n

	term := prevTerm[:shared] + suffix

	return frontCodedTerm{term: term, segmentsOffset: pos}, nil
}

// decodeSegments reads the segment count, headers, and payloads at pos
// and returns the fully decoded, concatenated posting list.
func (r *Reader) decodeSegments(pos int64, registry *posting.Registry) ([]extent.Posting, error) {
	var countBuf [4]byte
	if _, err := r.file.ReadAt(countBuf[:], pos); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment count").WithPath(r.path)
	}
	segCount := int(int32(binary.LittleEndian.Uint32(countBuf[:])))
	pos += 4

	headers := make([]segmentHeader, segCount)
	for i := 0; i < segCount; i++ {
		var hb [segmentHeaderSize]byte
		if _, err := r.file.ReadAt(hb[:], pos); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment header").WithPath(r.path)
		}
		headers[i] = segmentHeader{
			ByteLen:      binary.LittleEndian.Uint32(hb[0:]),
			PostingCount: binary.LittleEndian.Uint32(hb[4:]),
			FirstPosting: binary.LittleEndian.Uint64(hb[8:]),
			LastPosting:  binary.LittleEndian.Uint64(hb[16:]),
		}
		pos += segmentHeaderSize
	}

	var postings []extent.Posting
	for _, h := range headers {
		payload := make([]byte, h.ByteLen)
		if _, err := r.file.ReadAt(payload, pos); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment payload").WithPath(r.path)
		}
		pos += int64(h.ByteLen)

		decoded, err := registry.Decode(payload)
		if err != nil {
			return nil, err
		}
		postings = append(postings, decoded...)
	}
	return postings, nil
}

// segmentsByteLen returns the total number of bytes occupied by the
// segment-count field, every segment header, and every segment payload
// starting at pos, without decoding any payload — the span a scanner
// must skip to reach the next dictionary entry.
func (r *Reader) segmentsByteLen(pos int64) (int64, error) {
	var countBuf [4]byte
	if _, err := r.file.ReadAt(countBuf[:], pos); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment count").WithPath(r.path)
	}
	segCount := int(int32(binary.LittleEndian.Uint32(countBuf[:])))
	cur := pos + 4

	var payloadTotal int64
	for i := 0; i < segCount; i++ {
		var hb [segmentHeaderSize]byte
		if _, err := r.file.ReadAt(hb[:], cur); err != nil {
			return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment header").WithPath(r.path)
		}
		payloadTotal += int64(binary.LittleEndian.Uint32(hb[0:]))
		cur += segmentHeaderSize
	}

	return 4 + int64(segCount)*segmentHeaderSize + payloadTotal, nil
}

// readStringAt reads a length-prefixed string at pos and returns it
// along with the total number of bytes consumed (4 + len).
func readStringAt(file *os.File, pos int64) (string, int64, error) {
	var lenBuf [4]byte
	if _, err := file.ReadAt(lenBuf[:], pos); err != nil {
		return "", 0, io.EOF
	}
	n := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if n < 0 {
		return "", 0, errors.NewIndexCorruptionError("readStringAt", int(pos), nil)
	}

	buf := make([]byte, n)
	if n > 0 {
		if _, err := file.ReadAt(buf, pos+4); err != nil {
			return "", 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read string payload")
		}
	}
	return string(buf), int64(4 + n), nil
}
