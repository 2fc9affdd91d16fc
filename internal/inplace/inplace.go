// Package inplace implements lexi's optional in-place long-list index
// (spec §4.7): a single mutable file that terms whose merged posting
// list exceeds the long-list threshold are diverted into, instead of
// paying a full partition merge every time a handful of postings are
// appended to an already-huge list.
//
// A term's postings live in one or more segments within a contiguous
// block-granular chunk of the file. The chunk grows in place up to
// MaxBlocksRun blocks, relocating (copy-and-free) when it needs more
// room; past that point, further growth chains to a brand-new chunk
// instead of relocating, and the term's older segments simply stay
// wherever they already are — addressed directly by the absolute file
// offset recorded in their segment header, never moved again.
package inplace

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	stdErrors "errors"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/errors"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// ErrNotFound indicates a term has no entry in the in-place index.
var ErrNotFound = stdErrors.New("inplace: term not found")

// alignment is the slack, counted twice, that a term's space estimate
// and the pending-size check add on top of the bytes to be written,
// after the original's 4KiB filesystem-block alignment. Segment data
// itself is written unpadded, back to back within a chunk. alignment
// never exceeds the index's own block size, so a small configured
// BlockSize (as in tests) still exercises relocate/chain realistically.
const maxAlignment = 4096

func (ix *Index) alignment() uint64 {
	if ix.blockSize < maxAlignment {
		return ix.blockSize
	}
	return maxAlignment
}

// preallocationFactor is how much extra room a relocation reserves
// beyond the space immediately needed, so that a term growing steadily
// doesn't relocate on every single flush.
const preallocationFactor = 2.0

// minSegmentPostings / maxSegmentPostings bound how small a segment is
// allowed to get before it is merged into its neighbor, and how large
// before an incoming list must be split across multiple segments (spec
// §4.7's MIN_SEGMENT_SIZE / MAX_SEGMENT_SIZE, given fixed defaults here
// since the index configures its space bounds in bytes, not postings).
const (
	minSegmentPostings = 32
	maxSegmentPostings = 131072
)

const defaultFilename = "index.long"

// pendingSegment is one not-yet-flushed segment awaiting its term's
// buffer to drain, either on a term change or once MaxPendingData fills.
type pendingSegment struct {
	First, Last extent.Posting
	Count       uint32
	Encoded     []byte
}

// Index is lexi's in-place long-list store. It implements
// internal/merge.LongListSink so a merge can divert an oversized term
// directly into it instead of writing it to the merged partition.
type Index struct {
	mu sync.Mutex

	file *os.File
	path string

	blockSize    uint64
	maxBlocksRun int
	maxPending   uint64
	contiguous   bool

	codec    posting.Codec
	registry *posting.Registry
	log      *zap.SugaredLogger

	blockCount uint32
	allocated  *roaring.Bitmap // set bits = blocks currently in use

	descriptors map[string]*descriptor

	currentTerm string
	pending     []pendingSegment
	pendingSize uint64

	postingCount uint64
	closed       bool
}

// Config configures a new or reopened in-place Index.
type Config struct {
	DataDir   string
	Directory string
	Options   *options.Options
	Codec     posting.Codec
	Registry  *posting.Registry
	Logger    *zap.SugaredLogger
}

// Open opens the in-place index file at config.DataDir/config.Directory,
// creating it fresh if it does not already exist.
func Open(config *Config) (*Index, error) {
	if config == nil || config.Options == nil || config.Codec == nil || config.Registry == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "in-place index configuration is required",
		).WithField("config").WithRule("required")
	}

	directory := config.Directory
	if directory == "" {
		directory = "/inplace"
	}
	dir := filepath.Join(config.DataDir, directory)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create in-place index directory").WithPath(dir)
	}
	path := filepath.Join(dir, defaultFilename)

	opts := config.Options.InPlaceOptions
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = options.DefaultInPlaceBlockSize
	}
	maxBlocksRun := opts.MaxBlocksRun
	if maxBlocksRun == 0 {
		maxBlocksRun = options.DefaultMaxBlocksPerTerm
	}
	maxPending := opts.MaxPendingData
	if maxPending == 0 {
		maxPending = options.DefaultMaxPendingData
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open in-place index file").WithPath(path)
	}

	ix := &Index{
		file:         file,
		path:         path,
		blockSize:    blockSize,
		maxBlocksRun: maxBlocksRun,
		maxPending:   maxPending,
		contiguous:   true,
		codec:        config.Codec,
		registry:     config.Registry,
		log:          config.Logger,
		descriptors:  make(map[string]*descriptor),
		allocated:    roaring.New(),
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat in-place index file").WithPath(path)
	}
	if info.Size() > 0 {
		if err := ix.load(info.Size()); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return ix, nil
}

// PutTerm implements internal/merge.LongListSink: it appends postings
// for term to the in-place index, buffering and flushing per the same
// protocol incremental callers use.
func (ix *Index) PutTerm(term string, postings []extent.Posting) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return errors.NewConcurrencyError(nil, errors.ErrorCodeShuttingDown, "in-place index is closed").WithOperation("PutTerm")
	}
	return ix.addPostings(term, postings)
}

// GetPostings returns the full, merged posting list for term, flushing
// any buffered segments for it first.
func (ix *Index) GetPostings(term string) ([]extent.Posting, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.currentTerm == term && len(ix.pending) > 0 {
		if err := ix.flushPending(); err != nil {
			return nil, err
		}
	}

	d, ok := ix.descriptors[term]
	if !ok || len(d.Segments) == 0 {
		return nil, ErrNotFound
	}

	var out []extent.Posting
	for _, h := range d.Segments {
		buf := make([]byte, h.ByteLen)
		if _, err := ix.file.ReadAt(buf, int64(h.FilePosition)); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read in-place segment").WithPath(ix.path)
		}
		decoded, err := ix.registry.Decode(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// TermCount reports how many distinct terms the index currently holds.
func (ix *Index) TermCount() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.descriptors)
}

// PostingCount reports the total posting count across every term.
func (ix *Index) PostingCount() uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.postingCount
}

// Close flushes any pending segment, writes the descriptor table, free
// block map, and trailer, fsyncs, and closes the underlying file.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true

	if err := ix.flushPending(); err != nil {
		return err
	}
	if err := ix.save(); err != nil {
		return err
	}
	if err := ix.file.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync in-place index").WithPath(ix.path)
	}
	if err := ix.file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close in-place index").WithPath(ix.path)
	}
	return nil
}

// addPostings recursively splits postings into segments no larger than
// maxSegmentPostings, then buffers each as a pending segment (spec §4.7
// addPostings/addPostings-recursive-split).
func (ix *Index) addPostings(term string, postings []extent.Posting) error {
	if len(postings) == 0 {
		return nil
	}
	if len(postings) > maxSegmentPostings {
		mid := len(postings) / 2
		if err := ix.addPostings(term, postings[:mid]); err != nil {
			return err
		}
		return ix.addPostings(term, postings[mid:])
	}

	encoded, err := ix.codec.Encode(postings)
	if err != nil {
		return err
	}
	return ix.addSegment(term, encoded, uint32(len(postings)), postings[0], postings[len(postings)-1])
}

// addSegment buffers one already-encoded segment for term, flushing the
// previous term's buffer first if term has changed, and merging with the
// previous pending segment when either is under minSegmentPostings
// (spec §4.7's small-segment coalescing rule).
func (ix *Index) addSegment(term string, encoded []byte, count uint32, first, last extent.Posting) error {
	if ix.currentTerm == "" {
		ix.currentTerm = term
	} else if term != ix.currentTerm {
		if err := ix.flushPending(); err != nil {
			return err
		}
		ix.currentTerm = term
	}

	if ix.pendingSize+uint64(len(encoded))+2*ix.alignment() > ix.maxPending {
		if err := ix.flushPending(); err != nil {
			return err
		}
		ix.currentTerm = term
	}

	if n := len(ix.pending); n > 0 {
		prev := &ix.pending[n-1]
		if prev.Count < minSegmentPostings || count < minSegmentPostings {
			if uint64(prev.Count)+uint64(count) <= maxSegmentPostings {
				merged, mergedCount, err := ix.mergeEncoded(prev.Encoded, encoded)
				if err != nil {
					return err
				}
				ix.pendingSize += uint64(len(merged)) - uint64(len(prev.Encoded))
				prev.Encoded = merged
				prev.Count = mergedCount
				prev.Last = last
				return nil
			}
		}
	}

	ix.pending = append(ix.pending, pendingSegment{First: first, Last: last, Count: count, Encoded: encoded})
	ix.pendingSize += uint64(len(encoded))
	return nil
}

// mergeEncoded decodes two already-compressed segments and re-encodes
// their concatenation as one, the decode/re-encode equivalent of the
// original's raw mergeCompressedLists byte splice.
func (ix *Index) mergeEncoded(a, b []byte) ([]byte, uint32, error) {
	da, err := ix.registry.Decode(a)
	if err != nil {
		return nil, 0, err
	}
	db, err := ix.registry.Decode(b)
	if err != nil {
		return nil, 0, err
	}
	combined := append(da, db...)
	encoded, err := ix.codec.Encode(combined)
	if err != nil {
		return nil, 0, err
	}
	return encoded, uint32(len(combined)), nil
}

// flushPending writes every buffered segment for the current term to
// its descriptor's active chunk, relocating or chaining as needed.
func (ix *Index) flushPending() error {
	if len(ix.pending) == 0 {
		ix.currentTerm = ""
		return nil
	}
	term := ix.currentTerm

	var spaceNeeded uint64
	for _, s := range ix.pending {
		spaceNeeded += uint64(len(s.Encoded))
	}
	spaceNeeded += 2 * ix.alignment()

	d, err := ix.descriptorOrCreate(term, spaceNeeded)
	if err != nil {
		return err
	}
	for _, s := range ix.pending {
		d.PostingCount += uint64(s.Count)
		ix.postingCount += uint64(s.Count)
	}

	if ix.contiguous && spaceNeeded > d.BlockLength-d.BytesUsed {
		if d.BlockLength < uint64(ix.maxBlocksRun)*ix.blockSize {
			if err := ix.relocate(d, spaceNeeded); err != nil {
				return err
			}
		}
	}

	for _, s := range ix.pending {
		if ix.contiguous && d.BytesUsed+uint64(len(s.Encoded)) > d.BlockLength {
			if err := ix.chain(d, spaceNeeded); err != nil {
				return err
			}
		}

		pos := int64(d.BlockStart)*int64(ix.blockSize) + int64(d.BytesUsed)
		if _, err := ix.file.WriteAt(s.Encoded, pos); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write in-place segment").WithPath(ix.path)
		}
		d.Segments = append(d.Segments, segmentHeader{
			FilePosition: uint64(pos), FirstPosting: s.First, LastPosting: s.Last,
			PostingCount: s.Count, ByteLen: uint32(len(s.Encoded)),
		})
		d.BytesUsed += uint64(len(s.Encoded))
	}

	ix.pending = ix.pending[:0]
	ix.pendingSize = 0
	ix.currentTerm = ""
	return nil
}

// descriptorOrCreate returns term's descriptor, allocating its first
// contiguous chunk (sized at twice spaceNeeded, spec §4.7
// PREALLOCATION_FACTOR) if term is new.
func (ix *Index) descriptorOrCreate(term string, spaceNeeded uint64) (*descriptor, error) {
	if d, ok := ix.descriptors[term]; ok {
		return d, nil
	}
	d := &descriptor{Term: term}
	if ix.contiguous {
		blocks := blocksFor(uint64(float64(spaceNeeded)*preallocationFactor), ix.blockSize)
		start, err := ix.allocateBlocks(blocks)
		if err != nil {
			return nil, err
		}
		d.BlockStart = start
		d.BlockLength = uint64(blocks) * ix.blockSize
	}
	ix.descriptors[term] = d
	return d, nil
}

// relocate copies a term's active chunk to a larger freshly allocated
// region and frees the old one, adjusting every segment header whose
// FilePosition falls within the relocated range (spec §4.7
// relocatePostings).
func (ix *Index) relocate(d *descriptor, spaceNeeded uint64) error {
	oldBlocks := uint32(d.BlockLength / ix.blockSize)
	oldStart := d.BlockStart

	newBlocks := int(float64(d.BytesUsed+spaceNeeded) * preallocationFactor / float64(ix.blockSize))
	if newBlocks < int(oldBlocks)+2 {
		newBlocks = int(oldBlocks) + 2
	}
	start, err := ix.allocateBlocks(newBlocks)
	if err != nil {
		return err
	}

	if d.BytesUsed > 0 {
		buf := make([]byte, d.BytesUsed)
		if _, err := ix.file.ReadAt(buf, int64(oldStart)*int64(ix.blockSize)); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read chunk for relocation").WithPath(ix.path)
		}
		if _, err := ix.file.WriteAt(buf, int64(start)*int64(ix.blockSize)); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write relocated chunk").WithPath(ix.path)
		}
	}

	delta := int64(start)*int64(ix.blockSize) - int64(oldStart)*int64(ix.blockSize)
	oldChunkStart := uint64(oldStart) * ix.blockSize
	oldChunkEnd := oldChunkStart + d.BlockLength
	for i := range d.Segments {
		fp := d.Segments[i].FilePosition
		if fp >= oldChunkStart && fp < oldChunkEnd {
			d.Segments[i].FilePosition = uint64(int64(fp) + delta)
		}
	}

	ix.freeBlocks(oldStart, oldBlocks)
	d.BlockStart = start
	d.BlockLength = uint64(newBlocks) * ix.blockSize
	return nil
}

// chain abandons the active chunk without relocating its existing
// segments (they keep their current FilePosition forever) and allocates
// a new chunk for further growth (spec §4.7 allocateViaChaining), used
// once a term's run has already grown past maxBlocksRun.
func (ix *Index) chain(d *descriptor, spaceNeeded uint64) error {
	blocks := blocksFor(spaceNeeded, ix.blockSize)
	if blocks < 16 {
		blocks = 16
	}
	start, err := ix.allocateBlocks(blocks)
	if err != nil {
		return err
	}
	d.BlockStart = start
	d.BlockLength = uint64(blocks) * ix.blockSize
	d.BytesUsed = 0
	return nil
}

// allocateBlocks finds count contiguous free blocks, growing the
// backing file if no existing run is large enough.
func (ix *Index) allocateBlocks(count int) (uint32, error) {
	if count <= 0 {
		count = 1
	}

	var runStart uint32
	runLen := 0
	for i := uint32(0); i < ix.blockCount; i++ {
		if ix.allocated.Contains(i) {
			runLen = 0
			continue
		}
		if runLen == 0 {
			runStart = i
		}
		runLen++
		if runLen == count {
			ix.allocated.AddRange(uint64(runStart), uint64(runStart)+uint64(count))
			return runStart, nil
		}
	}

	start := ix.blockCount
	newCount := ix.blockCount + uint32(count)
	if err := ix.file.Truncate(int64(newCount) * int64(ix.blockSize)); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to grow in-place index file").WithPath(ix.path)
	}
	ix.blockCount = newCount
	ix.allocated.AddRange(uint64(start), uint64(start)+uint64(count))
	return start, nil
}

func (ix *Index) freeBlocks(start uint32, count uint32) {
	ix.allocated.RemoveRange(uint64(start), uint64(start)+uint64(count))
}

func blocksFor(bytes, blockSize uint64) int {
	if blockSize == 0 {
		blockSize = options.DefaultInPlaceBlockSize
	}
	n := bytes / blockSize
	if bytes%blockSize != 0 {
		n++
	}
	if n == 0 {
		n = 1
	}
	return int(n)
}

// save writes the descriptor table, free-block bitmap, and a fixed
// trailer to the tail of the file, in that order, so load can find each
// by walking backwards from the trailer.
func (ix *Index) save() error {
	descOffset, err := ix.file.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of in-place index").WithPath(ix.path)
	}

	for _, d := range ix.descriptors {
		if err := ix.writeDescriptor(d); err != nil {
			return err
		}
	}

	bitmapOffset, err := ix.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek before bitmap write").WithPath(ix.path)
	}
	bitmapLen, err := ix.allocated.WriteTo(ix.file)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write free-block bitmap").WithPath(ix.path)
	}

	trailer := make([]byte, trailerSize)
	binary.LittleEndian.PutUint32(trailer[0:], ix.blockCount)
	binary.LittleEndian.PutUint64(trailer[4:], ix.blockSize)
	binary.LittleEndian.PutUint64(trailer[12:], uint64(len(ix.descriptors)))
	binary.LittleEndian.PutUint64(trailer[20:], uint64(descOffset))
	binary.LittleEndian.PutUint64(trailer[28:], uint64(bitmapOffset))
	binary.LittleEndian.PutUint64(trailer[36:], uint64(bitmapLen))
	if _, err := ix.file.Write(trailer); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write in-place trailer").WithPath(ix.path)
	}
	return nil
}

// trailerSize is the fixed-width footer: blockCount(4), blockSize(8),
// termCount(8), descriptorTableOffset(8), bitmapOffset(8), bitmapLen(8).
const trailerSize = 4 + 8 + 8 + 8 + 8 + 8

func (ix *Index) writeDescriptor(d *descriptor) error {
	header := make([]byte, 4+len(d.Term)+4+8+8+8+4)
	pos := 0
	binary.LittleEndian.PutUint32(header[pos:], uint32(len(d.Term)))
	pos += 4
	copy(header[pos:], d.Term)
	pos += len(d.Term)
	binary.LittleEndian.PutUint32(header[pos:], d.BlockStart)
	pos += 4
	binary.LittleEndian.PutUint64(header[pos:], d.BlockLength)
	pos += 8
	binary.LittleEndian.PutUint64(header[pos:], d.BytesUsed)
	pos += 8
	binary.LittleEndian.PutUint64(header[pos:], d.PostingCount)
	pos += 8
	binary.LittleEndian.PutUint32(header[pos:], uint32(len(d.Segments)))

	if _, err := ix.file.Write(header); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write in-place descriptor header").WithPath(ix.path)
	}

	buf := make([]byte, segmentHeaderSize*len(d.Segments))
	for i, h := range d.Segments {
		h.marshal(buf[i*segmentHeaderSize : (i+1)*segmentHeaderSize])
	}
	if len(buf) > 0 {
		if _, err := ix.file.Write(buf); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write in-place segment headers").WithPath(ix.path)
		}
	}
	return nil
}

// load rebuilds blockCount, the free-block bitmap, and the term
// descriptor map from a previously saved trailer.
func (ix *Index) load(size int64) error {
	trailer := make([]byte, trailerSize)
	if _, err := ix.file.ReadAt(trailer, size-trailerSize); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read in-place trailer").WithPath(ix.path)
	}
	ix.blockCount = binary.LittleEndian.Uint32(trailer[0:])
	ix.blockSize = binary.LittleEndian.Uint64(trailer[4:])
	termCount := binary.LittleEndian.Uint64(trailer[12:])
	descOffset := int64(binary.LittleEndian.Uint64(trailer[20:]))
	bitmapOffset := int64(binary.LittleEndian.Uint64(trailer[28:]))
	bitmapLen := int64(binary.LittleEndian.Uint64(trailer[36:]))

	bitmapBuf := make([]byte, bitmapLen)
	if _, err := ix.file.ReadAt(bitmapBuf, bitmapOffset); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read free-block bitmap").WithPath(ix.path)
	}
	bitmap := roaring.New()
	if _, err := bitmap.ReadFrom(bytes.NewReader(bitmapBuf)); err != nil {
		return errors.NewIndexCorruptionError("load", len(bitmapBuf), err)
	}
	ix.allocated = bitmap

	pos := descOffset
	for i := uint64(0); i < termCount; i++ {
		d, next, err := ix.readDescriptor(pos)
		if err != nil {
			return err
		}
		ix.descriptors[d.Term] = d
		ix.postingCount += d.PostingCount
		pos = next
	}
	return nil
}

func (ix *Index) readDescriptor(pos int64) (*descriptor, int64, error) {
	var lenBuf [4]byte
	if _, err := ix.file.ReadAt(lenBuf[:], pos); err != nil {
		return nil, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read descriptor term length").WithPath(ix.path)
	}
	termLen := binary.LittleEndian.Uint32(lenBuf[:])
	pos += 4

	rest := make([]byte, int(termLen)+4+8+8+8+4)
	if _, err := ix.file.ReadAt(rest, pos); err != nil {
		return nil, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read descriptor body").WithPath(ix.path)
	}

	d := &descriptor{Term: string(rest[:termLen])}
	cur := int(termLen)
	d.BlockStart = binary.LittleEndian.Uint32(rest[cur:])
	cur += 4
	d.BlockLength = binary.LittleEndian.Uint64(rest[cur:])
	cur += 8
	d.BytesUsed = binary.LittleEndian.Uint64(rest[cur:])
	cur += 8
	d.PostingCount = binary.LittleEndian.Uint64(rest[cur:])
	cur += 8
	segCount := binary.LittleEndian.Uint32(rest[cur:])
	pos += int64(len(rest))

	if segCount > 0 {
		segBuf := make([]byte, int(segCount)*segmentHeaderSize)
		if _, err := ix.file.ReadAt(segBuf, pos); err != nil {
			return nil, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read descriptor segment headers").WithPath(ix.path)
		}
		d.Segments = make([]segmentHeader, segCount)
		for i := range d.Segments {
			d.Segments[i] = unmarshalSegmentHeader(segBuf[i*segmentHeaderSize : (i+1)*segmentHeaderSize])
		}
		pos += int64(len(segBuf))
	}

	return d, pos, nil
}
