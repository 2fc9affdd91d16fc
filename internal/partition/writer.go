package partition

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/errors"
	"github.com/iamNilotpal/lexi/pkg/options"
	"github.com/iamNilotpal/lexi/pkg/seginfo"
	"go.uber.org/zap"
)

// indexEntry is one sparse dictionary-index record: a term and the file
// offset where the dictionary group holding that term begins. The first
// entry names the first group's first term; later entries name the term
// whose record crossed the index granularity mark.
type indexEntry struct {
	Term   string
	Offset int64
}

// footerSize is the fixed trailer written at the very end of a partition
// file: termCount, listCount, postingCount (8 bytes each), firstPosting,
// lastPosting (8 bytes each), compressionMode (1 byte), indexOffset (8
// bytes), indexCount (8 bytes) — 57 bytes, little-endian throughout.
const footerSize = 8*7 + 1

// Writer builds a single partition file: append-only, buffered, and
// fsync'd on Close, following the same openSegmentFile idiom the
// Bitcask-style segment store used (O_CREATE|O_RDWR, explicit seek to
// end, File.Sync before Close returns) generalized from a single flat
// stream to a structured dictionary-group + segment layout.
type Writer struct {
	file   *os.File
	buf    *bufio.Writer
	offset int64

	id    uint64
	codec posting.Codec
	opts  *options.Options
	log   *zap.SugaredLogger
	path  string

	groupSize        int
	termsInGroup     int
	groupStartOffset int64
	prevTerm         string

	index                []indexEntry
	bytesSinceIndexMark  int64
	indexGranularity     int64

	termCount    uint64
	listCount    uint64
	postingCount uint64
	firstPosting extent.Posting
	lastPosting  extent.Posting
}

// Config configures a new partition Writer.
type Config struct {
	DataDir   string
	Directory string
	Prefix    string
	ID        uint64
	Codec     posting.Codec
	Options   *options.Options
	Logger    *zap.SugaredLogger
}

// New creates a new partition file and returns a Writer ready to accept
// terms in ascending order via AddTerm.
func New(config *Config) (*Writer, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Codec == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "partition writer configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	filename := seginfo.GenerateName(config.ID, config.Prefix)
	path := filepath.Join(config.DataDir, config.Directory, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create partition file").
			WithFileName(filename).WithPath(path)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of partition file").
			WithFileName(filename).WithPath(path)
	}

	granularity := int64(config.Options.PartitionOptions.FileGranularity)
	if granularity > 0 && offset%granularity != 0 {
		pad := granularity - offset%granularity
		if _, err := file.Write(make([]byte, pad)); err != nil {
			_ = file.Close()
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to align partition file start").
				WithFileName(filename).WithPath(path)
		}
		offset += pad
	}

	groupSize := config.Options.PartitionOptions.DictionaryGroup
	if groupSize <= 0 {
		groupSize = options.DefaultDictionaryGroupSize
	}

	return &Writer{
		file:             file,
		buf:              bufio.NewWriter(file),
		offset:           offset,
		id:               config.ID,
		codec:            config.Codec,
		opts:             config.Options,
		log:              config.Logger,
		path:             path,
		groupSize:        groupSize,
		groupStartOffset: offset,
		indexGranularity: 64 * 1024,
	}, nil
}

// AddTerm appends one term's full, sorted posting list to the partition.
// Terms must be supplied in strictly ascending order; postings within a
// term's list must be strictly increasing (spec §6 invariant).
func (w *Writer) AddTerm(term string, postings []extent.Posting) error {
	if len(postings) == 0 {
		return errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "cannot write a term with no postings",
		).WithField("postings").WithRule("non_empty")
	}

	if w.termsInGroup == 0 {
		w.groupStartOffset = w.currentOffset()
		w.prevTerm = ""
		if len(w.index) == 0 {
			// Guarantee the index always has an entry for the very first
			// group, regardless of the byte-granularity trigger below, so
			// a Reader always has a starting point for its binary search.
			w.index = append(w.index, indexEntry{Term: term, Offset: w.groupStartOffset})
		}
	}

	if err := w.writeFrontCodedTerm(term, w.prevTerm); err != nil {
		return err
	}
	w.prevTerm = term

	segments := splitSegments(postings, w.opts.PartitionOptions.TargetSegmentSize)
	if err := w.writeInt32(int32(len(segments))); err != nil {
		return err
	}

	headers := make([]segmentHeader, len(segments))
	payloads := make([][]byte, len(segments))
	for i, seg := range segments {
		encoded, err := w.codec.Encode(seg)
		if err != nil {
			return err
		}
		headers[i] = segmentHeader{
			ByteLen:      uint32(len(encoded)),
			PostingCount: uint32(len(seg)),
			FirstPosting: seg[0],
			LastPosting:  seg[len(seg)-1],
		}
		payloads[i] = encoded
	}

	for _, h := range headers {
		if err := w.writeSegmentHeader(h); err != nil {
			return err
		}
	}
	for _, p := range payloads {
		if _, err := w.write(p); err != nil {
			return err
		}
	}
	w.postingCount += uint64(len(postings))

	if w.firstPosting == 0 || postings[0] < w.firstPosting {
		w.firstPosting = postings[0]
	}
	if postings[len(postings)-1] > w.lastPosting {
		w.lastPosting = postings[len(postings)-1]
	}

	w.termCount++
	w.listCount++
	w.termsInGroup++
	if w.termsInGroup >= w.groupSize {
		w.termsInGroup = 0
	}

	w.bytesSinceIndexMark += int64(len(term))
	for _, p := range payloads {
		w.bytesSinceIndexMark += int64(len(p))
	}
	if w.bytesSinceIndexMark >= w.indexGranularity {
		w.index = append(w.index, indexEntry{Term: term, Offset: w.groupStartOffset})
		w.bytesSinceIndexMark = 0
	}

	return nil
}

// Close writes the trailer (dictionary index + fixed footer), fsyncs,
// and closes the underlying file, returning a Partition handle ready for
// read access.
func (w *Writer) Close() (*Partition, error) {
	indexOffset := w.currentOffset()
	for _, e := range w.index {
		if err := w.writeString(e.Term); err != nil {
			return nil, err
		}
		if err := w.writeInt64(e.Offset); err != nil {
			return nil, err
		}
	}

	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(footer[0:], w.termCount)
	binary.LittleEndian.PutUint64(footer[8:], w.listCount)
	binary.LittleEndian.PutUint64(footer[16:], w.postingCount)
	binary.LittleEndian.PutUint64(footer[24:], w.firstPosting)
	binary.LittleEndian.PutUint64(footer[32:], w.lastPosting)
	footer[40] = byte(w.codec.ID())
	binary.LittleEndian.PutUint64(footer[41:], uint64(indexOffset))
	binary.LittleEndian.PutUint64(footer[49:], uint64(len(w.index)))

	if _, err := w.write(footer); err != nil {
		return nil, err
	}

	if err := w.buf.Flush(); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush partition buffer").WithPath(w.path)
	}
	if err := w.file.Sync(); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync partition file").WithPath(w.path)
	}
	if err := w.file.Close(); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close partition file").WithPath(w.path)
	}

	reader, err := openReader(w.path)
	if err != nil {
		return nil, err
	}

	w.log.Infow(
		"partition closed",
		"id", w.id, "path", w.path, "terms", w.termCount, "postings", w.postingCount,
	)

	return &Partition{
		ID:           w.id,
		Path:         w.path,
		TermCount:    w.termCount,
		ListCount:    w.listCount,
		PostingCount: w.postingCount,
		FirstPost:    w.firstPosting,
		LastPost:     w.lastPosting,
		Reader:       reader,
	}, nil
}

func (w *Writer) currentOffset() int64 { return w.offset }

func (w *Writer) write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.offset += int64(n)
	if err != nil {
		return n, errors.NewStorageError(err, errors.ErrorCodeIO, "partition write failed").WithPath(w.path)
	}
	return n, nil
}

func (w *Writer) writeInt32(v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.write(b[:])
	return err
}

func (w *Writer) writeInt64(v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.write(b[:])
	return err
}

func (w *Writer) writeString(s string) error {
	if err := w.writeInt32(int32(len(s))); err != nil {
		return err
	}
	_, err := w.write([]byte(s))
	return err
}

func (w *Writer) writeSegmentHeader(h segmentHeader) error {
	var b [segmentHeaderSize]byte
	binary.LittleEndian.PutUint32(b[0:], h.ByteLen)
	binary.LittleEndian.PutUint32(b[4:], h.PostingCount)
	binary.LittleEndian.PutUint64(b[8:], h.FirstPosting)
	binary.LittleEndian.PutUint64(b[16:], h.LastPosting)
	_, err := w.write(b[:])
	return err
}

// writeFrontCodedTerm writes term front-coded against prev: a byte count
// of the shared prefix, then the differing suffix, restarting (zero
// shared-prefix) at the start of every dictionary group.
func (w *Writer) writeFrontCodedTerm(term, prev string) error {
	shared := 0
	if prev != "" {
		for shared < len(term) && shared < len(prev) && term[shared] == prev[shared] {
			shared++
		}
	}
	suffix := term[shared:]

	if err := w.writeInt32(int32(shared)); err != nil {
		return err
	}
	return w.writeString(suffix)
}

// splitSegments partitions a term's sorted posting list into segments
// targeting targetSize bytes each, estimated with a fast vbyte-like gap
// size model (independent of the codec actually chosen) so the boundary
// decision doesn't require speculative encode/re-encode passes.
func splitSegments(postings []extent.Posting, targetSize uint64) [][]extent.Posting {
	if targetSize == 0 {
		targetSize = options.DefaultTargetSegmentSize
	}
	minSize := uint64(float64(targetSize) * options.MinSegmentSizeRatio)

	var segments [][]extent.Posting
	start := 0
	estBytes := uint64(0)
	prev := extent.Posting(0)

	for i, p := range postings {
		gap := p - prev
		estBytes += uint64(estimateVarintLen(gap))
		prev = p

		isLast := i == len(postings)-1
		if estBytes >= targetSize || isLast {
			segments = append(segments, postings[start:i+1])
			start = i + 1
			estBytes = 0
		}
	}

	// Merge an undersized trailing segment into its predecessor, as the
	// spec's segmentation rule requires.
	if len(segments) > 1 {
		last := segments[len(segments)-1]
		lastBytes := estimateSegmentBytes(last)
		if lastBytes < minSize {
			merged := append(segments[len(segments)-2], last...)
			segments = segments[:len(segments)-2]
			segments = append(segments, merged)
		}
	}
	return segments
}

func estimateVarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

func estimateSegmentBytes(postings []extent.Posting) uint64 {
	var total uint64
	prev := extent.Posting(0)
	for _, p := range postings {
		total += uint64(estimateVarintLen(p - prev))
		prev = p
	}
	return total
}
