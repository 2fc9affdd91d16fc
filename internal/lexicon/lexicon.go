// Package lexicon implements the update lexicon (spec §4.2): the
// single-writer, many-reader in-memory structure that absorbs new
// postings between flushes. A power-of-two open-addressed hash table
// with move-to-front chaining maps each term to a chunk chain of
// variable-byte-coded posting deltas; flushing sorts the vocabulary and
// hands each term's decoded posting list to internal/partition.
package lexicon

import (
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/pkg/errors"
	"github.com/iamNilotpal/lexi/pkg/options"
)

const initialBucketCount = 256

// docMarker prefixes a term's document-level variant entry (spec §3:
// "Terms beginning with the reserved marker <!> are document-level
// variants of ordinary terms").
const docMarker = "<!>"

// Lexicon is the in-memory update structure. The ingest thread is its
// single writer; Lookup gives readers a frozen copy of a term's decoded
// postings as of the moment it is called, so a reader holds no reference
// into the live chain once Lookup returns. Lexicon has no lock of its
// own: Lookup must not overlap Insert or Flush, and internal/manager
// serializes them under its ingest mutex (spec §5
// "shared mutable dictionary", Option B: route queries through a
// snapshot rather than exposing the live chain).
type Lexicon struct {
	opts *options.Options
	log  *zap.SugaredLogger

	containers      []*container
	activeContainer int
	chunks          []chunkDesc

	entries []*entry
	buckets []termID

	termCount  uint64
	totalBytes uint64

	// Document-level side channel state (spec §4.2 "Document-level
	// side-channel").
	docOpen     bool
	docStart    extent.Posting
	openDocTerm []termID

	// lowYield is set when the previous PartialFlush freed under 15% of
	// buffered memory, forcing the next flush to be a full one (spec
	// §4.2 "Partial flush").
	lowYield bool
}

// Config configures a new Lexicon.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New builds an empty Lexicon.
func New(config *Config) (*Lexicon, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "lexicon configuration is required",
		).WithField("config").WithRule("required")
	}

	l := &Lexicon{
		opts:    config.Options,
		log:     config.Logger,
		buckets: make([]termID, initialBucketCount),
	}
	l.containers = append(l.containers, newContainer(0))
	return l, nil
}

// Size returns the total bytes currently buffered across every chunk,
// the quantity compared against MAX_UPDATE_SPACE to trigger a flush.
func (l *Lexicon) Size() uint64 { return l.totalBytes }

// TermCount returns the number of distinct terms (including document-
// level variants) currently resident.
func (l *Lexicon) TermCount() uint64 { return l.termCount }

// Lookup returns a frozen copy of term's full decoded posting list as it
// stands at the moment of the call, or false if term has never been
// inserted. It takes no lock, so callers must not run it concurrently
// with Insert or Flush.
func (l *Lexicon) Lookup(term string) ([]extent.Posting, bool) {
	hash := xxhash.Sum64String(term)
	id := l.lookupReadOnly(term, hash)
	if id == 0 {
		return nil, false
	}
	postings, err := l.decodeEntry(l.entries[id-1])
	if err != nil {
		return nil, false
	}
	return postings, true
}

// Insert appends posting to term's list. Postings for a given term must
// be strictly increasing across the lexicon's lifetime (spec §3
// invariant); Insert returns an IndexError if posting does not advance
// past the term's last recorded posting.
func (l *Lexicon) Insert(term string, posting extent.Posting) error {
	if len(term) == 0 || len(term) > l.opts.LexiconOptions.MaxTokenLength {
		return errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "term length out of bounds",
		).WithField("term").WithRule("max_token_length").WithProvided(len(term))
	}

	id, e := l.resolve(term)
	if e.head != 0 && posting <= e.lastPosting {
		return errors.NewIndexCorruptionError("Insert", 0, nil).
			WithDetail("reason", "postings must be strictly increasing").
			WithDetail("term", term)
	}

	gap := posting - e.lastPosting
	if err := l.appendDelta(e, gap); err != nil {
		return err
	}
	e.lastPosting = posting

	if l.opts.LexiconOptions.DocumentLevel && l.docOpen && !isDocVariant(term) {
		e.bumpDocTF()
		if !e.docTouched {
			e.docTouched = true
			l.openDocTerm = append(l.openDocTerm, id)
		}
	}
	return nil
}

func isDocVariant(term string) bool {
	return len(term) >= len(docMarker) && term[:len(docMarker)] == docMarker
}

// resolve returns term's entry, creating one on first sight.
func (l *Lexicon) resolve(term string) (termID, *entry) {
	hash := xxhash.Sum64String(term)
	id := l.lookup(term, hash)
	if id == 0 {
		id = l.insertNew(term, hash)
		l.termCount++
	}
	return id, l.entries[id-1]
}

// appendDelta writes gap into e's tail chunk, allocating a new chunk
// with geometric growth when the current tail has no room left (spec
// §4.2 step 3).
func (l *Lexicon) appendDelta(e *entry, gap uint64) error {
	need := varintLen(gap)

	if e.head == 0 {
		id := l.allocChunk(minChunkSize)
		e.head, e.tail = id, id
	}

	used := l.chunkUsed(e.tail)
	payload := l.payload(e.tail)
	if used+need > len(payload) {
		newID := l.allocChunk(nextChunkSize(e.bytesConsumed))
		l.setSuccessor(e.tail, newID)
		e.tail = newID
		used = 0
		payload = l.payload(e.tail)
		if need > len(payload) {
			return errors.NewIndexCorruptionError("appendDelta", need, nil).
				WithDetail("reason", "delta does not fit even a fresh chunk")
		}
	}

	var buf [10]byte
	encoded := appendVarint(buf[:0], gap)
	n := copy(payload[used:], encoded)
	l.setChunkUsed(e.tail, used+n)
	e.addBytes(n)
	return nil
}

// decodeEntry reconstructs e's full posting list by walking its chunk
// chain from head to tail, reading each chunk up to its recorded used
// length.
func (l *Lexicon) decodeEntry(e *entry) ([]extent.Posting, error) {
	var out []extent.Posting
	prev := extent.Posting(0)

	id := e.head
	for id != 0 {
		payload := l.payload(id)
		limit := l.chunkUsed(id)

		pos := 0
		for pos < limit {
			gap, n, err := readVarint(payload[pos:limit])
			if err != nil {
				return nil, err
			}
			pos += n
			prev += gap
			out = append(out, prev)
		}

		if id == e.tail {
			break
		}
		id = l.successorOf(id)
	}
	return out, nil
}

// reset clears every buffered term and chunk, returning the lexicon to
// its just-constructed state. Called after a full Flush.
func (l *Lexicon) reset() {
	l.containers = []*container{newContainer(0)}
	l.activeContainer = 0
	l.chunks = nil
	l.entries = nil
	l.buckets = make([]termID, initialBucketCount)
	l.termCount = 0
	l.totalBytes = 0
	l.docOpen = false
	l.docStart = 0
	l.openDocTerm = nil
}
