package lexicon

import "github.com/iamNilotpal/lexi/internal/extent"

// termID indexes into Lexicon.entries. 0 is never assigned (table
// buckets use it as "empty slot").
type termID int32

// entry is the in-memory term record (spec §3 "In-memory term entry"):
// hash for fast rejection on lookup, the monotone last posting seen (for
// delta coding), the chunk chain holding its encoded postings, a
// saturating per-open-document TF counter, a stemmed-form cross
// reference, and saturating total bytes consumed (used to size the next
// chunk's geometric growth).
type entry struct {
	term string
	hash uint64

	lastPosting extent.Posting

	head, tail chunkID

	bytesConsumed uint32 // saturating

	docTF      uint16 // saturating, reset at </doc>
	docTouched bool   // true once this open document has seen the term

	// stemRef cross-references a stem relation: -1 none, self-ref ==
	// own termID, otherwise another term's id (spec §3).
	stemRef termID

	next termID // move-to-front chain link; 0 == end of chain
}

const noStem termID = -1

func newEntry(term string, hash uint64) *entry {
	return &entry{term: term, hash: hash, stemRef: noStem}
}

// addBytes adds n to bytesConsumed, saturating at uint32's max instead
// of wrapping.
func (e *entry) addBytes(n int) {
	if uint64(e.bytesConsumed)+uint64(n) > 0xFFFFFFFF {
		e.bytesConsumed = 0xFFFFFFFF
		return
	}
	e.bytesConsumed += uint32(n)
}

// bumpDocTF increments the per-document counter, saturating at 16 bits.
func (e *entry) bumpDocTF() {
	if e.docTF < 0xFFFF {
		e.docTF++
	}
}
