package lexicon

import (
	"sort"

	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/visible"
)

// bucketCount buckets the vocabulary on its first two bytes before
// sorting each bucket independently (spec §4.2 flush step 1: "hybrid
// bucket + merge sort... bucket on first 2 bytes"). Terms shorter than
// two bytes fall into the bucket keyed by their available prefix padded
// with zero bytes.
const bucketCount = 1 << 16

func bucketKey(term string) int {
	var b0, b1 byte
	if len(term) > 0 {
		b0 = term[0]
	}
	if len(term) > 1 {
		b1 = term[1]
	}
	return int(b0)<<8 | int(b1)
}

// sortedTermIDs returns every resident termID (positional and document
// variants alike) in ascending lexicographic term order, via the
// bucket+sort scheme described above.
func (l *Lexicon) sortedTermIDs() []termID {
	buckets := make([][]termID, bucketCount)
	for i, e := range l.entries {
		id := termID(i + 1)
		k := bucketKey(e.term)
		buckets[k] = append(buckets[k], id)
	}

	ordered := make([]termID, 0, len(l.entries))
	for _, b := range buckets {
		if len(b) == 0 {
			continue
		}
		sort.Slice(b, func(i, j int) bool {
			return l.entries[b[i]-1].term < l.entries[b[j]-1].term
		})
		ordered = append(ordered, b...)
	}
	return ordered
}

// Flush sorts and writes every resident term to a new partition via w,
// then clears the lexicon. If vis is non-nil, the partition's full
// posting range is marked visible once the partition is durably closed
// (spec §5 "a partition becomes readable only after being atomically
// added to the active set").
func (l *Lexicon) Flush(w *partition.Writer, vis *visible.Extents) (*partition.Partition, error) {
	for _, id := range l.sortedTermIDs() {
		e := l.entries[id-1]
		postings, err := l.decodeEntry(e)
		if err != nil {
			return nil, err
		}
		if err := w.AddTerm(e.term, postings); err != nil {
			return nil, err
		}
	}

	part, err := w.Close()
	if err != nil {
		return nil, err
	}
	if vis != nil && part.PostingCount > 0 {
		vis.Allow(part.FirstPost, part.LastPost)
	}

	l.log.Infow("lexicon flushed", "terms", l.termCount, "bytes", l.totalBytes, "partition", part.Path)
	l.reset()
	return part, nil
}

// PartialFlush flushes only terms whose buffered size exceeds threshold
// bytes, leaving the rest resident (spec §4.2 "Partial flush"). It
// computes the fraction of buffered bytes freed, without returning it; if
// that fraction falls
// under 0.15, lowYield is recorded so the caller knows to force a full
// Flush next time (queryable via LowYield).
func (l *Lexicon) PartialFlush(w *partition.Writer, vis *visible.Extents, threshold uint32) (*partition.Partition, error) {
	before := l.totalBytes
	var freed uint64

	var kept []*entry
	var flushed []termID
	for i, e := range l.entries {
		if e.bytesConsumed > threshold {
			flushed = append(flushed, termID(i+1))
			freed += uint64(e.bytesConsumed)
		} else {
			kept = append(kept, e)
		}
	}

	sort.Slice(flushed, func(i, j int) bool {
		return l.entries[flushed[i]-1].term < l.entries[flushed[j]-1].term
	})

	for _, id := range flushed {
		e := l.entries[id-1]
		postings, err := l.decodeEntry(e)
		if err != nil {
			return nil, err
		}
		if err := w.AddTerm(e.term, postings); err != nil {
			return nil, err
		}
	}

	part, err := w.Close()
	if err != nil {
		return nil, err
	}
	if vis != nil && part.PostingCount > 0 {
		vis.Allow(part.FirstPost, part.LastPost)
	}

	l.rebuildFrom(kept)

	if before == 0 {
		l.lowYield = false
	} else {
		l.lowYield = float64(freed)/float64(before) < 0.15
	}

	l.log.Infow(
		"lexicon partial flush", "flushedTerms", len(flushed), "keptTerms", len(kept),
		"freedBytes", freed, "lowYield", l.lowYield,
	)
	return part, nil
}

// LowYield reports whether the previous PartialFlush freed under 15% of
// buffered memory, per spec §4.2's "force a full flush next time" rule.
func (l *Lexicon) LowYield() bool { return l.lowYield }

// rebuildFrom replaces the lexicon's term table with exactly the given
// surviving entries, preserving their chunk chains (still valid, since
// containers are never reclaimed except on a full reset) but discarding
// the flushed entries and rehashing.
func (l *Lexicon) rebuildFrom(kept []*entry) {
	bucketSize := initialBucketCount
	for float64(len(kept)) > maxLoadFactor*float64(bucketSize) {
		bucketSize *= 2
	}

	l.entries = make([]*entry, 0, len(kept))
	l.buckets = make([]termID, bucketSize)
	l.termCount = 0

	for _, e := range kept {
		e.next = 0
		l.entries = append(l.entries, e)
		id := termID(len(l.entries))
		b := l.bucketOf(e.hash)
		e.next = l.buckets[b]
		l.buckets[b] = id
		l.termCount++
	}
}
