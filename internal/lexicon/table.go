package lexicon

// maxLoadFactor triggers a doubling rehash once buckets fill past this
// fraction (spec §4.2: "power-of-two open-addressed hash table").
const maxLoadFactor = 0.75

// bucketOf returns the bucket index for hash under the current table
// size (a power of two, so mask works instead of modulo).
func (l *Lexicon) bucketOf(hash uint64) int {
	return int(hash & uint64(len(l.buckets)-1))
}

// lookup finds term's entry, promoting it to the head of its bucket's
// chain on a hit (move-to-front). Returns 0 (no entry) on a miss.
func (l *Lexicon) lookup(term string, hash uint64) termID {
	b := l.bucketOf(hash)
	var prev termID
	for id := l.buckets[b]; id != 0; {
		e := l.entries[id-1]
		if e.hash == hash && e.term == term {
			if prev != 0 {
				l.entries[prev-1].next = e.next
				e.next = l.buckets[b]
				l.buckets[b] = id
			}
			return id
		}
		prev = id
		id = e.next
	}
	return 0
}

// lookupReadOnly finds term's entry without promoting it, so a lookup
// leaves the bucket chain's order unchanged. It takes no lock and must
// not run concurrently with the ingest writer.
func (l *Lexicon) lookupReadOnly(term string, hash uint64) termID {
	b := l.bucketOf(hash)
	for id := l.buckets[b]; id != 0; {
		e := l.entries[id-1]
		if e.hash == hash && e.term == term {
			return id
		}
		id = e.next
	}
	return 0
}

// insertNew allocates a fresh entry for term and links it at the head of
// its bucket's chain, growing the table first if the load factor demands
// it.
func (l *Lexicon) insertNew(term string, hash uint64) termID {
	if float64(len(l.entries)+1) > maxLoadFactor*float64(len(l.buckets)) {
		l.grow()
	}

	e := newEntry(term, hash)
	l.entries = append(l.entries, e)
	id := termID(len(l.entries))

	b := l.bucketOf(hash)
	e.next = l.buckets[b]
	l.buckets[b] = id
	return id
}

// grow doubles the bucket array and relinks every existing entry,
// preserving relative chain order per bucket.
func (l *Lexicon) grow() {
	newSize := len(l.buckets) * 2
	newBuckets := make([]termID, newSize)

	for b := len(l.buckets) - 1; b >= 0; b-- {
		for id := l.buckets[b]; id != 0; {
			e := l.entries[id-1]
			next := e.next
			nb := int(e.hash & uint64(newSize-1))
			e.next = newBuckets[nb]
			newBuckets[nb] = id
			id = next
		}
	}
	l.buckets = newBuckets
}
