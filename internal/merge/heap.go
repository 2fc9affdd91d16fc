package merge

import (
	"container/heap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
)

// sourceCursor tracks one input partition's position in the merge: its
// current term and that term's full decoded posting list, advanced one
// term at a time via its embedded Iterator.
type sourceCursor struct {
	index    int
	iter     *partition.Iterator
	term     string
	postings []extent.Posting
	exhausted bool
}

func newSourceCursor(index int, p *partition.Partition, registry *posting.Registry) (*sourceCursor, error) {
	c := &sourceCursor{index: index, iter: p.Reader.Iterate(registry)}
	if err := c.advance(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *sourceCursor) advance() error {
	term, postings, ok, err := c.iter.Next()
	if err != nil {
		return err
	}
	if !ok {
		c.exhausted = true
		c.term, c.postings = "", nil
		return nil
	}
	c.term, c.postings = term, postings
	return nil
}

// cursorHeap is a container/heap.Interface ordering live sourceCursors by
// current term (spec §4.6 "priority-queue of iterators keyed by (current
// term, ...)"; since each cursor here already yields one term's complete
// postings rather than one segment, the tie-break on segment-first-
// posting collapses — every cursor sharing the minimum term is popped and
// merged together in one step, see Merger.Merge).
type cursorHeap []*sourceCursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].term < h[j].term }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x interface{}) { *h = append(*h, x.(*sourceCursor)) }
func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*cursorHeap)(nil)

// mergeSortedDedup k-way merges already-ascending, possibly overlapping
// posting lists into one ascending, duplicate-free list (spec §8 boundary
// case "merge with duplicate postings at partition boundary").
func mergeSortedDedup(lists [][]extent.Posting) []extent.Posting {
	idx := make([]int, len(lists))
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	out := make([]extent.Posting, 0, total)
	var last extent.Posting
	haveLast := false

	for {
		best := -1
		var bestVal extent.Posting
		for i, l := range lists {
			if idx[i] >= len(l) {
				continue
			}
			if best == -1 || l[idx[i]] < bestVal {
				best = i
				bestVal = l[idx[i]]
			}
		}
		if best == -1 {
			break
		}
		idx[best]++
		if haveLast && bestVal == last {
			continue
		}
		out = append(out, bestVal)
		last = bestVal
		haveLast = true
	}
	return out
}
