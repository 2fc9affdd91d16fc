// Package merge implements the multi-way partition merge and its
// supporting garbage-collection and merge-policy logic (spec §4.6).
package merge

import (
	"container/heap"
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/internal/visible"
	"github.com/iamNilotpal/lexi/pkg/errors"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// LongListSink receives terms diverted out of the merged partition
// because their posting count exceeds the long-list threshold (spec
// §4.6 "a term whose merged list would exceed the long-list threshold is
// diverted into the in-place index instead"). internal/inplace.Index
// implements this.
type LongListSink interface {
	PutTerm(term string, postings []extent.Posting) error
}

// Merger drives merges of a set of source partitions into one new
// partition, per spec §4.6.
type Merger struct {
	opts     *options.Options
	log      *zap.SugaredLogger
	registry *posting.Registry
}

// Config configures a new Merger.
type Config struct {
	Options  *options.Options
	Logger   *zap.SugaredLogger
	Registry *posting.Registry
}

// New builds a Merger.
func New(config *Config) (*Merger, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Registry == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "merge configuration is required",
		).WithField("config").WithRule("required")
	}
	return &Merger{opts: config.Options, log: config.Logger, registry: config.Registry}, nil
}

// Stats reports what one Merge call actually did.
type Stats struct {
	TermsWritten     uint64
	TermsDiverted    uint64
	PostingsWritten  uint64
	PostingsDropped  uint64 // dropped by on-the-fly GC filtering
	PostingsDeduped  uint64
	OrderedCombines  uint64 // terms copied straight from a single source, no interleave
	OnTheFlyGCActive bool
}

// Merge drives a single-pass, priority-queue multi-way merge of sources
// into w, writing terms in ascending order (spec §4.6 "priority-queue of
// iterators keyed by (current term, ...)"). If vis is non-nil and the
// aggregate garbage ratio of sources exceeds OnTheFlyGCThreshold,
// postings are filtered against vis as they are written (on-the-fly GC).
// If longList is non-nil, any term whose merged posting count exceeds
// LongListThreshold is routed there instead of into w.
func (m *Merger) Merge(
	ctx context.Context, w *partition.Writer, sources []*partition.Partition, vis *visible.Extents, longList LongListSink,
) (*partition.Partition, Stats, error) {
	var stats Stats

	if len(sources) == 0 {
		part, err := w.Close()
		return part, stats, err
	}

	onTheFly := vis != nil && ShouldOnTheFlyGC(sources, m.opts)
	stats.OnTheFlyGCActive = onTheFly

	h := make(cursorHeap, 0, len(sources))
	for i, src := range sources {
		c, err := newSourceCursor(i, src, m.registry)
		if err != nil {
			return nil, stats, err
		}
		if !c.exhausted {
			h = append(h, c)
		}
	}
	heap.Init(&h)

	for h.Len() > 0 {
		group := popTermGroup(&h)

		var lists [][]extent.Posting
		for _, c := range group {
			lists = append(lists, c.postings)
		}

		var merged []extent.Posting
		orderedCombine := len(group) == 1
		if orderedCombine {
			merged = group[0].postings
			stats.OrderedCombines++
		} else {
			before := 0
			for _, l := range lists {
				before += len(l)
			}
			merged = mergeSortedDedup(lists)
			stats.PostingsDeduped += uint64(before - len(merged))
		}

		if onTheFly {
			merged = filterVisible(merged, vis, &stats)
		}

		term := group[0].term
		if len(merged) > 0 {
			if longList != nil && len(merged) > m.opts.MergeOptions.LongListThreshold {
				if err := longList.PutTerm(term, merged); err != nil {
					return nil, stats, err
				}
				stats.TermsDiverted++
			} else {
				if err := w.AddTerm(term, merged); err != nil {
					return nil, stats, err
				}
				stats.TermsWritten++
				stats.PostingsWritten += uint64(len(merged))
			}
		}

		// Advance every cursor in the group concurrently — each reads
		// its next term's segments from a different source partition
		// file, so a slow one doesn't stall the others (spec §4.6 read-
		// ahead; golang.org/x/sync/errgroup waits for every advance and
		// returns the first error).
		g, _ := errgroup.WithContext(ctx)
		for _, c := range group {
			c := c
			g.Go(func() error { return c.advance() })
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}

		for _, c := range group {
			if !c.exhausted {
				heap.Push(&h, c)
			}
		}
	}

	part, err := w.Close()
	if err != nil {
		return nil, stats, err
	}
	if vis != nil && part.PostingCount > 0 {
		vis.Allow(part.FirstPost, part.LastPost)
	}

	m.log.Infow(
		"merge complete", "sources", len(sources), "termsWritten", stats.TermsWritten,
		"termsDiverted", stats.TermsDiverted, "postingsWritten", stats.PostingsWritten,
		"postingsDropped", stats.PostingsDropped, "onTheFlyGC", stats.OnTheFlyGCActive,
	)
	return part, stats, nil
}

// popTermGroup pops every cursor currently holding the minimum term,
// leaving the heap holding only cursors for strictly greater terms.
func popTermGroup(h *cursorHeap) []*sourceCursor {
	first := heap.Pop(h).(*sourceCursor)
	group := []*sourceCursor{first}

	for h.Len() > 0 && (*h)[0].term == first.term {
		group = append(group, heap.Pop(h).(*sourceCursor))
	}
	return group
}

// filterVisible drops postings outside vis's visible ranges, tracking
// how many were dropped.
func filterVisible(postings []extent.Posting, vis *visible.Extents, stats *Stats) []extent.Posting {
	kept := postings[:0:0]
	for _, p := range postings {
		if vis.Contains(p) {
			kept = append(kept, p)
		} else {
			stats.PostingsDropped++
		}
	}
	return kept
}
