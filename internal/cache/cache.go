// Package cache implements the two-tier segment cache (spec §4.4): a
// small L1 of fully decoded segments in front of a larger L2 of raw
// compressed segment bytes, both true LRU via hashicorp/golang-lru/v2.
// The cache is intentionally ignorant of partition file layout — callers
// supply a Fetch function that reads one segment's compressed bytes from
// wherever it actually lives (an open partition.Reader, an in-place
// block file, ...), and the cache owns only the eviction policy and the
// decode step.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/errors"
)

// Key addresses one segment: the partition it belongs to and a segment
// id chosen by the caller (internal/manager derives it from the term's
// hash and the segment's position in the term's segment list); this
// package only uses Key for LRU bookkeeping, never to locate bytes itself.
type Key struct {
	PartitionID uint64
	SegmentID   uint32
}

// Fetch reads one segment's raw compressed bytes from backing storage.
// Implementations may block on I/O; they must not retain the returned
// slice's backing array across calls if it is reused.
type Fetch func() ([]byte, error)

// Cache is the two-tier segment cache described in spec §4.4. L1 holds
// fully decoded posting slices (small, ≈2 entries); L2 holds raw
// compressed bytes (larger, ≈64 entries). A read of segment S: L1 hit
// returns immediately; L1 miss + L2 hit decodes into an L1 slot; both
// miss reads through Fetch into an L2 slot and then decodes.
type Cache struct {
	registry *posting.Registry

	l1 *lru.Cache[Key, []uint64]
	l2 *lru.Cache[Key, []byte]

	readAhead int
}

// Config configures a new Cache.
type Config struct {
	// Registry decodes a compressed segment payload's codec tag.
	Registry *posting.Registry

	// L1Size is the decoded-segment tier's capacity (spec §4.4 ≈2).
	L1Size int

	// L2Size is the compressed-segment tier's capacity (spec §4.4 ≈64).
	L2Size int

	// ReadAhead is how many consecutive segments are speculatively
	// pulled into L2 on a miss (spec §4.4).
	ReadAhead int
}

// New builds a Cache per config.
func New(config *Config) (*Cache, error) {
	if config == nil || config.Registry == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "cache configuration requires a posting registry",
		).WithField("config").WithRule("required")
	}

	l1Size := config.L1Size
	if l1Size <= 0 {
		l1Size = 2
	}
	l2Size := config.L2Size
	if l2Size <= 0 {
		l2Size = 64
	}

	l1, err := lru.New[Key, []uint64](l1Size)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to construct L1 segment cache")
	}
	l2, err := lru.New[Key, []byte](l2Size)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to construct L2 segment cache")
	}

	return &Cache{registry: config.Registry, l1: l1, l2: l2, readAhead: config.ReadAhead}, nil
}

// Get returns the decoded postings for key, reading through fetch on a
// full miss. ahead lists the Fetch functions for up to ReadAhead
// consecutive following segments, keyed the same way; on an L2 miss they
// are pulled into L2 concurrently with each other and never decoded, and
// Get waits for those fetches to finish before it returns.
func (c *Cache) Get(ctx context.Context, key Key, fetch Fetch, ahead map[Key]Fetch) ([]uint64, error) {
	if postings, ok := c.l1.Get(key); ok {
		return postings, nil
	}

	missedL2 := false
	block, ok := c.l2.Get(key)
	if !ok {
		missedL2 = true
		raw, err := fetch()
		if err != nil {
			return nil, err
		}
		block = raw
		c.l2.Add(key, block)
	}

	postings, err := c.registry.Decode(block)
	if err != nil {
		return nil, err
	}
	c.l1.Add(key, postings)

	if missedL2 && c.readAhead > 0 && len(ahead) > 0 {
		c.prefetch(ctx, ahead)
	}
	return postings, nil
}

// prefetch pulls up to ReadAhead segments' compressed bytes into L2,
// running the reads concurrently through an errgroup and returning once
// all of them have finished; a failing read never stops the others, and
// prefetch errors are swallowed since a later real Get will
// simply retry the read on its own.
func (c *Cache) prefetch(ctx context.Context, ahead map[Key]Fetch) {
	g, _ := errgroup.WithContext(ctx)

	n := 0
	for key, fn := range ahead {
		if n >= c.readAhead {
			break
		}
		n++

		key, fn := key, fn
		if _, ok := c.l2.Peek(key); ok {
			continue
		}
		g.Go(func() error {
			raw, err := fn()
			if err != nil {
				return nil //nolint:nilerr // best-effort prefetch, caller's real read still succeeds
			}
			c.l2.Add(key, raw)
			return nil
		})
	}
	_ = g.Wait()
}

// Invalidate drops key from both tiers, used when a partition carrying
// it is deleted (spec §3 "Segments in the cache live until evicted or
// the owning partition is deleted").
func (c *Cache) Invalidate(key Key) {
	c.l1.Remove(key)
	c.l2.Remove(key)
}

// InvalidatePartition drops every cached segment belonging to
// partitionID, walking both tiers' current key sets.
func (c *Cache) InvalidatePartition(partitionID uint64) {
	for _, k := range c.l1.Keys() {
		if k.PartitionID == partitionID {
			c.l1.Remove(k)
		}
	}
	for _, k := range c.l2.Keys() {
		if k.PartitionID == partitionID {
			c.l2.Remove(k)
		}
	}
}

// Len reports the current occupancy of each tier, for tests and metrics.
func (c *Cache) Len() (l1, l2 int) { return c.l1.Len(), c.l2.Len() }
