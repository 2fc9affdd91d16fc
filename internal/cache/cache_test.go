package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/cache"
	"github.com/iamNilotpal/lexi/internal/posting"
)

func encodeSegment(t *testing.T, postings []uint64) []byte {
	t.Helper()
	block, err := posting.NewVByte().Encode(postings)
	require.NoError(t, err)
	return block
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(&cache.Config{Registry: posting.NewRegistry(), L1Size: 2, L2Size: 4, ReadAhead: 2})
	require.NoError(t, err)
	return c
}

func TestGetMissReadsThroughFetch(t *testing.T) {
	c := newTestCache(t)
	key := cache.Key{PartitionID: 1, SegmentID: 0}
	block := encodeSegment(t, []uint64{1, 2, 3})

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return block, nil
	}

	got, err := c.Get(context.Background(), key, fetch, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, got)
	require.Equal(t, 1, calls)

	l1, l2 := c.Len()
	require.Equal(t, 1, l1)
	require.Equal(t, 1, l2)
}

func TestGetL1HitNeverCallsFetch(t *testing.T) {
	c := newTestCache(t)
	key := cache.Key{PartitionID: 1, SegmentID: 0}
	block := encodeSegment(t, []uint64{5, 6})

	_, err := c.Get(context.Background(), key, func() ([]byte, error) { return block, nil }, nil)
	require.NoError(t, err)

	got, err := c.Get(context.Background(), key, func() ([]byte, error) {
		t.Fatal("fetch should not be called on an L1 hit")
		return nil, nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{5, 6}, got)
}

func TestGetL2HitSkipsFetchButDecodes(t *testing.T) {
	c := newTestCache(t)
	key := cache.Key{PartitionID: 1, SegmentID: 0}
	block := encodeSegment(t, []uint64{7, 8, 9})

	_, err := c.Get(context.Background(), key, func() ([]byte, error) { return block, nil }, nil)
	require.NoError(t, err)

	other := cache.Key{PartitionID: 1, SegmentID: 1}
	_, err = c.Get(context.Background(), other, func() ([]byte, error) {
		return encodeSegment(t, []uint64{100}), nil
	}, nil)
	require.NoError(t, err)

	third := cache.Key{PartitionID: 1, SegmentID: 2}
	_, err = c.Get(context.Background(), third, func() ([]byte, error) {
		return encodeSegment(t, []uint64{200}), nil
	}, nil)
	require.NoError(t, err)

	// Three distinct keys with L1 capacity 2 have evicted key from L1, but
	// L2 still holds its compressed bytes, so this Get decodes from L2
	// without calling fetch.
	got, err := c.Get(context.Background(), key, func() ([]byte, error) {
		t.Fatal("should not reach fetch")
		return nil, nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{7, 8, 9}, got)
}

func TestPrefetchPopulatesL2(t *testing.T) {
	c := newTestCache(t)
	key := cache.Key{PartitionID: 2, SegmentID: 0}
	nextKey := cache.Key{PartitionID: 2, SegmentID: 1}

	ahead := map[cache.Key]cache.Fetch{
		nextKey: func() ([]byte, error) { return encodeSegment(t, []uint64{42}), nil },
	}

	_, err := c.Get(context.Background(), key, func() ([]byte, error) {
		return encodeSegment(t, []uint64{1}), nil
	}, ahead)
	require.NoError(t, err)

	fetchCalled := false
	got, err := c.Get(context.Background(), nextKey, func() ([]byte, error) {
		fetchCalled = true
		return encodeSegment(t, []uint64{42}), nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, got)
	require.False(t, fetchCalled, "read-ahead should have already populated L2")
}

func TestInvalidatePartitionDropsAllItsSegments(t *testing.T) {
	c := newTestCache(t)
	k1 := cache.Key{PartitionID: 9, SegmentID: 0}
	k2 := cache.Key{PartitionID: 9, SegmentID: 1}
	k3 := cache.Key{PartitionID: 10, SegmentID: 0}

	for _, k := range []cache.Key{k1, k2, k3} {
		_, err := c.Get(context.Background(), k, func() ([]byte, error) {
			return encodeSegment(t, []uint64{1}), nil
		}, nil)
		require.NoError(t, err)
	}

	c.InvalidatePartition(9)

	calls := 0
	_, err := c.Get(context.Background(), k1, func() ([]byte, error) {
		calls++
		return encodeSegment(t, []uint64{1}), nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "k1 should have been evicted and re-fetched")
}
