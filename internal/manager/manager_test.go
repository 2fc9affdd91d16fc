package manager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
	"github.com/iamNilotpal/lexi/internal/manager"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newTestManager(t *testing.T) (*manager.Manager, *options.Options) {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.PartitionOptions.DictionaryGroup = 4
	opts.PartitionOptions.FileGranularity = 0
	opts.PartitionOptions.TargetSegmentSize = 64
	// Small enough that a handful of test postings cross the threshold
	// and exercise Ingest's auto-flush path without writing megabytes.
	opts.LexiconOptions.MaxUpdateSpace = 64
	opts.MergeOptions.ShutdownPolicy = options.PolicyNoMerge

	m, err := manager.New(&manager.Config{
		Options: &opts, Logger: zap.NewNop().Sugar(), Codec: posting.NewVByte(), Registry: posting.NewRegistry(),
	})
	require.NoError(t, err)
	return m, &opts
}

// collect drains every match out of a cursor in ascending order, the way
// a caller walking query results would.
func collect(c gcl.Cursor) []extent.Posting {
	var out []extent.Posting
	p := extent.Posting(1)
	for {
		e, ok := c.FirstStartGE(p)
		if !ok {
			break
		}
		out = append(out, e.Start)
		p = e.Start + 1
	}
	return out
}

func TestNewCreatesPartitionDirAndClose(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Close(context.Background()))
	// A second Close is rejected rather than panicking.
	require.Error(t, m.Close(context.Background()))
}

func TestIngestAndQueryBeforeFlush(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	require.NoError(t, m.Ingest("cat", 1))
	require.NoError(t, m.Ingest("cat", 2))

	cursor, err := m.Query(`"cat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2}, collect(cursor))

	cursor, err = m.Query(`"dog"`)
	require.NoError(t, err)
	require.Empty(t, collect(cursor))
}

func TestFlushPublishesQueryablePartition(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	require.NoError(t, m.Ingest("cat", 1))
	require.NoError(t, m.Ingest("dog", 5))

	part, err := m.Flush()
	require.NoError(t, err)
	require.NotNil(t, part)

	// Flushing an already-empty lexicon is a no-op, not an error.
	again, err := m.Flush()
	require.NoError(t, err)
	require.Nil(t, again)

	cursor, err := m.Query(`"cat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1}, collect(cursor))
}

func TestQueryMixedPartitionAndLexiconState(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	require.NoError(t, m.Ingest("cat", 1))
	require.NoError(t, m.Ingest("cat", 2))
	_, err := m.Flush()
	require.NoError(t, err)

	// New postings for the same term land in the lexicon's unflushed
	// tail, strictly after the flushed partition's range.
	require.NoError(t, m.Ingest("cat", 9))

	cursor, err := m.Query(`"cat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 9}, collect(cursor))
}

func TestIngestAutoFlushOnThreshold(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	// Each 15-byte chunk holds 11 one-byte deltas, so the 45th posting
	// opens a fifth chunk (75 bytes >= MaxUpdateSpace 64) and triggers
	// the flush; postings 46..60 stay in the lexicon.
	for i := extent.Posting(1); i <= 60; i++ {
		require.NoError(t, m.Ingest("word", i))
	}

	cursor, err := m.Query(`"word"`)
	require.NoError(t, err)
	got := collect(cursor)
	require.Len(t, got, 60)
	for i, p := range got {
		require.Equal(t, extent.Posting(i+1), p)
	}
}

func TestQueryAndOperator(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	require.NoError(t, m.Ingest("cat", 1))
	require.NoError(t, m.Ingest("dog", 1))
	require.NoError(t, m.Ingest("dog", 2))

	// cat only occurs at 1, so the intersection with dog ({1, 2}) has a
	// single match at 1 — dog's standalone posting at 2 must not leak
	// through once cat is exhausted.
	cursor, err := m.Query(`"cat" ^ "dog"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1}, collect(cursor))
}

func TestQueryRejectedAfterClose(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Close(context.Background()))

	require.Error(t, m.Ingest("cat", 1))
	_, err := m.Query(`"cat"`)
	require.Error(t, err)
	_, _, err = m.Register(0)
	require.Error(t, err)
}

func TestRegisterDeregisterTimestampOrdering(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())

	h1, ts1, err := m.Register(0)
	require.NoError(t, err)
	h2, ts2, err := m.Register(0)
	require.NoError(t, err)
	require.Less(t, ts1, ts2)

	require.NoError(t, m.Deregister(h1))
	require.NoError(t, m.Deregister(h2))

	// Deregistering an unknown handle reports an error rather than
	// silently succeeding.
	require.Error(t, m.Deregister(h1))
}

func TestRegisterBlocksAtMaxUserCount(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.MaxUserCount = 1

	m, err := manager.New(&manager.Config{
		Options: &opts, Logger: zap.NewNop().Sugar(), Codec: posting.NewVByte(), Registry: posting.NewRegistry(),
	})
	require.NoError(t, err)
	defer m.Close(context.Background())

	h, _, err := m.Register(0)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		h2, _, err := m.Register(0)
		require.NoError(t, err)
		require.NoError(t, m.Deregister(h2))
		close(done)
	}()

	require.NoError(t, m.Deregister(h))
	<-done
}

func TestMaintainMergesActiveSet(t *testing.T) {
	m, opts := newTestManager(t)
	defer m.Close(context.Background())

	require.NoError(t, m.Ingest("cat", 1))
	_, err := m.Flush()
	require.NoError(t, err)

	require.NoError(t, m.Ingest("cat", 2))
	_, err = m.Flush()
	require.NoError(t, err)

	opts.MergeOptions.Policy = options.PolicyImmediate
	require.NoError(t, m.Maintain(context.Background()))

	cursor, err := m.Query(`"cat"`)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2}, collect(cursor))
}

func TestMaintainWithNoPartitionsIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	defer m.Close(context.Background())
	require.NoError(t, m.Maintain(context.Background()))
}
