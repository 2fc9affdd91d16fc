package merge_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/merge"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/internal/visible"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newMergeTestOptions(dir string) *options.Options {
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.PartitionOptions.Prefix = "index"
	opts.PartitionOptions.DictionaryGroup = 4
	opts.PartitionOptions.FileGranularity = 0
	opts.PartitionOptions.TargetSegmentSize = 64
	return &opts
}

func buildPartition(t *testing.T, dir string, id uint64, terms map[string][]extent.Posting) *partition.Partition {
	t.Helper()
	w, err := partition.New(&partition.Config{
		DataDir: dir, Prefix: "index", ID: id, Codec: posting.NewVByte(),
		Options: newMergeTestOptions(dir), Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)

	var sortedTerms []string
	for term := range terms {
		sortedTerms = append(sortedTerms, term)
	}
	for i := 0; i < len(sortedTerms); i++ {
		for j := i + 1; j < len(sortedTerms); j++ {
			if sortedTerms[j] < sortedTerms[i] {
				sortedTerms[i], sortedTerms[j] = sortedTerms[j], sortedTerms[i]
			}
		}
	}

	for _, term := range sortedTerms {
		require.NoError(t, w.AddTerm(term, terms[term]))
	}
	p, err := w.Close()
	require.NoError(t, err)
	return p
}

func newMerger(t *testing.T) *merge.Merger {
	t.Helper()
	opts := options.NewDefaultOptions()
	m, err := merge.New(&merge.Config{Options: &opts, Logger: zap.NewNop().Sugar(), Registry: posting.NewRegistry()})
	require.NoError(t, err)
	return m
}

func newMergeWriter(t *testing.T, dir string, id uint64) *partition.Writer {
	t.Helper()
	w, err := partition.New(&partition.Config{
		DataDir: dir, Prefix: "merged", ID: id, Codec: posting.NewVByte(),
		Options: newMergeTestOptions(dir), Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return w
}

func TestMergeDisjointPartitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0755))

	p1 := buildPartition(t, dir, 1, map[string][]extent.Posting{
		"alpha": {1, 2, 3},
		"bravo": {5},
	})
	p2 := buildPartition(t, dir, 2, map[string][]extent.Posting{
		"charlie": {10, 20},
	})

	m := newMerger(t)
	w := newMergeWriter(t, dir, 100)

	part, stats, err := m.Merge(context.Background(), w, []*partition.Partition{p1, p2}, nil, nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, part.TermCount)
	require.EqualValues(t, 3, stats.TermsWritten)
	require.EqualValues(t, 3, stats.OrderedCombines)

	reg := posting.NewRegistry()
	got, err := part.Reader.Get("bravo", reg)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{5}, got)
}

func TestMergeDedupsOverlappingTerm(t *testing.T) {
	dir := t.TempDir()
	p1 := buildPartition(t, dir, 1, map[string][]extent.Posting{"cat": {1, 2, 5}})
	p2 := buildPartition(t, dir, 2, map[string][]extent.Posting{"cat": {2, 5, 8}})

	m := newMerger(t)
	w := newMergeWriter(t, dir, 200)

	part, stats, err := m.Merge(context.Background(), w, []*partition.Partition{p1, p2}, nil, nil)
	require.NoError(t, err)

	reg := posting.NewRegistry()
	got, err := part.Reader.Get("cat", reg)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 5, 8}, got)
	require.EqualValues(t, 2, stats.PostingsDeduped)
}

func TestMergeOnTheFlyGCFiltersHiddenPostings(t *testing.T) {
	dir := t.TempDir()
	p1 := buildPartition(t, dir, 1, map[string][]extent.Posting{"cat": {1, 2, 3, 4, 5}})
	p1.Deleted = 30
	p1.PostingCount = 100

	vis := visible.New()
	vis.Allow(1, 3)

	m := newMerger(t)
	w := newMergeWriter(t, dir, 300)

	part, stats, err := m.Merge(context.Background(), w, []*partition.Partition{p1}, vis, nil)
	require.NoError(t, err)
	require.True(t, stats.OnTheFlyGCActive)
	require.EqualValues(t, 2, stats.PostingsDropped)

	reg := posting.NewRegistry()
	got, err := part.Reader.Get("cat", reg)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 3}, got)
}

type fakeLongListSink struct {
	terms map[string][]extent.Posting
}

func (f *fakeLongListSink) PutTerm(term string, postings []extent.Posting) error {
	if f.terms == nil {
		f.terms = make(map[string][]extent.Posting)
	}
	f.terms[term] = postings
	return nil
}

func TestMergeDivertsLongListsToSink(t *testing.T) {
	dir := t.TempDir()
	long := make([]extent.Posting, 10)
	for i := range long {
		long[i] = extent.Posting(i + 1)
	}
	p1 := buildPartition(t, dir, 1, map[string][]extent.Posting{"huge": long, "tiny": {1}})

	opts := options.NewDefaultOptions()
	opts.MergeOptions.LongListThreshold = 5
	m, err := merge.New(&merge.Config{Options: &opts, Logger: zap.NewNop().Sugar(), Registry: posting.NewRegistry()})
	require.NoError(t, err)

	w := newMergeWriter(t, dir, 400)
	sink := &fakeLongListSink{}

	part, stats, err := m.Merge(context.Background(), w, []*partition.Partition{p1}, nil, sink)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TermsDiverted)
	require.EqualValues(t, 1, part.TermCount)
	require.Equal(t, long, sink.terms["huge"])

	reg := posting.NewRegistry()
	_, err = part.Reader.Get("huge", reg)
	require.ErrorIs(t, err, partition.ErrNotFound)
}

func TestMergeEmptySourcesProducesEmptyPartition(t *testing.T) {
	dir := t.TempDir()
	m := newMerger(t)
	w := newMergeWriter(t, dir, 500)

	part, stats, err := m.Merge(context.Background(), w, nil, nil, nil)
	require.NoError(t, err)
	require.Zero(t, stats.TermsWritten)
	require.EqualValues(t, 0, part.TermCount)
}
