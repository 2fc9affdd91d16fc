package partition_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newTestOptions(dir string) *options.Options {
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.PartitionOptions.Directory = ""
	opts.PartitionOptions.Prefix = "index"
	opts.PartitionOptions.DictionaryGroup = 4
	opts.PartitionOptions.FileGranularity = 0
	opts.PartitionOptions.TargetSegmentSize = 64
	return &opts
}

func TestPartitionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0755))

	logger := zap.NewNop().Sugar()
	codec := posting.NewVByte()

	w, err := partition.New(&partition.Config{
		DataDir: dir,
		Prefix:  "index",
		ID:      1,
		Codec:   codec,
		Options: newTestOptions(dir),
		Logger:  logger,
	})
	require.NoError(t, err)

	fixture := []struct {
		term     string
		postings []extent.Posting
	}{
		{"alpha", []extent.Posting{1, 5, 9}},
		{"alphabet", []extent.Posting{2, 4, 1000}},
		{"bravo", []extent.Posting{3, 3000, 3001, 3002}},
		{"charlie", []extent.Posting{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}},
		{"delta", []extent.Posting{7}},
		{"echo", []extent.Posting{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"foxtrot", []extent.Posting{42}},
	}

	for _, f := range fixture {
		require.NoError(t, w.AddTerm(f.term, f.postings))
	}

	p, err := w.Close()
	require.NoError(t, err)
	defer p.Close()

	require.EqualValues(t, len(fixture), p.TermCount)
	require.EqualValues(t, len(fixture), p.ListCount)

	reg := posting.NewRegistry()
	for _, f := range fixture {
		got, err := p.Get(f.term, reg)
		require.NoError(t, err, "term %q", f.term)
		require.Equal(t, f.postings, got, "term %q", f.term)
	}

	_, err = p.Get("not-a-term", reg)
	require.ErrorIs(t, err, partition.ErrNotFound)
}

func TestPartitionGarbageRatio(t *testing.T) {
	p := &partition.Partition{PostingCount: 100, Deleted: 25}
	require.InDelta(t, 0.25, p.GarbageRatio(), 1e-9)

	empty := &partition.Partition{}
	require.Equal(t, float64(0), empty.GarbageRatio())
}

func TestReaderIterateVisitsEveryTermInOrder(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop().Sugar()
	codec := posting.NewVByte()

	w, err := partition.New(&partition.Config{
		DataDir: dir, Prefix: "index", ID: 3, Codec: codec, Options: newTestOptions(dir), Logger: logger,
	})
	require.NoError(t, err)

	fixture := []struct {
		term     string
		postings []extent.Posting
	}{
		{"alpha", []extent.Posting{1, 5, 9}},
		{"alphabet", []extent.Posting{2, 4, 1000}},
		{"bravo", []extent.Posting{3, 3000, 3001, 3002}},
		{"charlie", []extent.Posting{10, 20, 30}},
		{"delta", []extent.Posting{7}},
	}
	for _, f := range fixture {
		require.NoError(t, w.AddTerm(f.term, f.postings))
	}

	p, err := w.Close()
	require.NoError(t, err)
	defer p.Close()

	reg := posting.NewRegistry()
	it := p.Reader.Iterate(reg)

	var gotTerms []string
	gotPostings := make(map[string][]extent.Posting)
	for {
		term, postings, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		gotTerms = append(gotTerms, term)
		gotPostings[term] = postings
	}

	require.Len(t, gotTerms, len(fixture))
	for i, f := range fixture {
		require.Equal(t, f.term, gotTerms[i])
		require.Equal(t, f.postings, gotPostings[f.term])
	}
}

func TestPartitionReopen(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop().Sugar()
	codec := posting.NewVByte()

	w, err := partition.New(&partition.Config{
		DataDir: dir,
		Prefix:  "index",
		ID:      2,
		Codec:   codec,
		Options: newTestOptions(dir),
		Logger:  logger,
	})
	require.NoError(t, err)
	require.NoError(t, w.AddTerm("hello", []extent.Posting{1, 2, 3}))
	require.NoError(t, w.AddTerm("world", []extent.Posting{4, 5}))

	p, err := w.Close()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	reopened, err := partition.Open(p.Path, 32, posting.NewRegistry())
	require.NoError(t, err)
	defer reopened.Close()

	reg := posting.NewRegistry()
	got, err := reopened.Get("hello", reg)
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 3}, got)
}
