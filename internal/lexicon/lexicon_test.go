package lexicon_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/lexicon"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/internal/visible"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newTestLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.LexiconOptions.MaxTokenLength = 19
	opts.LexiconOptions.TFBits = 6
	opts.LexiconOptions.DocumentLevel = true

	l, err := lexicon.New(&lexicon.Config{Options: &opts, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	return l
}

func newTestWriter(t *testing.T, dir string, id uint64) *partition.Writer {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.PartitionOptions.Prefix = "index"
	opts.PartitionOptions.DictionaryGroup = 4
	opts.PartitionOptions.FileGranularity = 0
	opts.PartitionOptions.TargetSegmentSize = 64

	w, err := partition.New(&partition.Config{
		DataDir: dir,
		Prefix:  "index",
		ID:      id,
		Codec:   posting.NewVByte(),
		Options: &opts,
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return w
}

func TestLookupSnapshotsCurrentChain(t *testing.T) {
	l := newTestLexicon(t)
	_, ok := l.Lookup("ghost")
	require.False(t, ok)

	require.NoError(t, l.Insert("cat", 1))
	require.NoError(t, l.Insert("cat", 7))
	got, ok := l.Lookup("cat")
	require.True(t, ok)
	require.Equal(t, []extent.Posting{1, 7}, got)

	require.NoError(t, l.Insert("cat", 9))
	got, ok = l.Lookup("cat")
	require.True(t, ok)
	require.Equal(t, []extent.Posting{1, 7, 9}, got)
}

func TestInsertMonotoneViolation(t *testing.T) {
	l := newTestLexicon(t)
	require.NoError(t, l.Insert("cat", 5))
	err := l.Insert("cat", 5)
	require.Error(t, err)
	err = l.Insert("cat", 4)
	require.Error(t, err)
}

func TestInsertRejectsOversizeTerm(t *testing.T) {
	l := newTestLexicon(t)
	err := l.Insert(string(make([]byte, 64)), 1)
	require.Error(t, err)
}

func TestFlushRoundTrip(t *testing.T) {
	l := newTestLexicon(t)
	terms := map[string][]extent.Posting{
		"alpha": {1, 3, 9},
		"bravo": {2, 4},
		"zulu":  {5, 6, 7, 400},
	}
	for term, postings := range terms {
		for _, p := range postings {
			require.NoError(t, l.Insert(term, p))
		}
	}

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir, 0755))
	w := newTestWriter(t, dir, 1)
	vis := visible.New()

	part, err := l.Flush(w, vis)
	require.NoError(t, err)
	require.EqualValues(t, 3, part.TermCount)
	require.Zero(t, l.TermCount())
	require.Zero(t, l.Size())

	reg := posting.NewRegistry()
	for term, postings := range terms {
		got, err := part.Reader.Get(term, reg)
		require.NoError(t, err)
		require.Equal(t, postings, got)
		for _, p := range postings {
			require.True(t, vis.Contains(p))
		}
	}
}

func TestDocumentLevelSideChannel(t *testing.T) {
	l := newTestLexicon(t)

	require.NoError(t, l.BeginDocument(1000))
	require.NoError(t, l.Insert("cat", 1001))
	require.NoError(t, l.Insert("cat", 1002))
	require.NoError(t, l.Insert("mat", 1003))
	require.NoError(t, l.EndDocument())

	require.NoError(t, l.BeginDocument(2000))
	require.NoError(t, l.Insert("cat", 2001))
	require.NoError(t, l.EndDocument())

	dir := t.TempDir()
	w := newTestWriter(t, dir, 1)
	part, err := l.Flush(w, nil)
	require.NoError(t, err)

	reg := posting.NewRegistry()
	got, err := part.Reader.Get("<!>cat", reg)
	require.NoError(t, err)
	require.Len(t, got, 2)

	tf1 := posting.EncodeTF(2, 6)
	tf2 := posting.EncodeTF(1, 6)
	require.Equal(t, extent.Posting(1000)<<6|extent.Posting(tf1), got[0])
	require.Equal(t, extent.Posting(2000)<<6|extent.Posting(tf2), got[1])

	_, err = part.Reader.Get("cat", reg)
	require.NoError(t, err)
}

func TestPartialFlushLowYield(t *testing.T) {
	l := newTestLexicon(t)
	for i := extent.Posting(1); i <= 50; i++ {
		require.NoError(t, l.Insert("big", i))
	}
	require.NoError(t, l.Insert("small", 1))

	dir := t.TempDir()
	w := newTestWriter(t, dir, 1)
	_, err := l.PartialFlush(w, nil, 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, l.TermCount())
}
