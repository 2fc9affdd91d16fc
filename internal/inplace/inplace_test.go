package inplace_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/inplace"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newTestIndex(t *testing.T, blockSize, maxBlocksRun uint64, maxPending uint64) *inplace.Index {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.InPlaceOptions.BlockSize = blockSize
	opts.InPlaceOptions.MaxBlocksRun = int(maxBlocksRun)
	opts.InPlaceOptions.MaxPendingData = maxPending

	ix, err := inplace.Open(&inplace.Config{
		DataDir: t.TempDir(), Options: &opts,
		Codec: posting.NewVByte(), Registry: posting.NewRegistry(), Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return ix
}

func seq(start, count int) []extent.Posting {
	out := make([]extent.Posting, count)
	for i := range out {
		out[i] = extent.Posting(start + i)
	}
	return out
}

func TestPutTermAndGetPostingsRoundTrip(t *testing.T) {
	ix := newTestIndex(t, 4096, 64, 1<<20)
	require.NoError(t, ix.PutTerm("cat", []extent.Posting{1, 5, 9}))

	got, err := ix.GetPostings("cat")
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 5, 9}, got)
}

func TestGetPostingsUnknownTermReturnsErrNotFound(t *testing.T) {
	ix := newTestIndex(t, 4096, 64, 1<<20)
	_, err := ix.GetPostings("ghost")
	require.ErrorIs(t, err, inplace.ErrNotFound)
}

func TestSwitchingTermsFlushesThePrevious(t *testing.T) {
	ix := newTestIndex(t, 4096, 64, 1<<20)
	require.NoError(t, ix.PutTerm("cat", []extent.Posting{1, 2, 3}))
	require.NoError(t, ix.PutTerm("dog", []extent.Posting{4, 5}))

	gotCat, err := ix.GetPostings("cat")
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 3}, gotCat)

	gotDog, err := ix.GetPostings("dog")
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{4, 5}, gotDog)

	require.EqualValues(t, 2, ix.TermCount())
	require.EqualValues(t, 5, ix.PostingCount())
}

func TestRepeatedAppendsToSameTermAccumulate(t *testing.T) {
	ix := newTestIndex(t, 4096, 64, 1<<20)
	require.NoError(t, ix.PutTerm("huge", seq(0, 100)))
	require.NoError(t, ix.PutTerm("other", []extent.Posting{1})) // forces a flush of "huge"
	require.NoError(t, ix.PutTerm("huge", seq(100, 100)))

	got, err := ix.GetPostings("huge")
	require.NoError(t, err)
	require.Equal(t, seq(0, 200), got)
}

func TestGrowingTermEventuallyRelocates(t *testing.T) {
	// A tiny block size forces the term's chunk to outgrow its initial
	// allocation quickly, exercising relocate's copy-and-free path.
	ix := newTestIndex(t, 256, 64, 1<<20)

	var all []extent.Posting
	next := 1
	for i := 0; i < 100; i++ {
		batch := seq(next, 10)
		all = append(all, batch...)
		next += 10
		require.NoError(t, ix.PutTerm("grower", batch))
		require.NoError(t, ix.PutTerm("flush-trigger", []extent.Posting{extent.Posting(i + 1)}))
	}

	got, err := ix.GetPostings("grower")
	require.NoError(t, err)
	require.Equal(t, all, got)
}

func TestChainingPreservesOlderSegmentsPastMaxBlocksRun(t *testing.T) {
	// maxBlocksRun=1 forces the very first relocation attempt past the
	// cap to chain instead, leaving earlier segments at their original
	// file offsets.
	ix := newTestIndex(t, 256, 1, 1<<20)

	var all []extent.Posting
	next := 1
	for i := 0; i < 50; i++ {
		batch := seq(next, 50)
		all = append(all, batch...)
		next += 50
		require.NoError(t, ix.PutTerm("chainer", batch))
		require.NoError(t, ix.PutTerm("flush-trigger", []extent.Posting{extent.Posting(i + 1)}))
	}

	got, err := ix.GetPostings("chainer")
	require.NoError(t, err)
	require.Equal(t, all, got)
}

func TestCloseAndReopenPreservesTerms(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.InPlaceOptions.BlockSize = 4096
	dir := t.TempDir()

	ix, err := inplace.Open(&inplace.Config{
		DataDir: dir, Options: &opts, Codec: posting.NewVByte(), Registry: posting.NewRegistry(), Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	require.NoError(t, ix.PutTerm("cat", []extent.Posting{1, 2, 3}))
	require.NoError(t, ix.PutTerm("dog", []extent.Posting{10, 20}))
	require.NoError(t, ix.Close())

	reopened, err := inplace.Open(&inplace.Config{
		DataDir: dir, Options: &opts, Codec: posting.NewVByte(), Registry: posting.NewRegistry(), Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, reopened.TermCount())

	got, err := reopened.GetPostings("cat")
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{1, 2, 3}, got)

	got, err = reopened.GetPostings("dog")
	require.NoError(t, err)
	require.Equal(t, []extent.Posting{10, 20}, got)
}

func TestPutTermAfterCloseIsRejected(t *testing.T) {
	ix := newTestIndex(t, 4096, 64, 1<<20)
	require.NoError(t, ix.Close())
	err := ix.PutTerm("cat", []extent.Posting{1})
	require.Error(t, err)
}
