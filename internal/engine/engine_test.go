package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/engine"
	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.CompactInterval = 0 // no background ticking during tests
	opts.PartitionOptions.DictionaryGroup = 4
	opts.PartitionOptions.FileGranularity = 0
	opts.PartitionOptions.TargetSegmentSize = 64

	e, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	return e
}

func TestIngestQueryAndClose(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Ingest("cat", 1))
	require.NoError(t, e.Ingest("cat", 2))

	cursor, err := e.Query(`"cat"`)
	require.NoError(t, err)
	got, ok := cursor.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Posting(1), got.Start)

	require.NoError(t, e.Close(context.Background()))
	require.ErrorIs(t, e.Close(context.Background()), engine.ErrEngineClosed)
}

func TestOperationsRejectedAfterClose(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close(context.Background()))

	require.ErrorIs(t, e.Ingest("cat", 1), engine.ErrEngineClosed)
	_, err := e.Query(`"cat"`)
	require.ErrorIs(t, err, engine.ErrEngineClosed)
	_, _, err = e.Register(0)
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}

func TestRegisterDeregisterRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close(context.Background())

	h, _, err := e.Register(0)
	require.NoError(t, err)
	require.NoError(t, e.Deregister(h))
}
