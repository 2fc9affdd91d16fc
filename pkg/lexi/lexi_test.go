package lexi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/pkg/lexi"
	"github.com/iamNilotpal/lexi/pkg/options"
)

func TestOpenIngestQueryClose(t *testing.T) {
	dir := t.TempDir()
	inst, err := lexi.Open(
		context.Background(), "lexi-test",
		options.WithDataDir(dir),
		options.WithCompactInterval(0),
	)
	require.NoError(t, err)

	require.NoError(t, inst.Ingest("cat", 1))
	require.NoError(t, inst.Ingest("cat", 2))

	cursor, err := inst.Query(`"cat"`)
	require.NoError(t, err)
	e, ok := cursor.FirstStartGE(1)
	require.True(t, ok)
	require.Equal(t, extent.Posting(1), e.Start)

	h, _, err := inst.Register(0)
	require.NoError(t, err)
	require.NoError(t, inst.Deregister(h))

	require.NoError(t, inst.Close(context.Background()))
}
