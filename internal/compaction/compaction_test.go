package compaction_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/compaction"
	"github.com/iamNilotpal/lexi/pkg/options"
)

type fakeMaintainer struct {
	calls atomic.Int64
}

func (f *fakeMaintainer) Maintain(ctx context.Context) error {
	f.calls.Add(1)
	return nil
}

func TestStartTicksAndClosesCleanly(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.CompactInterval = 5 * time.Millisecond

	m := &fakeMaintainer{}
	c, err := compaction.New(&compaction.Config{Options: &opts, Logger: zap.NewNop().Sugar(), Manager: m})
	require.NoError(t, err)

	c.Start()
	require.Eventually(t, func() bool { return m.calls.Load() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, c.Close())

	seenAtClose := m.calls.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, seenAtClose, m.calls.Load())
}

func TestCloseWithoutStartIsSafe(t *testing.T) {
	opts := options.NewDefaultOptions()
	m := &fakeMaintainer{}
	c, err := compaction.New(&compaction.Config{Options: &opts, Logger: zap.NewNop().Sugar(), Manager: m})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	// A second Close is a no-op, not a double-close panic.
	require.NoError(t, c.Close())
}

func TestStartWithZeroIntervalNeverTicks(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.CompactInterval = 0

	m := &fakeMaintainer{}
	c, err := compaction.New(&compaction.Config{Options: &opts, Logger: zap.NewNop().Sugar(), Manager: m})
	require.NoError(t, err)

	c.Start()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, int64(0), m.calls.Load())
	require.NoError(t, c.Close())
}
