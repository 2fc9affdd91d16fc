// Package engine provides the core engine implementation for the lexi
// retrieval system.
//
// The engine serves as the central coordinator and entry point for all
// index operations. It orchestrates the interaction between two main
// subsystems:
//   - Manager: owns the update lexicon, active partition set, in-place
//     long-list index and segment cache, and answers queries
//   - Compaction: runs manager's merge/GC policy on a background interval
//
// The engine implements a thread-safe interface with proper lifecycle
// management, ensuring resources are properly initialized and cleaned up.
// It uses atomic operations for state management to provide consistent
// behavior across concurrent operations.
package engine

import (
	"context"
	stdErrors "errors"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/compaction"
	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
	"github.com/iamNilotpal/lexi/internal/manager"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")

// Engine represents the main retrieval engine that coordinates all
// subsystems. It acts as the primary interface index operations go
// through and manages the lifecycle of all internal components. The
// engine is designed to be thread-safe and supports concurrent operations
// while maintaining data consistency.
type Engine struct {
	options *options.Options   // options contains all configuration parameters for the engine and its subsystems.
	log     *zap.SugaredLogger // log provides structured logging capabilities throughout the engine.
	closed  atomic.Bool        // closed is an atomic boolean that tracks the engine's lifecycle state.

	manager    *manager.Manager       // manager owns the lexicon, active partition set, and query resolution.
	compaction *compaction.Compaction // compaction runs background merge/GC rounds against manager.
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided
// configuration. This constructor follows the dependency injection
// pattern, making the engine testable and allowing for different
// configurations in different environments.
func New(ctx context.Context, config *Config) (*Engine, error) {
	registry := posting.NewRegistry()
	codec := codecFor(config.Options.Codec)

	// Initialize the manager subsystem first: it owns every piece of
	// durable state and must be ready before compaction starts driving it.
	mgr, err := manager.New(&manager.Config{
		Options: config.Options, Logger: config.Logger, Codec: codec, Registry: registry,
	})
	if err != nil {
		return nil, err
	}

	comp, err := compaction.New(&compaction.Config{Options: config.Options, Logger: config.Logger, Manager: mgr})
	if err != nil {
		return nil, err
	}
	comp.Start()

	return &Engine{options: config.Options, log: config.Logger, manager: mgr, compaction: comp}, nil
}

// codecFor maps a configured CodecID onto the posting.Codec that writes
// new segments with it. options.CodecID is deliberately ordered to match
// posting.Method's constants one-for-one.
func codecFor(id options.CodecID) posting.Codec {
	switch posting.Method(id) {
	case posting.MethodGamma:
		return posting.NewGamma()
	case posting.MethodDelta:
		return posting.NewDelta()
	case posting.MethodGolomb:
		return posting.NewGolomb(0)
	case posting.MethodRice:
		return posting.NewRice(0)
	case posting.MethodInterpolative:
		return posting.NewInterpolative()
	case posting.MethodSimple9:
		return posting.NewSimple9()
	case posting.MethodLLRun:
		return posting.NewLLRun()
	case posting.MethodNull:
		return posting.NewNull()
	default:
		return posting.NewVByte()
	}
}

// Ingest appends one (term, posting) pair to the update lexicon.
func (e *Engine) Ingest(term string, p extent.Posting) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.manager.Ingest(term, p)
}

// Query compiles a GCL query string into a restricted cursor tree ready
// for a caller to walk.
func (e *Engine) Query(query string) (gcl.Cursor, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.manager.Query(query)
}

// Register admits a new reader session, pinning it to a partition-set
// generation (spec §5).
func (e *Engine) Register(suggestedTs uint64) (manager.ReaderHandle, uint64, error) {
	if e.closed.Load() {
		return 0, 0, ErrEngineClosed
	}
	return e.manager.Register(suggestedTs)
}

// Deregister ends a reader session.
func (e *Engine) Deregister(h manager.ReaderHandle) error {
	return e.manager.Deregister(h)
}

// Close gracefully shuts down the engine and releases all associated
// resources. This method ensures that all pending operations complete
// and that data is properly persisted before the engine becomes unusable.
func (e *Engine) Close(ctx context.Context) error {
	// Use atomic compare-and-swap to transition from open (false) to closed (true).
	// This operation is atomic and thread-safe, ensuring only one goroutine
	// can successfully close the engine.
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	return multierr.Combine(e.compaction.Close(), e.manager.Close(ctx))
}
