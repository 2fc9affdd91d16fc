// Package lexi provides a positional full-text retrieval engine: an
// on-disk inverted index queried through the GCL extent algebra, inspired
// by Bitcask's single-writer/many-reader ingest discipline. It combines
// an in-memory update lexicon with append-only on-disk partitions,
// background merge/GC, and a reader-registration snapshot-isolation
// protocol so a long-running query never observes a partition set out
// from under it. It is designed for applications needing positional
// text search over a growing token stream — search indexes, log
// retrieval, document stores — aiming to provide a simple, efficient,
// and reliable way to index and query text in Go applications.
package lexi

import (
	"context"

	"github.com/iamNilotpal/lexi/internal/engine"
	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
	"github.com/iamNilotpal/lexi/internal/manager"
	"github.com/iamNilotpal/lexi/pkg/logger"
	"github.com/iamNilotpal/lexi/pkg/options"
)

// ReaderHandle identifies a registered reader session, returned by
// Register and consumed by Deregister.
type ReaderHandle = manager.ReaderHandle

// Instance represents an open lexi index. It encapsulates the core
// engine responsible for ingest, query resolution and maintenance, and
// the configuration options for this particular instance.
//
// Instance is the primary entry point for interacting with lexi,
// providing methods for ingesting postings and running GCL queries.
type Instance struct {
	engine  *engine.Engine   // The underlying engine handling ingest/query/maintenance.
	options *options.Options // Configuration options applied to this instance.
}

// Open creates and initializes a new lexi Instance.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	defaultOpts := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	if len(opts) > 0 {
		for _, opt := range opts {
			opt(&defaultOpts)
		}
	}

	// Create a new internal engine with the initialized logger.
	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Ingest appends one (term, posting) pair to the index. Postings for a
// given term must arrive in strictly increasing order (spec §4.2); the
// update lexicon flushes to a new on-disk partition automatically once
// its buffered size reaches MaxUpdateSpace.
func (i *Instance) Ingest(term string, p extent.Posting) error {
	return i.engine.Ingest(term, p)
}

// Query compiles a GCL query string — e.g. `"cat" ^ "dog"`, `"cat" .. "hat"`
// — into a Cursor a caller can walk via its First/Last seek primitives.
// The visible-extents security restriction is applied automatically.
func (i *Instance) Query(query string) (gcl.Cursor, error) {
	return i.engine.Query(query)
}

// Register admits a new reader session, pinning it to the partition-set
// generation current as of suggestedTs (pass 0 to always see the latest).
// The returned handle must be passed to Deregister once the reader is
// done, or the session will hold open a slot (and pin garbage from being
// collected) indefinitely (spec §5).
func (i *Instance) Register(suggestedTs uint64) (ReaderHandle, uint64, error) {
	return i.engine.Register(suggestedTs)
}

// Deregister ends a reader session started by Register.
func (i *Instance) Deregister(h ReaderHandle) error {
	return i.engine.Deregister(h)
}

// Close gracefully shuts down the Instance, flushing any buffered
// ingest, running the configured shutdown merge policy, and releasing
// every open file handle.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close(ctx)
}
