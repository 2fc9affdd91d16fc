// Package manager implements the index manager (spec §4.6, §5): the
// collaborator that owns the update lexicon, the active partition set,
// the optional in-place long-list index, and the segment cache, and
// coordinates ingest, query, and maintenance (merge/GC) across them
// under the reader-registration snapshot-isolation protocol. It
// generalizes iamNilotpal-ignite/internal/engine/engine.go's
// orchestrate-three-subsystems shape from a KV store's index/storage/
// compaction trio to a retrieval core's lexicon/partition-set/in-place
// trio.
package manager

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/lexi/internal/cache"
	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/gcl"
	"github.com/iamNilotpal/lexi/internal/inplace"
	"github.com/iamNilotpal/lexi/internal/lexicon"
	"github.com/iamNilotpal/lexi/internal/merge"
	"github.com/iamNilotpal/lexi/internal/partition"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/internal/visible"
	"github.com/iamNilotpal/lexi/pkg/errors"
	"github.com/iamNilotpal/lexi/pkg/filesys"
	"github.com/iamNilotpal/lexi/pkg/options"
	"github.com/iamNilotpal/lexi/pkg/seginfo"
)

// Manager is the index manager. It is the single implementation of
// gcl.TermResolver a running instance needs: Query compiles a GCL string
// through it, and Resolve fans a literal term out across the in-place
// index, the active partition set, and the update lexicon's unflushed
// tail.
type Manager struct {
	opts *options.Options
	log  *zap.SugaredLogger

	codec    posting.Codec
	registry *posting.Registry

	ingestMu sync.Mutex // serializes the single ingest writer (spec §5)
	lexicon  *lexicon.Lexicon
	visible  *visible.Extents

	cache   *cache.Cache   // nil if CacheOptions sizes are both non-positive
	inplace *inplace.Index // nil if InPlaceOptions.Enabled is false

	merger *merge.Merger

	current atomic.Value // activeSet

	setMu         sync.Mutex // guards pending/pendingTs/pendingRetire and set transitions
	pending       activeSet
	pendingTs     uint64
	pendingRetire []*partition.Partition

	readers *readerRegistry
	nextID  atomic.Uint64

	maintenanceMu sync.Mutex // one maintenance task at a time (spec §5)

	closed atomic.Bool
}

// Config configures a new Manager.
type Config struct {
	Options  *options.Options
	Logger   *zap.SugaredLogger
	Codec    posting.Codec
	Registry *posting.Registry
}

// New builds a Manager: opens (or creates) the partition directory,
// discovers any existing partitions left from a prior run, and opens
// the optional in-place index and segment cache per config.Options.
func New(config *Config) (*Manager, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Codec == nil || config.Registry == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "manager configuration is required",
		).WithField("config").WithRule("required")
	}
	opts := config.Options

	partDir := filepath.Join(opts.DataDir, opts.PartitionOptions.Directory)
	if err := filesys.CreateDir(partDir, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create partition directory").WithPath(partDir)
	}

	lex, err := lexicon.New(&lexicon.Config{Options: opts, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	merger, err := merge.New(&merge.Config{Options: opts, Logger: config.Logger, Registry: config.Registry})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		opts: opts, log: config.Logger, codec: config.Codec, registry: config.Registry,
		lexicon: lex, visible: visible.NewAllVisible(), merger: merger,
		readers: newReaderRegistry(opts.MaxUserCount),
	}
	m.storeActive(nil)

	if opts.CacheOptions != nil && (opts.CacheOptions.L1Size > 0 || opts.CacheOptions.L2Size > 0) {
		c, err := cache.New(&cache.Config{
			Registry: config.Registry, L1Size: opts.CacheOptions.L1Size,
			L2Size: opts.CacheOptions.L2Size, ReadAhead: opts.CacheOptions.ReadAhead,
		})
		if err != nil {
			return nil, err
		}
		m.cache = c
	}

	if opts.InPlaceOptions != nil && opts.InPlaceOptions.Enabled {
		ix, err := inplace.Open(&inplace.Config{
			DataDir: opts.DataDir, Options: opts, Codec: config.Codec, Registry: config.Registry, Logger: config.Logger,
		})
		if err != nil {
			return nil, err
		}
		m.inplace = ix
	}

	latestID, _, err := seginfo.GetLatestPartitionInfo(opts.DataDir, opts.PartitionOptions.Directory, opts.PartitionOptions.Prefix)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to discover existing partitions").WithPath(partDir)
	}
	m.nextID.Store(latestID)

	if err := m.loadExistingPartitions(partDir, latestID); err != nil {
		return nil, err
	}

	return m, nil
}

// loadExistingPartitions opens every partition file left by a prior run,
// from id 1 through latestID, and publishes them as the initial active
// set, marking their full posting ranges visible.
func (m *Manager) loadExistingPartitions(partDir string, latestID uint64) error {
	if latestID == 0 {
		return nil
	}

	var set activeSet
	for id := uint64(1); id <= latestID; id++ {
		path := filepath.Join(partDir, seginfo.GenerateName(id, m.opts.PartitionOptions.Prefix))
		p, err := partition.Open(path, m.opts.PartitionOptions.DictionaryGroup, m.registry)
		if err != nil {
			return err
		}
		p.ID = id
		set = append(set, p)
		if p.PostingCount > 0 {
			m.visible.Allow(p.FirstPost, p.LastPost)
		}
	}
	m.storeActive(set)
	return nil
}

// Ingest appends one (term, posting) pair to the update lexicon,
// flushing it to a new partition once the lexicon's buffered size
// reaches MaxUpdateSpace (spec §4.2, §4.6 ingest data flow).
func (m *Manager) Ingest(term string, p extent.Posting) error {
	if m.closed.Load() {
		return errors.ErrShuttingDown("Ingest")
	}

	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()

	if err := m.lexicon.Insert(term, p); err != nil {
		return err
	}
	if m.lexicon.Size() >= m.opts.LexiconOptions.MaxUpdateSpace {
		if _, err := m.flushLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Flush forces an immediate full flush of the update lexicon to a new
// partition, regardless of MaxUpdateSpace. Exposed so callers (and
// shutdown) can drain buffered ingests without waiting for the
// threshold.
func (m *Manager) Flush() (*partition.Partition, error) {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()
	if m.lexicon.TermCount() == 0 {
		return nil, nil
	}
	return m.flushLocked()
}

// flushLocked writes the lexicon's current contents to a new partition
// and publishes it to the active set. Callers must hold ingestMu.
func (m *Manager) flushLocked() (*partition.Partition, error) {
	w, err := m.newPartitionWriter()
	if err != nil {
		return nil, err
	}

	part, err := m.lexicon.Flush(w, m.visible)
	if err != nil {
		return nil, err
	}
	m.appendActive(part)
	return part, nil
}

// newPartitionWriter allocates the next sequence id and opens a fresh
// partition.Writer for it.
func (m *Manager) newPartitionWriter() (*partition.Writer, error) {
	id := m.nextID.Add(1)
	return partition.New(&partition.Config{
		DataDir: m.opts.DataDir, Directory: m.opts.PartitionOptions.Directory, Prefix: m.opts.PartitionOptions.Prefix,
		ID: id, Codec: m.codec, Options: m.opts, Logger: m.log,
	})
}

// Resolve implements gcl.TermResolver: it gathers term's postings from
// every source that may hold them, oldest-to-newest — the in-place
// long-list index (holds the term's full diverted history), every
// active partition in ascending (chronological) order, and finally the
// update lexicon's unflushed tail — and wraps the concatenation (already
// ascending, since every source's posting range is strictly newer than
// the one before it) as a literal cursor.
func (m *Manager) Resolve(term string) (gcl.Cursor, error) {
	var postings []extent.Posting

	if m.inplace != nil {
		p, err := m.inplace.GetPostings(term)
		switch {
		case err == nil:
			postings = append(postings, p...)
		case err == inplace.ErrNotFound:
			// fall through to the active set
		default:
			return nil, err
		}
	}

	// The lexicon has no lock of its own, so Lookup is serialized with
	// Ingest and Flush under ingestMu; the active set is read under the
	// same lock so a flush cannot move postings between the two reads.
	m.ingestMu.Lock()
	active := m.loadActive()
	tail, inTail := m.lexicon.Lookup(term)
	m.ingestMu.Unlock()

	for _, part := range active {
		p, err := m.readTerm(part, term)
		switch {
		case err == nil:
			postings = append(postings, p...)
		case err == partition.ErrNotFound:
			continue
		default:
			return nil, err
		}
	}

	if inTail {
		postings = append(postings, tail...)
	}

	if len(postings) == 0 {
		return gcl.Empty{}, nil
	}
	return gcl.NewLiteral(postings), nil
}

// readTerm returns term's decoded posting list from part, routed through
// the segment cache when one is configured. Each on-disk segment is
// cached under a key folding the term's hash with its position in the
// term's segment list, so consecutive segments of the same long list —
// the natural read-ahead unit for a growing term — share a stable,
// independently fetchable identity without requiring partition.Writer to
// assign file-global segment ids.
func (m *Manager) readTerm(part *partition.Partition, term string) ([]extent.Posting, error) {
	if m.cache == nil {
		return part.Get(term, m.registry)
	}

	locs, err := part.Locate(term)
	if err != nil {
		return nil, err
	}

	h := xxhash.Sum64String(term)
	keyFor := func(i int) cache.Key {
		return cache.Key{PartitionID: part.ID, SegmentID: uint32(h>>32) ^ uint32(h) ^ uint32(i)}
	}

	var out []extent.Posting
	for i, loc := range locs {
		loc := loc
		ahead := make(map[cache.Key]cache.Fetch)
		for j := i + 1; j < len(locs) && j <= i+m.opts.CacheOptions.ReadAhead; j++ {
			aheadLoc := locs[j]
			ahead[keyFor(j)] = func() ([]byte, error) { return part.ReadSegment(aheadLoc) }
		}

		decoded, err := m.cache.Get(context.Background(), keyFor(i), func() ([]byte, error) { return part.ReadSegment(loc) }, ahead)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Query compiles query into a GCL cursor tree via Resolve and applies
// the visible-extents security restriction exactly once to the whole
// tree (spec §4.5).
func (m *Manager) Query(query string) (gcl.Cursor, error) {
	if m.closed.Load() {
		return nil, errors.ErrShuttingDown("Query")
	}

	parser := gcl.NewParser(m)
	cursor, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return m.visible.RestrictList(cursor), nil
}

// Register admits a new reader session, blocking if MAX_USER_COUNT
// sessions are already registered (spec §5).
func (m *Manager) Register(suggestedTs uint64) (ReaderHandle, uint64, error) {
	if m.closed.Load() {
		return 0, 0, errors.ErrShuttingDown("Register")
	}
	h, ts := m.readers.register(suggestedTs)
	return h, ts, nil
}

// Deregister ends a reader session and, if a pending partition set is
// waiting and every remaining reader's timestamp has caught up, installs
// it (spec §5).
func (m *Manager) Deregister(h ReaderHandle) error {
	if _, err := m.readers.deregister(h); err != nil {
		return err
	}

	m.setMu.Lock()
	defer m.setMu.Unlock()
	m.tryActivateLocked()
	return nil
}

// CurrentTimestamp returns the manager's current running timestamp
// (spec §5's getTimeStamp).
func (m *Manager) CurrentTimestamp() uint64 {
	return m.readers.getTimestamp()
}

// VisibleExtents exposes the manager's visibility collaborator, for
// callers that need to revoke ranges directly (e.g. a document-delete
// API layered above the query surface).
func (m *Manager) VisibleExtents() *visible.Extents { return m.visible }

// Close flushes any buffered ingest, runs the shutdown merge policy, and
// closes every open partition, the in-place index, and the update
// lexicon's backing resources. Further Ingest/Query/Register calls are
// rejected once Close has returned.
func (m *Manager) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return errors.ErrShuttingDown("Close")
	}

	var errs []error

	if _, err := m.Flush(); err != nil {
		errs = append(errs, err)
	}

	if m.opts.MergeOptions.ShutdownPolicy != options.PolicyNoMerge {
		if err := m.maintainWithPolicy(ctx, m.opts.MergeOptions.ShutdownPolicy); err != nil {
			errs = append(errs, err)
		}
	}
	// The shutdown merge stages its replacement set as pending just like
	// an ordinary one; with no readers left to drain (callers are
	// expected to have deregistered everything before Close), it is safe
	// to force it active immediately rather than waiting.
	m.setMu.Lock()
	m.pendingTs = 0
	m.tryActivateLocked()
	m.setMu.Unlock()

	for _, p := range m.loadActive() {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.inplace != nil {
		if err := m.inplace.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}
