// Package options provides data structures and functions for configuring
// a lexi instance. It defines every tunable named in the core's design:
// partition/segment sizing, the update lexicon's memory budget, merge
// policy selection, in-place long-list indexing, segment cache sizing, and
// the GCL algebra's resource bounds.
package options

import (
	"strings"
	"time"
)

// CodecID selects the default posting codec used when flushing new
// segments (spec §4.1). Existing on-disk segments carry their own codec
// tag and decode correctly regardless of this setting.
type CodecID byte

const (
	CodecVByte CodecID = iota
	CodecGamma
	CodecDelta
	CodecGolomb
	CodecRice
	CodecInterpolative
	CodecSimple9
	CodecLLRun
	CodecNull
)

// MergePolicy selects which partitions participate in a maintenance merge
// (spec §4.6).
type MergePolicy int

const (
	PolicyNoMerge MergePolicy = iota
	PolicyImmediate
	PolicyLogarithmic
	PolicySqrtN
	PolicySmallMerge
	PolicyInPlace
)

// String returns the human-readable name of the merge policy.
func (p MergePolicy) String() string {
	switch p {
	case PolicyNoMerge:
		return "no-merge"
	case PolicyImmediate:
		return "immediate"
	case PolicyLogarithmic:
		return "logarithmic"
	case PolicySqrtN:
		return "sqrt-n"
	case PolicySmallMerge:
		return "small-merge"
	case PolicyInPlace:
		return "in-place"
	default:
		return "unknown"
	}
}

// partitionOptions defines configurable parameters for on-disk partitions.
// It provides fine-grained control over segment sizing, dictionary
// layout, and file naming.
type partitionOptions struct {
	// TargetSegmentSize is the target size, in bytes, for a single
	// compressed posting segment within a partition (spec §3).
	TargetSegmentSize uint64 `json:"targetSegmentSize"`

	// Directory specifies where partition files are stored, relative to
	// DataDir.
	Directory string `json:"directory"`

	// Prefix defines the filename prefix for partition files. The final
	// filename is "prefix.NNN" where NNN is a zero-padded sequence id.
	Prefix string `json:"prefix"`

	// DictionaryGroup is the number of terms per front-coded dictionary
	// group (spec §3, N≈32).
	DictionaryGroup int `json:"dictionaryGroup"`

	// FileGranularity aligns partition file start offsets (spec §3).
	FileGranularity int `json:"fileGranularity"`
}

// lexiconOptions defines configurable parameters for the in-memory update
// lexicon.
type lexiconOptions struct {
	// MaxUpdateSpace is the buffered memory threshold (bytes) that
	// triggers a flush (spec §4.2, MAX_UPDATE_SPACE).
	MaxUpdateSpace uint64 `json:"maxUpdateSpace"`

	// TFBits is the number of low bits reserved for the encoded
	// document-level term frequency (spec §3, s).
	TFBits int `json:"tfBits"`

	// MaxTokenLength is the maximum accepted term length in bytes.
	MaxTokenLength int `json:"maxTokenLength"`

	// DocumentLevel enables the document-level posting side channel
	// (spec §4.2).
	DocumentLevel bool `json:"documentLevel"`

	// Bigram enables bigram indexing of consecutive term pairs.
	Bigram bool `json:"bigram"`

	// StemmingLevel records the configured stemming aggressiveness; the
	// stemmer itself is an external collaborator (spec §6).
	StemmingLevel int `json:"stemmingLevel"`
}

// mergeOptions defines configurable parameters for merge-policy selection
// and garbage collection.
type mergeOptions struct {
	// Policy selects which partitions participate in an ordinary
	// maintenance merge.
	Policy MergePolicy `json:"policy"`

	// ShutdownPolicy selects the merge run at shutdown (spec §5).
	ShutdownPolicy MergePolicy `json:"shutdownPolicy"`

	// MaxIndexCount is the active partition set's size limit (spec §4.6);
	// nothing in the core reads it, so the set is not bounded by it.
	MaxIndexCount int `json:"maxIndexCount"`

	// GarbageCollectionThreshold is the aggregate garbage ratio that
	// triggers a full GC.
	GarbageCollectionThreshold float64 `json:"garbageCollectionThreshold"`

	// OnTheFlyGCThreshold is the per-merge garbage ratio that triggers
	// on-the-fly GC during an ordinary merge.
	OnTheFlyGCThreshold float64 `json:"onTheFlyGCThreshold"`

	// GarbageCollectionMinDeletes is the minimum aggregate deleted
	// posting count before a full GC is considered, regardless of ratio.
	GarbageCollectionMinDeletes int `json:"garbageCollectionMinDeletes"`

	// LongListThreshold is the posting count above which a term's merged
	// list is diverted into the in-place index.
	LongListThreshold int `json:"longListThreshold"`
}

// inPlaceOptions defines configurable parameters for the optional
// in-place long-list index (spec §4.7).
type inPlaceOptions struct {
	// Enabled turns on the in-place index and the InPlace merge policy's
	// long-list diversion.
	Enabled bool `json:"enabled"`

	// BlockSize is the in-place index's block size in bytes.
	BlockSize uint64 `json:"blockSize"`

	// MaxBlocksRun bounds a contiguous run before it must chain.
	MaxBlocksRun int `json:"maxBlocksRun"`

	// MaxPendingData bounds the per-term pending-segment buffer before a
	// bulk flush.
	MaxPendingData uint64 `json:"maxPendingData"`
}

// cacheOptions defines configurable parameters for the two-tier segment
// cache (spec §4.4).
type cacheOptions struct {
	// L1Size is the decoded-segment tier's capacity.
	L1Size int `json:"l1Size"`

	// L2Size is the compressed-segment tier's capacity.
	L2Size int `json:"l2Size"`

	// ReadAhead is the number of consecutive segments prefetched on an L2
	// miss.
	ReadAhead int `json:"readAhead"`
}

// gclOptions defines configurable parameters for the GCL extent algebra.
type gclOptions struct {
	// MaxScorerCount is the operator fan-in limit (spec §4.5/§9); neither
	// the operators nor the parser read it.
	MaxScorerCount int `json:"maxScorerCount"`

	// ShortListThreshold is the combined child-size threshold for eager
	// materialization; nothing reads it, and no OR/Sequence result is
	// materialized.
	ShortListThreshold int `json:"shortListThreshold"`
}

// Options defines the configuration parameters for a lexi instance. It
// provides control over storage layout, the update lexicon, merge/GC
// policy, in-place indexing, segment caching, and the GCL algebra's
// resource bounds.
type Options struct {
	// DataDir specifies the base path where all index files are stored.
	//
	// Default: "/var/lib/lexi"
	DataDir string `json:"dataDir"`

	// CompactInterval defines how often the background maintenance task
	// evaluates merge/GC policy triggers.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// MaxUserCount bounds the number of concurrent registered readers
	// (spec §4.6, MAX_USER_COUNT).
	MaxUserCount int `json:"maxUserCount"`

	// Codec selects the default posting codec for newly written segments.
	Codec CodecID `json:"codec"`

	// PartitionOptions configures on-disk partition layout and sizing.
	PartitionOptions *partitionOptions `json:"partitionOptions"`

	// LexiconOptions configures the in-memory update lexicon.
	LexiconOptions *lexiconOptions `json:"lexiconOptions"`

	// MergeOptions configures merge-policy selection and garbage
	// collection.
	MergeOptions *mergeOptions `json:"mergeOptions"`

	// InPlaceOptions configures the optional in-place long-list index.
	InPlaceOptions *inPlaceOptions `json:"inPlaceOptions"`

	// CacheOptions configures the two-tier segment cache.
	CacheOptions *cacheOptions `json:"cacheOptions"`

	// GCLOptions configures the GCL extent algebra's resource bounds.
	GCLOptions *gclOptions `json:"gclOptions"`
}

// OptionFunc is a function type that modifies lexi's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration
// values to the Options struct. Typically supplied first so later options
// override individual fields.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the primary data directory for lexi.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithCompactInterval sets the interval at which lexi evaluates merge/GC
// policy triggers.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// WithPartitionDir sets the directory, relative to DataDir, where
// partition files are stored.
func WithPartitionDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.PartitionOptions.Directory = directory
		}
	}
}

// WithPartitionPrefix sets the filename prefix for partition files.
func WithPartitionPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.PartitionOptions.Prefix = prefix
		}
	}
}

// WithTargetSegmentSize sets the target size of individual posting
// segments within a partition. Values outside (MinPartitionSegmentSize,
// MaxPartitionSegmentSize) are ignored.
func WithTargetSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinPartitionSegmentSize && size < MaxPartitionSegmentSize {
			o.PartitionOptions.TargetSegmentSize = size
		}
	}
}

// WithDictionaryGroup sets the number of terms per front-coded dictionary
// group.
func WithDictionaryGroup(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.PartitionOptions.DictionaryGroup = n
		}
	}
}

// WithMaxUpdateSpace sets the update lexicon's flush threshold, in bytes.
func WithMaxUpdateSpace(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.LexiconOptions.MaxUpdateSpace = size
		}
	}
}

// WithTFBits sets the number of low bits reserved for the encoded
// document-level term frequency.
func WithTFBits(bits int) OptionFunc {
	return func(o *Options) {
		if bits > 0 {
			o.LexiconOptions.TFBits = bits
		}
	}
}

// WithMaxTokenLength sets the maximum accepted term length in bytes.
func WithMaxTokenLength(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.LexiconOptions.MaxTokenLength = n
		}
	}
}

// WithDocumentLevel enables or disables the document-level posting side
// channel.
func WithDocumentLevel(enabled bool) OptionFunc {
	return func(o *Options) {
		o.LexiconOptions.DocumentLevel = enabled
	}
}

// WithBigram enables or disables bigram indexing of consecutive term
// pairs.
func WithBigram(enabled bool) OptionFunc {
	return func(o *Options) {
		o.LexiconOptions.Bigram = enabled
	}
}

// WithStemmingLevel records the configured stemming aggressiveness.
func WithStemmingLevel(level int) OptionFunc {
	return func(o *Options) {
		o.LexiconOptions.StemmingLevel = level
	}
}

// WithMergePolicy sets the merge policy used during ordinary maintenance.
func WithMergePolicy(policy MergePolicy) OptionFunc {
	return func(o *Options) {
		o.MergeOptions.Policy = policy
	}
}

// WithShutdownMergePolicy sets the merge policy run at shutdown.
func WithShutdownMergePolicy(policy MergePolicy) OptionFunc {
	return func(o *Options) {
		o.MergeOptions.ShutdownPolicy = policy
	}
}

// WithMaxIndexCount sets MaxIndexCount, which nothing in the core reads.
func WithMaxIndexCount(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.MergeOptions.MaxIndexCount = n
		}
	}
}

// WithGarbageCollectionThreshold sets the aggregate garbage ratio that
// triggers a full GC.
func WithGarbageCollectionThreshold(ratio float64) OptionFunc {
	return func(o *Options) {
		if ratio > 0 && ratio <= 1 {
			o.MergeOptions.GarbageCollectionThreshold = ratio
		}
	}
}

// WithOnTheFlyGCThreshold sets the per-merge garbage ratio that triggers
// on-the-fly GC during an ordinary merge.
func WithOnTheFlyGCThreshold(ratio float64) OptionFunc {
	return func(o *Options) {
		if ratio > 0 && ratio <= 1 {
			o.MergeOptions.OnTheFlyGCThreshold = ratio
		}
	}
}

// WithLongListThreshold sets the posting count above which a term's
// merged list is diverted into the in-place index.
func WithLongListThreshold(threshold int) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.MergeOptions.LongListThreshold = threshold
		}
	}
}

// WithInPlaceIndex enables or disables the optional in-place long-list
// index.
func WithInPlaceIndex(enabled bool) OptionFunc {
	return func(o *Options) {
		o.InPlaceOptions.Enabled = enabled
	}
}

// WithInPlaceBlockSize sets the in-place index's block size, in bytes.
func WithInPlaceBlockSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.InPlaceOptions.BlockSize = size
		}
	}
}

// WithMaxBlocksRun bounds how far a contiguous in-place run may grow
// before new appends start a chain.
func WithMaxBlocksRun(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.InPlaceOptions.MaxBlocksRun = n
		}
	}
}

// WithMaxPendingData bounds the in-place index's per-term pending segment
// buffer before a bulk flush.
func WithMaxPendingData(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.InPlaceOptions.MaxPendingData = size
		}
	}
}

// WithCacheSizes sets the segment cache's L1 (decoded) and L2 (compressed)
// tier capacities.
func WithCacheSizes(l1, l2 int) OptionFunc {
	return func(o *Options) {
		if l1 > 0 {
			o.CacheOptions.L1Size = l1
		}
		if l2 > 0 {
			o.CacheOptions.L2Size = l2
		}
	}
}

// WithReadAhead sets the number of consecutive segments prefetched on an
// L2 cache miss.
func WithReadAhead(n int) OptionFunc {
	return func(o *Options) {
		if n >= 0 {
			o.CacheOptions.ReadAhead = n
		}
	}
}

// WithMaxScorerCount sets MaxScorerCount, which neither the GCL operators
// nor the parser read.
func WithMaxScorerCount(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.GCLOptions.MaxScorerCount = n
		}
	}
}

// WithShortListThreshold sets ShortListThreshold, which nothing reads; no
// OR/Sequence result is materialized.
func WithShortListThreshold(n int) OptionFunc {
	return func(o *Options) {
		if n >= 0 {
			o.GCLOptions.ShortListThreshold = n
		}
	}
}

// WithMaxUserCount bounds the number of concurrent registered readers.
func WithMaxUserCount(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.MaxUserCount = n
		}
	}
}

// WithCodec selects the default posting codec for newly written segments.
func WithCodec(codec CodecID) OptionFunc {
	return func(o *Options) {
		o.Codec = codec
	}
}
