package options

import "time"

const (
	// DefaultDataDir specifies the default base directory where lexi will
	// store its index files. If no other directory is specified during
	// initialization, this path will be used.
	DefaultDataDir = "/var/lib/lexi"

	// DefaultCompactInterval defines the default time duration between
	// automatic maintenance-task evaluations (merge/GC policy checks).
	DefaultCompactInterval = time.Hour * 5

	// MinPartitionSegmentSize represents the minimum allowed target size
	// for a partition's posting segments, in bytes.
	MinPartitionSegmentSize uint64 = 4 * 1024

	// MaxPartitionSegmentSize represents the maximum allowed target
	// segment size in bytes (4MiB).
	MaxPartitionSegmentSize uint64 = 4 * 1024 * 1024

	// DefaultTargetSegmentSize is the default target size for a single
	// compressed posting segment (spec §3, TARGET_SEGMENT_SIZE).
	DefaultTargetSegmentSize uint64 = 32 * 1024

	// MinSegmentSizeRatio / MaxSegmentSizeRatio bound a segment's actual
	// size relative to DefaultTargetSegmentSize (0.65x / 1.35x).
	MinSegmentSizeRatio = 0.65
	MaxSegmentSizeRatio = 1.35

	// DefaultPartitionDirectory is the default subdirectory within the
	// main data directory where partition files are stored.
	DefaultPartitionDirectory = "/partitions"

	// DefaultPartitionPrefix is the default filename prefix for partition
	// files, e.g. "index.000001".
	DefaultPartitionPrefix = "index"

	// DefaultMaxUpdateSpace is the default amount of buffered update-lexicon
	// memory (bytes) that triggers a flush (spec §4.2, MAX_UPDATE_SPACE).
	DefaultMaxUpdateSpace uint64 = 40 * 1024 * 1024

	// DefaultMaxIndexCount is the default MaxIndexCount (spec §4.6). Nothing
	// reads it: flushes are not refused however many partitions the active
	// set holds.
	DefaultMaxIndexCount = 1000

	// DefaultMaxUserCount is the default number of concurrent reader slots
	// (spec §4.6, MAX_USER_COUNT).
	DefaultMaxUserCount = 64

	// DefaultGarbageCollectionThreshold is the aggregate garbage ratio that
	// triggers a full GC (spec §4.6, GARBAGE_COLLECTION_THRESHOLD).
	DefaultGarbageCollectionThreshold = 0.40

	// DefaultOnTheFlyGCThreshold is the per-merge garbage ratio that
	// triggers on-the-fly GC during an ordinary merge (spec §4.6).
	DefaultOnTheFlyGCThreshold = 0.25

	// DefaultGarbageCollectionMinPostings is the minimum aggregate deleted
	// posting count before a full GC is considered, regardless of ratio.
	DefaultGarbageCollectionMinPostings = 16384

	// DefaultLongListThreshold is the posting count above which a term's
	// list is diverted into the in-place index instead of a merged
	// partition (spec §3).
	DefaultLongListThreshold = 2_000_000

	// DefaultInPlaceBlockSize is the in-place index's block size (spec §4.7,
	// BLOCK_SIZE, 1MiB).
	DefaultInPlaceBlockSize uint64 = 1 * 1024 * 1024

	// DefaultMaxBlocksPerTerm bounds how far a contiguous in-place run may
	// grow before new appends start a chain (spec §4.7).
	DefaultMaxBlocksPerTerm = 64

	// DefaultMaxPendingData bounds the in-place index's per-term pending
	// segment buffer before a bulk flush (spec §4.7).
	DefaultMaxPendingData uint64 = 1 * 1024 * 1024

	// DefaultL1CacheSize / DefaultL2CacheSize are the segment cache's
	// decoded / compressed tier sizes (spec §4.4).
	DefaultL1CacheSize = 2
	DefaultL2CacheSize = 64

	// DefaultReadAhead is the number of consecutive segments prefetched on
	// an L2 miss (spec §4.4, READ_AHEAD).
	DefaultReadAhead = 4

	// DefaultDictionaryGroupSize is the number of terms per front-coded
	// dictionary group (spec §3, N≈32).
	DefaultDictionaryGroupSize = 32

	// DefaultFileGranularity aligns partition file start offsets (spec §3).
	DefaultFileGranularity = 4096

	// DefaultTFBits is the number of low bits reserved for the encoded
	// document-level term frequency (spec §3, s, default 6).
	DefaultTFBits = 6

	// DefaultMaxTokenLength is the maximum accepted term length (spec §3,
	// MAX_TOKEN_LENGTH, ≡3 mod 4, typically 19).
	DefaultMaxTokenLength = 19

	// DefaultMaxScorerCount is the default GCL operator fan-in limit (spec
	// §4.5/§9, MAX_SCORER_COUNT); neither the operators nor the parser read
	// it.
	DefaultMaxScorerCount = 64

	// DefaultShortListThreshold is the default short-list threshold (spec
	// §4.5); nothing reads it, and no OR/Sequence result is materialized.
	DefaultShortListThreshold = 256
)

// Holds the default configuration settings for a lexi instance.
var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	CompactInterval: DefaultCompactInterval,
	PartitionOptions: &partitionOptions{
		TargetSegmentSize: DefaultTargetSegmentSize,
		Prefix:            DefaultPartitionPrefix,
		Directory:         DefaultPartitionDirectory,
		DictionaryGroup:   DefaultDictionaryGroupSize,
		FileGranularity:   DefaultFileGranularity,
	},
	LexiconOptions: &lexiconOptions{
		MaxUpdateSpace: DefaultMaxUpdateSpace,
		TFBits:         DefaultTFBits,
		MaxTokenLength: DefaultMaxTokenLength,
		DocumentLevel:  false,
	},
	MergeOptions: &mergeOptions{
		Policy:                      PolicyLogarithmic,
		ShutdownPolicy:              PolicySmallMerge,
		MaxIndexCount:               DefaultMaxIndexCount,
		GarbageCollectionThreshold:  DefaultGarbageCollectionThreshold,
		OnTheFlyGCThreshold:         DefaultOnTheFlyGCThreshold,
		GarbageCollectionMinDeletes: DefaultGarbageCollectionMinPostings,
		LongListThreshold:           DefaultLongListThreshold,
	},
	InPlaceOptions: &inPlaceOptions{
		Enabled:        false,
		BlockSize:      DefaultInPlaceBlockSize,
		MaxBlocksRun:   DefaultMaxBlocksPerTerm,
		MaxPendingData: DefaultMaxPendingData,
	},
	CacheOptions: &cacheOptions{
		L1Size:    DefaultL1CacheSize,
		L2Size:    DefaultL2CacheSize,
		ReadAhead: DefaultReadAhead,
	},
	GCLOptions: &gclOptions{
		MaxScorerCount:     DefaultMaxScorerCount,
		ShortListThreshold: DefaultShortListThreshold,
	},
	MaxUserCount: DefaultMaxUserCount,
	Codec:        CodecVByte,
}

// NewDefaultOptions returns a fresh copy of the default configuration, deep
// enough that callers may mutate the returned nested structs without
// affecting the package-level defaults.
func NewDefaultOptions() Options {
	o := defaultOptions
	part := *defaultOptions.PartitionOptions
	lex := *defaultOptions.LexiconOptions
	merge := *defaultOptions.MergeOptions
	inplace := *defaultOptions.InPlaceOptions
	cache := *defaultOptions.CacheOptions
	gcl := *defaultOptions.GCLOptions

	o.PartitionOptions = &part
	o.LexiconOptions = &lex
	o.MergeOptions = &merge
	o.InPlaceOptions = &inplace
	o.CacheOptions = &cache
	o.GCLOptions = &gcl
	return o
}
