// Package posting implements the pluggable compressed posting-list codecs:
// encode/decode pairs over a monotone, strictly increasing array of
// 64-bit postings. Every codec produces a self-describing byte block
// tagged with a 1-byte method id (ID) so that Decode(block) can dispatch
// through a Registry without the caller tracking which codec wrote it.
package posting

import (
	stdErrors "errors"

	"github.com/iamNilotpal/lexi/pkg/errors"
)

// Method identifies a posting codec by its on-disk tag byte.
type Method byte

const (
	MethodVByte Method = iota
	MethodGamma
	MethodDelta
	MethodGolomb
	MethodRice
	MethodInterpolative
	MethodSimple9
	MethodLLRun
	MethodNull
)

// String returns the codec's short name, used in logging and test names.
func (m Method) String() string {
	switch m {
	case MethodVByte:
		return "vbyte"
	case MethodGamma:
		return "gamma"
	case MethodDelta:
		return "delta"
	case MethodGolomb:
		return "golomb"
	case MethodRice:
		return "rice"
	case MethodInterpolative:
		return "interpolative"
	case MethodSimple9:
		return "simple9"
	case MethodLLRun:
		return "llrun"
	case MethodNull:
		return "null"
	default:
		return "unknown"
	}
}

// ErrEmptyInput is returned by Encode when given a zero-length postings
// slice; callers should special-case empty lists before reaching a codec.
var ErrEmptyInput = stdErrors.New("posting: cannot encode empty postings list")

// ErrNotMonotone is returned by Encode when postings is not strictly
// increasing, the structural precondition every codec here depends on.
var ErrNotMonotone = stdErrors.New("posting: postings must be strictly increasing")

// Codec compresses and decompresses a monotone posting list. Implementations
// must be safe for concurrent Encode/Decode calls (they hold no mutable
// state); any per-call scratch space is allocated fresh.
type Codec interface {
	// ID returns the method byte this codec tags its blocks with.
	ID() Method

	// Encode compresses a strictly increasing slice of postings into a
	// self-describing byte block. Returns ErrEmptyInput for an empty slice
	// and ErrNotMonotone if the precondition is violated.
	Encode(postings []uint64) ([]byte, error)

	// Decode reconstructs the original postings slice from a block
	// previously produced by Encode. It returns an IndexError tagged
	// ErrorCodeIndexCorrupted if block is truncated or malformed.
	Decode(block []byte) ([]uint64, error)
}

// Registry maps a method byte to the Codec that handles it, letting a
// reader decode a block purely from its leading tag without prior
// knowledge of which codec wrote it.
type Registry struct {
	codecs map[Method]Codec
}

// NewRegistry builds a Registry pre-populated with every codec this
// package implements.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[Method]Codec, 9)}
	for _, c := range []Codec{
		NewVByte(),
		NewGamma(),
		NewDelta(),
		NewGolomb(0),
		NewRice(0),
		NewInterpolative(),
		NewSimple9(),
		NewLLRun(),
		NewNull(),
	} {
		r.codecs[c.ID()] = c
	}
	return r
}

// Register installs or overrides the codec responsible for a method id,
// letting a caller swap in a differently tuned Golomb/Rice parameter.
func (r *Registry) Register(c Codec) {
	r.codecs[c.ID()] = c
}

// Decode reads the leading method byte from block and dispatches to the
// registered codec. Returns an IndexError tagged ErrorCodeIndexCorrupted
// if block is empty or its tag is unknown.
func (r *Registry) Decode(block []byte) ([]uint64, error) {
	if len(block) == 0 {
		return nil, errors.NewIndexCorruptionError("Decode", 0, nil).
			WithDetail("reason", "empty block")
	}
	c, ok := r.codecs[Method(block[0])]
	if !ok {
		return nil, errors.NewIndexCorruptionError("Decode", len(block), nil).
			WithDetail("reason", "unknown codec method").
			WithDetail("method", block[0])
	}
	return c.Decode(block)
}

// checkMonotone validates Encode's precondition in one place, shared by
// every codec implementation.
func checkMonotone(postings []uint64) error {
	if len(postings) == 0 {
		return ErrEmptyInput
	}
	for i := 1; i < len(postings); i++ {
		if postings[i] <= postings[i-1] {
			return ErrNotMonotone
		}
	}
	return nil
}

func corruptErr(op string, size int, cause error) error {
	return errors.NewIndexCorruptionError(op, size, cause)
}
