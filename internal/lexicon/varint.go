package lexicon

import "github.com/iamNilotpal/lexi/pkg/errors"

// appendVarint writes v as a little-endian base-128 varint. The update
// lexicon's chunk payloads use this directly rather than
// internal/posting's codecs, which additionally tag each block with a
// method byte meant for a whole segment, not a single delta.
func appendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func varintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

func readVarint(src []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, b := range src {
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift > 63 {
			return 0, 0, errors.NewIndexCorruptionError("readVarint", len(src), nil).
				WithDetail("reason", "varint too long")
		}
	}
	return 0, 0, errors.NewIndexCorruptionError("readVarint", len(src), nil).
		WithDetail("reason", "truncated varint")
}
