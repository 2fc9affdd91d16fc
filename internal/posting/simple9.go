package posting

import "encoding/binary"

// simple9Config describes one of Simple-9's nine packings of a 28-bit
// payload: Count values of Bits bits each, Count*Bits <= 28.
type simple9Config struct {
	count int
	bits  int
}

// simple9Configs is ordered from the widest packing (most values per
// word) to the narrowest, the order Encode scans in to greedily maximize
// values-per-word.
var simple9Configs = []simple9Config{
	{28, 1}, {14, 2}, {9, 3}, {7, 4}, {5, 5}, {4, 7}, {3, 9}, {2, 14}, {1, 28},
}

// simple9Escape is the selector value (one of the seven unused 4-bit
// codes) that marks a 12-byte escape word: a zero 28-bit payload
// followed by a single raw big-endian uint64, used when a single d-gap
// doesn't fit in 28 bits.
const simple9Escape = 9

// Simple9 packs d-gaps minus one into 32-bit words: a 4-bit selector
// naming one of nine (count, bits) packings, followed by a 28-bit
// payload holding that many fixed-width values. Values that don't fit
// even the widest single-value packing escape into a 12-byte literal
// word. Good throughput from word-aligned decode, at some loss of ratio
// relative to bit-level codecs.
type Simple9 struct{}

func NewSimple9() *Simple9 { return &Simple9{} }

func (Simple9) ID() Method { return MethodSimple9 }

func (Simple9) Encode(postings []uint64) ([]byte, error) {
	if err := checkMonotone(postings); err != nil {
		return nil, err
	}

	values := make([]uint64, len(postings))
	prev := uint64(0)
	for i, p := range postings {
		values[i] = p - prev - 1
		prev = p
	}

	out := make([]byte, 1, 1+len(postings)*2)
	out[0] = byte(MethodSimple9)
	out = appendVarint(out, uint64(len(postings)))

	pos := 0
	for pos < len(values) {
		word, consumed := encodeSimple9Word(values[pos:])
		if consumed == 0 {
			out = binary.BigEndian.AppendUint32(out, uint32(simple9Escape)<<28)
			out = binary.BigEndian.AppendUint64(out, values[pos])
			consumed = 1
		} else {
			out = binary.BigEndian.AppendUint32(out, word)
		}
		pos += consumed
	}
	return out, nil
}

func (Simple9) Decode(block []byte) ([]uint64, error) {
	if len(block) < 1 || block[0] != byte(MethodSimple9) {
		return nil, corruptErr("Decode", len(block), nil)
	}
	count, n, err := readVarint(block[1:])
	if err != nil {
		return nil, err
	}

	values := make([]uint64, 0, count)
	pos := 1 + n
	for uint64(len(values)) < count {
		if pos+4 > len(block) {
			return nil, corruptErr("Decode", len(block), nil)
		}
		word := binary.BigEndian.Uint32(block[pos:])
		pos += 4

		selector := int(word >> 28)
		if selector == simple9Escape {
			if pos+8 > len(block) {
				return nil, corruptErr("Decode", len(block), nil)
			}
			values = append(values, binary.BigEndian.Uint64(block[pos:]))
			pos += 8
			continue
		}
		if selector >= len(simple9Configs) {
			return nil, corruptErr("Decode", len(block), nil)
		}

		cfg := simple9Configs[selector]
		payload := word & (1<<28 - 1)
		for i := cfg.count - 1; i >= 0 && uint64(len(values)) < count; i-- {
			shift := uint(i * cfg.bits)
			mask := uint32(1<<uint(cfg.bits) - 1)
			values = append(values, uint64((payload>>shift)&mask))
		}
	}

	postings := make([]uint64, len(values))
	prev := uint64(0)
	for i, v := range values {
		prev += v + 1
		postings[i] = prev
	}
	return postings, nil
}

// encodeSimple9Word picks the widest packing that fits as many leading
// values of vals as possible into 28 bits, and returns the packed word
// and how many values it consumed. consumed == 0 signals the caller must
// emit an escape word for vals[0] instead (it doesn't fit even {1,28}).
func encodeSimple9Word(vals []uint64) (word uint32, consumed int) {
	for selector, cfg := range simple9Configs {
		if cfg.count > len(vals) {
			continue
		}
		maxBits := 0
		for i := 0; i < cfg.count; i++ {
			b := valueBits(vals[i])
			if b > maxBits {
				maxBits = b
			}
		}
		if maxBits > cfg.bits {
			continue
		}

		var payload uint32
		for i := 0; i < cfg.count; i++ {
			shift := uint((cfg.count - 1 - i) * cfg.bits)
			payload |= uint32(vals[i]) << shift
		}
		return uint32(selector)<<28 | payload, cfg.count
	}
	return 0, 0
}

// valueBits returns the number of bits needed to represent v, treating 0
// as requiring zero bits (it always fits any packing width).
func valueBits(v uint64) int {
	if v == 0 {
		return 0
	}
	return bitLen(v)
}
