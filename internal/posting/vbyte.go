package posting

// VByte is the default codec: each d-gap (first posting stored absolute,
// subsequent postings stored as the gap from the previous one) is encoded
// as a little-endian base-128 varint, 7 bits of payload per byte with the
// high bit marking continuation. It is the fallback every other codec is
// measured against: simple, branch-light, and good enough for most
// real-world gap distributions.
type VByte struct{}

func NewVByte() *VByte { return &VByte{} }

func (VByte) ID() Method { return MethodVByte }

func (VByte) Encode(postings []uint64) ([]byte, error) {
	if err := checkMonotone(postings); err != nil {
		return nil, err
	}

	out := make([]byte, 1, 1+len(postings)*2)
	out[0] = byte(MethodVByte)

	prev := uint64(0)
	for _, p := range postings {
		gap := p - prev
		out = appendVarint(out, gap)
		prev = p
	}
	return out, nil
}

func (VByte) Decode(block []byte) ([]uint64, error) {
	if len(block) < 1 || block[0] != byte(MethodVByte) {
		return nil, corruptErr("Decode", len(block), nil)
	}

	postings := make([]uint64, 0, len(block))
	pos := 1
	prev := uint64(0)
	for pos < len(block) {
		gap, n, err := readVarint(block[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		prev += gap
		postings = append(postings, prev)
	}
	return postings, nil
}

// appendVarint appends v's base-128 varint encoding to dst.
func appendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// readVarint decodes a base-128 varint from the front of buf, returning
// the value and the number of bytes consumed.
func readVarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, b := range buf {
		if shift >= 64 {
			return 0, 0, corruptErr("readVarint", len(buf), nil)
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, corruptErr("readVarint", len(buf), nil)
}
