package posting

import "encoding/binary"

// Null is the escape-hatch codec: postings are stored as raw
// little-endian uint64 values with no gap coding or bit packing at all.
// It exists for incompressible or tiny lists, where any compressor's
// per-block overhead would exceed the savings.
type Null struct{}

func NewNull() *Null { return &Null{} }

func (Null) ID() Method { return MethodNull }

func (Null) Encode(postings []uint64) ([]byte, error) {
	if err := checkMonotone(postings); err != nil {
		return nil, err
	}

	out := make([]byte, 1+len(postings)*8)
	out[0] = byte(MethodNull)
	for i, p := range postings {
		binary.LittleEndian.PutUint64(out[1+i*8:], p)
	}
	return out, nil
}

func (Null) Decode(block []byte) ([]uint64, error) {
	if len(block) < 1 || block[0] != byte(MethodNull) {
		return nil, corruptErr("Decode", len(block), nil)
	}
	body := block[1:]
	if len(body)%8 != 0 {
		return nil, corruptErr("Decode", len(block), nil)
	}

	n := len(body) / 8
	postings := make([]uint64, n)
	for i := 0; i < n; i++ {
		postings[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	return postings, nil
}
