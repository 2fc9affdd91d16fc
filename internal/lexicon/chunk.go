package lexicon

import "encoding/binary"

// chunkID names a chunk within the lexicon's flat chunk table. 0 is the
// reserved "no successor" / "no chunk" sentinel, matching the
// reserved-zero convention extent.Posting already uses.
type chunkID uint32

// chunkDesc locates one chunk's bytes: which container it lives in, the
// byte offset of its 4-byte successor prefix, its total size (prefix +
// payload), and how many payload bytes are actually written so far.
// used is authoritative for decoding regardless of whether the chunk is
// still a term's live tail or has since been superseded — a superseded
// chunk's used never changes again, so decodeEntry can read every chunk
// in a chain the same way.
type chunkDesc struct {
	container uint32
	offset    int
	size      int
	used      int
}

const chunkHeaderSize = 4 // successor chunkID, little-endian

// minChunkSize and maxChunkSize bound a chunk's total size (spec §3:
// "initial chunk size is small (≈15 bytes)... grows geometrically... up
// to a cap (≈256 bytes)").
const (
	minChunkSize = 15
	maxChunkSize = 256
)

// allocChunk carves a new chunk of the given total size (header +
// payload) from the active container, rolling over to a fresh container
// when the current one has no room left. The chunk's successor is
// initialized to 0 (none).
func (l *Lexicon) allocChunk(size int) chunkID {
	if size < chunkHeaderSize {
		size = chunkHeaderSize
	}

	cur := l.containers[l.activeContainer]
	offset, ok := cur.alloc(size)
	if !ok {
		l.containers = append(l.containers, newContainer(uint32(len(l.containers))))
		l.activeContainer = len(l.containers) - 1
		cur = l.containers[l.activeContainer]
		offset, ok = cur.alloc(size)
		if !ok {
			// size exceeds a whole container's capacity; grow just for it.
			cur.buf = append(cur.buf, make([]byte, size)...)
			offset = cur.used
			cur.used += size
		}
	}

	binary.LittleEndian.PutUint32(cur.buf[offset:], 0)
	l.chunks = append(l.chunks, chunkDesc{container: cur.id, offset: offset, size: size})
	l.totalBytes += uint64(size)
	return chunkID(len(l.chunks)) // 1-based; 0 stays "none"
}

func (l *Lexicon) chunkDescOf(id chunkID) chunkDesc { return l.chunks[id-1] }

// chunkUsed returns how many payload bytes of id are currently valid.
func (l *Lexicon) chunkUsed(id chunkID) int { return l.chunks[id-1].used }

// setChunkUsed records that id now has used valid payload bytes.
func (l *Lexicon) setChunkUsed(id chunkID, used int) { l.chunks[id-1].used = used }

// setSuccessor links from to its next chunk.
func (l *Lexicon) setSuccessor(from, next chunkID) {
	d := l.chunkDescOf(from)
	c := l.containers[d.container]
	binary.LittleEndian.PutUint32(c.buf[d.offset:], uint32(next))
}

func (l *Lexicon) successorOf(id chunkID) chunkID {
	d := l.chunkDescOf(id)
	c := l.containers[d.container]
	return chunkID(binary.LittleEndian.Uint32(c.buf[d.offset:]))
}

// payload returns the writable/readable span of id, excluding its
// 4-byte successor prefix.
func (l *Lexicon) payload(id chunkID) []byte {
	d := l.chunkDescOf(id)
	c := l.containers[d.container]
	return c.buf[d.offset+chunkHeaderSize : d.offset+d.size]
}

// nextChunkSize computes the geometric growth target for a term's next
// chunk given bytesConsumed so far: roughly a quarter of that, bounded
// to [minChunkSize, maxChunkSize] (spec §4.2 step 3).
func nextChunkSize(bytesConsumed uint32) int {
	size := int(bytesConsumed)/4 + chunkHeaderSize
	if size < minChunkSize {
		size = minChunkSize
	}
	if size > maxChunkSize {
		size = maxChunkSize
	}
	return size
}
