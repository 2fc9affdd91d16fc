package posting

// EncodeTF maps a raw document-level term frequency onto one of 2^bits
// buckets using a monotone, saturating step function: bucket i (i >= 1)
// covers the range [2^(i-1), 2^i), so precision falls off logarithmically
// as frequency grows, exactly the tradeoff the document-level side channel
// is built for — a handful of bits that separate "rare in this document"
// from "very common" without tracking exact counts. Frequencies beyond
// what 2^bits-1 buckets can represent saturate at the top bucket rather
// than wrapping.
func EncodeTF(freq uint32, bits int) uint32 {
	maxBucket := uint32(1)<<uint(bits) - 1
	if freq == 0 {
		return 0
	}

	bucket := uint32(bitLen(uint64(freq)))
	if bucket > maxBucket {
		bucket = maxBucket
	}
	return bucket
}

// DecodeTF returns the representative frequency for a bucket produced by
// EncodeTF: the smallest raw frequency that would have mapped to it
// (2^(bucket-1) for bucket > 0, 0 for bucket 0). This is an estimate, not
// an exact inverse — EncodeTF is lossy by design.
func DecodeTF(bucket uint32) uint32 {
	if bucket == 0 {
		return 0
	}
	return uint32(1) << (bucket - 1)
}
