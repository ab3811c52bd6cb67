package gas

// defaultComputationBuckets mirrors the protocol's step function for
// rounding raw computation cost up to a small number of discrete buckets,
// which keeps transactions with near-identical cost charging identical
// gas (spec.md §4.5 "bucketized computation (rounded up to the nearest
// protocol-defined bucket)").
var defaultComputationBuckets = []uint64{
	1_000, 5_000, 10_000, 20_000, 50_000, 100_000, 200_000, 500_000, 1_000_000,
}

// BucketizeComputation rounds raw up to the smallest bucket boundary
// that is >= raw, clamped at maxBucket. A raw value of 0 stays 0.
func BucketizeComputation(raw, maxBucket uint64) uint64 {
	if raw == 0 {
		return 0
	}
	for _, b := range defaultComputationBuckets {
		if b > maxBucket {
			break
		}
		if raw <= b {
			return b
		}
	}
	return maxBucket
}
