package imaging

import (
	"encoding/hex"
	"math"
	"math/bits"
)

// DefaultThreshold is the maximum Hamming distance at which two digests still
// count as a match. 15 on a 256-bit hash is deliberately lenient: recompressed
// and lightly cropped reposts routinely land in the 5-15 range.
const DefaultThreshold = 15

// distanceInf is the distance reported for unparseable or mismatched digests.
// A corrupt component must never be the deciding factor in a comparison.
const distanceInf = math.MaxInt

// HammingDistance counts differing bits between two equal-width hex digests.
// Returns distanceInf when either digest cannot be decoded.
func HammingDistance(a, b string) int {
	if a == "" || len(a) != len(b) {
		return distanceInf
	}
	ab, err := hex.DecodeString(a)
	if err != nil {
		return distanceInf
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		return distanceInf
	}
	d := 0
	for i := range ab {
		d += bits.OnesCount8(ab[i] ^ bb[i])
	}
	return d
}

// IsMatch reports whether two fingerprints are perceptually close. The three
// hash kinds are compared independently and the minimum distance decides:
// each algorithm is susceptible to different distortions, so any single one
// agreeing strongly is sufficient evidence. A threshold of 0 accepts
// identical images only; larger values are more permissive.
func IsMatch(a, b Fingerprint, threshold int) bool {
	d := min(
		HammingDistance(a.PHash, b.PHash),
		HammingDistance(a.DHash, b.DHash),
		HammingDistance(a.AHash, b.AHash),
	)
	return d <= threshold
}
