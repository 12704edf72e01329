package recognize

import "math"

// Unknown is the label assigned to faces that match no gallery identity
// below the encoder's accept threshold.
const Unknown = "Unknown"

// SignatureIndex is the read side of a trained gallery. Names must be
// returned in a stable order so ties break deterministically.
type SignatureIndex interface {
	Names() []string
	Signatures(name string) []Signature
}

// BestMatch compares the probe against every stored signature of every
// identity and returns the identity with the global minimum distance,
// provided it is below the encoder threshold; otherwise Unknown. With equal
// distances the earlier name in index order wins.
func BestMatch(idx SignatureIndex, enc Encoder, probe Signature) (string, float64) {
	best := Unknown
	bestDist := math.Inf(1)
	for _, name := range idx.Names() {
		for _, known := range idx.Signatures(name) {
			d := enc.Distance(known, probe)
			if d < bestDist {
				bestDist = d
				best = name
			}
		}
	}
	if bestDist >= enc.Threshold() {
		return Unknown, bestDist
	}
	return best, bestDist
}
