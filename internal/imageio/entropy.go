package imageio

import "math"

const entropyClip = 1e-8

// ShannonEntropy returns the base-2 entropy of each row of class
// probabilities. Probabilities are clipped to [1e-8, 1-1e-8] so saturated
// predictions stay finite.
func ShannonEntropy(probs [][]float32) []float32 {
	out := make([]float32, len(probs))
	for i, row := range probs {
		var h float64
		for _, p := range row {
			x := math.Min(math.Max(float64(p), entropyClip), 1-entropyClip)
			h -= x * math.Log2(x)
		}
		out[i] = float32(h)
	}
	return out
}
