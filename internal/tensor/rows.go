package tensor

import "math"

// Row helpers shared by backend kernels and gradient code.

// RowNorm returns sqrt(sum(v^2) + eps).
func RowNorm(v []float32, eps float32) float32 {
	var ss float64
	for _, x := range v {
		ss += float64(x) * float64(x)
	}
	return float32(math.Sqrt(ss + float64(eps)))
}

// LogSumExp computes log(sum(exp(v))) with max subtraction for stability.
func LogSumExp(v []float32) float64 {
	maxVal := math.Inf(-1)
	for _, x := range v {
		maxVal = math.Max(maxVal, float64(x))
	}
	var sum float64
	for _, x := range v {
		sum += math.Exp(float64(x) - maxVal)
	}
	return maxVal + math.Log(sum)
}

// Softmax writes the softmax of v into dst.
func Softmax(dst, v []float32) {
	lse := LogSumExp(v)
	for i, x := range v {
		dst[i] = float32(math.Exp(float64(x) - lse))
	}
}
