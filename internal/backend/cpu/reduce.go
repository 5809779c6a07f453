package cpu

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// GlobalAvgPool2D averages each channel over the spatial dimensions.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, channels]
func (cpu *CPUBackend) GlobalAvgPool2D(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("global_avg_pool2d: expected 4D input [N,H,W,C], got %dD", len(shape)))
	}
	n, hw, c := shape[0], shape[1]*shape[2], shape[3]
	out := tensor.Zeros(tensor.Shape{n, c})
	src, dst := input.Data(), out.Data()
	scale := 1 / float32(hw)
	for b := 0; b < n; b++ {
		row := dst[b*c : (b+1)*c]
		base := b * hw * c
		for p := 0; p < hw; p++ {
			px := src[base+p*c : base+(p+1)*c]
			for ch, v := range px {
				row[ch] += v
			}
		}
		for ch := range row {
			row[ch] *= scale
		}
	}
	return out
}

// L2Normalize divides every row of a [N, D] matrix by sqrt(sum(x^2) + eps).
func (cpu *CPUBackend) L2Normalize(x *tensor.Tensor, eps float32) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("l2_normalize: expected 2D input, got shape %v", shape))
	}
	out := tensor.Zeros(shape)
	for i := 0; i < shape[0]; i++ {
		src, dst := x.Row(i), out.Row(i)
		norm := tensor.RowNorm(src, eps)
		for j, v := range src {
			dst[j] = v / norm
		}
	}
	return out
}

// MaskDiagonal copies a square matrix and overwrites its diagonal with value.
func (cpu *CPUBackend) MaskDiagonal(x *tensor.Tensor, value float32) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		panic(fmt.Sprintf("mask_diagonal: expected square matrix, got shape %v", shape))
	}
	out := x.Clone()
	n := shape[0]
	dst := out.Data()
	for i := 0; i < n; i++ {
		dst[i*n+i] = value
	}
	return out
}

// CrossEntropy computes mean(logsumexp(logits_i) - logits_i[target_i]).
// Returns a tensor of shape [1].
func (cpu *CPUBackend) CrossEntropy(logits *tensor.Tensor, targets []int) *tensor.Tensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: expected 2D logits [N,K], got shape %v", shape))
	}
	n, k := shape[0], shape[1]
	if len(targets) != n {
		panic(fmt.Sprintf("cross_entropy: %d targets for %d rows", len(targets), n))
	}

	var total float64
	for i := 0; i < n; i++ {
		target := targets[i]
		if target < 0 || target >= k {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0,%d)", target, k))
		}
		row := logits.Row(i)
		total += tensor.LogSumExp(row) - float64(row[target])
	}
	return tensor.Full(tensor.Shape{1}, float32(total/float64(n)))
}
