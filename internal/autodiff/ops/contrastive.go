package ops

import (
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// L2NormalizeOp represents row-wise normalization: y_i = x_i / ||x_i||.
//
// Backward pass, with n = sqrt(sum(x_i^2) + eps):
//   - dx_i = (g_i - y_i * <g_i, y_i>) / n
type L2NormalizeOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
	eps    float32
}

// NewL2NormalizeOp creates a new L2NormalizeOp.
func NewL2NormalizeOp(input, output *tensor.Tensor, eps float32) *L2NormalizeOp {
	return &L2NormalizeOp{input: input, output: output, eps: eps}
}

// Backward computes the input gradient of the normalization.
func (op *L2NormalizeOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	rows := op.input.Shape()[0]
	gradInput := tensor.Zeros(op.input.Shape())
	for i := 0; i < rows; i++ {
		x, y, g, dst := op.input.Row(i), op.output.Row(i), outputGrad.Row(i), gradInput.Row(i)
		norm := tensor.RowNorm(x, op.eps)
		var dot float32
		for j := range g {
			dot += g[j] * y[j]
		}
		for j := range dst {
			dst[j] = (g[j] - y[j]*dot) / norm
		}
	}
	return []*tensor.Tensor{gradInput}
}

// Inputs returns [x].
func (op *L2NormalizeOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.input} }

// Output returns the normalized rows.
func (op *L2NormalizeOp) Output() *tensor.Tensor { return op.output }

// MaskDiagonalOp overwrites the diagonal of a square matrix with a constant.
// The masked entries receive no gradient.
type MaskDiagonalOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

// NewMaskDiagonalOp creates a new MaskDiagonalOp.
func NewMaskDiagonalOp(input, output *tensor.Tensor) *MaskDiagonalOp {
	return &MaskDiagonalOp{input: input, output: output}
}

// Backward passes the gradient through everywhere except the diagonal.
func (op *MaskDiagonalOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	gradInput := outputGrad.Clone()
	n := op.input.Shape()[0]
	dst := gradInput.Data()
	for i := 0; i < n; i++ {
		dst[i*n+i] = 0
	}
	return []*tensor.Tensor{gradInput}
}

// Inputs returns [x].
func (op *MaskDiagonalOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.input} }

// Output returns the masked matrix.
func (op *MaskDiagonalOp) Output() *tensor.Tensor { return op.output }

// CrossEntropyOp records mean softmax cross-entropy over integer targets.
//
// Backward pass:
//   - d_logits[i] = (softmax(logits[i]) - onehot(target[i])) * d_loss / N
type CrossEntropyOp struct {
	logits  *tensor.Tensor
	output  *tensor.Tensor
	targets []int
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, output *tensor.Tensor, targets []int) *CrossEntropyOp {
	t := make([]int, len(targets))
	copy(t, targets)
	return &CrossEntropyOp{logits: logits, output: output, targets: t}
}

// Backward computes the logits gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	n := op.logits.Shape()[0]
	scale := outputGrad.Data()[0] / float32(n)
	gradInput := tensor.Zeros(op.logits.Shape())
	for i := 0; i < n; i++ {
		dst := gradInput.Row(i)
		tensor.Softmax(dst, op.logits.Row(i))
		dst[op.targets[i]] -= 1
		for j := range dst {
			dst[j] *= scale
		}
	}
	return []*tensor.Tensor{gradInput}
}

// Inputs returns [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.logits} }

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.Tensor { return op.output }
