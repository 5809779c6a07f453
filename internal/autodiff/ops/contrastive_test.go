package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// The contrastive ops compute their gradients without a backend.

func TestCrossEntropyOp_BackwardWithoutBackend(t *testing.T) {
	logits := tensor.New([]float32{0, 0, 0, 0}, tensor.Shape{2, 2})
	op := NewCrossEntropyOp(logits, tensor.Zeros(tensor.Shape{1}), []int{0, 1})

	grads := op.Backward(tensor.Ones(tensor.Shape{1}), nil)

	// softmax is 0.5 everywhere; subtract the one-hot target and divide by N.
	assert.InDeltaSlice(t, []float32{-0.25, 0.25, 0.25, -0.25}, grads[0].Data(), 1e-6)
}

func TestL2NormalizeOp_BackwardWithoutBackend(t *testing.T) {
	x := tensor.New([]float32{3, 4}, tensor.Shape{1, 2})
	y := tensor.New([]float32{0.6, 0.8}, tensor.Shape{1, 2})
	op := NewL2NormalizeOp(x, y, 0)

	// A gradient along y itself is projected away.
	grads := op.Backward(tensor.New([]float32{0.6, 0.8}, tensor.Shape{1, 2}), nil)
	assert.InDeltaSlice(t, []float32{0, 0}, grads[0].Data(), 1e-6)

	grads = op.Backward(tensor.New([]float32{1, 0}, tensor.Shape{1, 2}), nil)
	// (g - y<g,y>)/n = ([1,0] - 0.6*[0.6,0.8]) / 5
	assert.InDeltaSlice(t, []float32{0.128, -0.096}, grads[0].Data(), 1e-6)
}
