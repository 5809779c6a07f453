// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp, SubOp, MulOp, MulScalarOp: element-wise arithmetic with row broadcasting
//   - MatMulOp, TransposeOp, ReshapeOp: matrix and shape operations
//   - ReLUOp: rectified linear unit
//   - Conv2DOp, MaxPool2DOp, GlobalAvgPool2DOp: NHWC feature-map operations
//   - L2NormalizeOp, MaskDiagonalOp, CrossEntropyOp: the contrastive loss pieces
package ops

import "github.com/patchwork-ml/patchwork/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}
