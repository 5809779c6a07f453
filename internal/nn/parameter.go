package nn

import (
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The tensor pointer is stable for the lifetime of the parameter:
// optimizers update its data in place, so gradients returned by
// autodiff.Backward can be looked up with p.Tensor() as the key.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	grad := grads[weight.Tensor()]
type Parameter struct {
	name   string         // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor // The parameter tensor
	grad   *tensor.Tensor // Gradient from the last backward pass
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// CollectGrads stores gradients from a backward pass on each parameter.
// Parameters that did not contribute to the loss get a nil gradient.
func CollectGrads(params []*Parameter, grads map[*tensor.Tensor]*tensor.Tensor) {
	for _, p := range params {
		p.SetGrad(grads[p.Tensor()])
	}
}
