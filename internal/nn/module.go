// Package nn implements neural network modules on top of tensor.Backend.
//
// This package provides the building blocks used by the embedding model:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear: Fully connected layer
//   - Conv2D, MaxPool2D, GlobalAvgPool2D: NHWC image layers
//   - ReLU activation
//   - Sequential: Container for stacking layers
//
// Modules run their math through the backend they were built with. Build
// them with an autodiff.AutodiffBackend to record a gradient tape.
package nn

import (
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(3, 16, 3, 1, 1, true, backend),
//	    nn.NewReLU(backend),
//	    nn.NewGlobalAvgPool2D(backend),
//	    nn.NewLinear(16, 8, backend),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter

	// StateDict returns the module's tensors keyed by parameter name.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict copies values from a state dictionary into the module.
	LoadStateDict(stateDict map[string]*tensor.Tensor) error
}
