package model

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/nn"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// NewConvBackbone builds a fully convolutional feature extractor: one
// same-padded Conv2D+ReLU block per entry of filters, with max pooling
// between blocks.
//
// Example:
//
//	backbone := model.NewConvBackbone(3, []int{16, 32}, 3, 2, backend)
func NewConvBackbone(channels int, filters []int, kernel, poolSize int, backend tensor.Backend) (*nn.Sequential, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("backbone needs at least one conv block")
	}
	if kernel <= 0 || kernel%2 == 0 {
		return nil, fmt.Errorf("kernel size must be odd and positive, got %d", kernel)
	}
	if poolSize < 1 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}

	seq := nn.NewSequential()
	in := channels
	for i, f := range filters {
		if f <= 0 {
			return nil, fmt.Errorf("filter count %d at block %d must be positive", f, i)
		}
		seq.Add(nn.NewConv2D(in, f, kernel, 1, kernel/2, true, backend))
		seq.Add(nn.NewReLU(backend))
		if poolSize > 1 && i < len(filters)-1 {
			seq.Add(nn.NewMaxPool2D(poolSize, poolSize, backend))
		}
		in = f
	}
	return seq, nil
}
