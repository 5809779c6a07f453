package nn

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer over NHWC feature maps.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, out_height, out_width, channels]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
type MaxPool2D struct {
	kernelSize int
	stride     int
	backend    tensor.Backend
}

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D(kernelSize, stride int, backend tensor.Backend) *MaxPool2D {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	return &MaxPool2D{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward performs the forward pass.
func (m *MaxPool2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,H,W,C], got %dD", len(input.Shape())))
	}
	return m.backend.MaxPool2D(input, m.kernelSize, m.stride)
}

// Parameters returns nil (MaxPool2D has no trainable parameters).
func (m *MaxPool2D) Parameters() []*Parameter { return nil }

// StateDict returns an empty map.
func (m *MaxPool2D) StateDict() map[string]*tensor.Tensor { return map[string]*tensor.Tensor{} }

// LoadStateDict is a no-op.
func (m *MaxPool2D) LoadStateDict(map[string]*tensor.Tensor) error { return nil }

// String returns a string representation of the layer.
func (m *MaxPool2D) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d)", m.kernelSize, m.stride)
}

// GlobalAvgPool2D averages each channel over the spatial axes:
// [batch, height, width, channels] -> [batch, channels].
type GlobalAvgPool2D struct {
	backend tensor.Backend
}

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D(backend tensor.Backend) *GlobalAvgPool2D {
	return &GlobalAvgPool2D{backend: backend}
}

// Forward performs the forward pass.
func (g *GlobalAvgPool2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("globalavgpool2d: expected 4D input [N,H,W,C], got %dD", len(input.Shape())))
	}
	return g.backend.GlobalAvgPool2D(input)
}

// Parameters returns nil.
func (g *GlobalAvgPool2D) Parameters() []*Parameter { return nil }

// StateDict returns an empty map.
func (g *GlobalAvgPool2D) StateDict() map[string]*tensor.Tensor { return map[string]*tensor.Tensor{} }

// LoadStateDict is a no-op.
func (g *GlobalAvgPool2D) LoadStateDict(map[string]*tensor.Tensor) error { return nil }
