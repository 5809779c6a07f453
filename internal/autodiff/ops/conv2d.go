package ops

import "github.com/patchwork-ml/patchwork/internal/tensor"

// Conv2DOp records a 2D convolution operation for autodiff.
//
// Forward: output = Conv2D(input, kernel, stride, padding)
//
// Backward (gradients):
//   - d_input:  transposed convolution of d_output with the kernel
//   - d_kernel: correlation of the input with d_output
type Conv2DOp struct {
	input   *tensor.Tensor
	kernel  *tensor.Tensor
	output  *tensor.Tensor
	stride  int
	padding int
}

// NewConv2DOp creates a new Conv2D operation.
func NewConv2DOp(input, kernel, output *tensor.Tensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Inputs returns the input tensors.
func (op *Conv2DOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input, op.kernel}
}

// Output returns the output tensor.
func (op *Conv2DOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for Conv2D by delegating to the backend.
func (op *Conv2DOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	inputGrad := backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	kernelGrad := backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)

	return []*tensor.Tensor{inputGrad, kernelGrad}
}

// MaxPool2DOp records a max pooling operation for autodiff.
// Gradients flow only to the winning element of each window.
type MaxPool2DOp struct {
	input      *tensor.Tensor
	output     *tensor.Tensor
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a new MaxPool2D operation.
func NewMaxPool2DOp(input, output *tensor.Tensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// Inputs returns the input tensor.
func (op *MaxPool2DOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.input} }

// Output returns the pooled tensor.
func (op *MaxPool2DOp) Output() *tensor.Tensor { return op.output }

// Backward routes the gradient to the max positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.MaxPool2DBackward(op.input, outputGrad, op.kernelSize, op.stride)}
}

// GlobalAvgPool2DOp records [N,H,W,C] -> [N,C] spatial averaging.
//
// Backward pass:
//   - d_input[n,h,w,c] = d_output[n,c] / (H*W)
type GlobalAvgPool2DOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor
}

// NewGlobalAvgPool2DOp creates a new GlobalAvgPool2DOp.
func NewGlobalAvgPool2DOp(input, output *tensor.Tensor) *GlobalAvgPool2DOp {
	return &GlobalAvgPool2DOp{input: input, output: output}
}

// Inputs returns the input tensor.
func (op *GlobalAvgPool2DOp) Inputs() []*tensor.Tensor { return []*tensor.Tensor{op.input} }

// Output returns the pooled tensor.
func (op *GlobalAvgPool2DOp) Output() *tensor.Tensor { return op.output }

// Backward spreads each channel gradient evenly over its spatial positions.
func (op *GlobalAvgPool2DOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	shape := op.input.Shape()
	n, hw, c := shape[0], shape[1]*shape[2], shape[3]
	gradInput := tensor.Zeros(shape)
	dst, g := gradInput.Data(), outputGrad.Data()
	scale := 1 / float32(hw)
	for b := 0; b < n; b++ {
		row := g[b*c : (b+1)*c]
		for p := 0; p < hw; p++ {
			px := dst[(b*hw+p)*c : (b*hw+p+1)*c]
			for ch, v := range row {
				px[ch] = v * scale
			}
		}
	}
	return []*tensor.Tensor{gradInput}
}
