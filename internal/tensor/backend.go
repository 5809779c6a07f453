package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Feature maps are NHWC ([batch, height, width, channels]) and convolution
// kernels are [kernel_h, kernel_w, in_channels, out_channels].
//
// Implementations:
//   - cpu.CPUBackend: pure Go kernels
//   - autodiff.AutodiffBackend: decorator that records a gradient tape
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string

	// Element-wise binary operations.
	// Add and Sub accept b with the same shape as a, or b shaped like
	// a's trailing dimension ([n] or [1, n]) broadcast over the leading axes.
	Add(a, b *Tensor) *Tensor
	Sub(a, b *Tensor) *Tensor
	Mul(a, b *Tensor) *Tensor
	MulScalar(x *Tensor, scalar float32) *Tensor

	// Matrix operations
	MatMul(a, b *Tensor) *Tensor // [M, K] @ [K, N] -> [M, N]
	Transpose(x *Tensor) *Tensor // [M, N] -> [N, M]
	Reshape(x *Tensor, shape Shape) *Tensor

	// Activation functions
	ReLU(x *Tensor) *Tensor

	// Convolutional operations
	Conv2D(input, kernel *Tensor, stride, padding int) *Tensor
	Conv2DInputBackward(input, kernel, grad *Tensor, stride, padding int) *Tensor
	Conv2DKernelBackward(input, kernel, grad *Tensor, stride, padding int) *Tensor
	MaxPool2D(input *Tensor, kernelSize, stride int) *Tensor
	MaxPool2DBackward(input, grad *Tensor, kernelSize, stride int) *Tensor

	// GlobalAvgPool2D averages each channel over height and width:
	// [N, H, W, C] -> [N, C].
	GlobalAvgPool2D(input *Tensor) *Tensor

	// L2Normalize scales every row of a [N, D] matrix to unit length.
	// eps keeps all-zero rows finite.
	L2Normalize(x *Tensor, eps float32) *Tensor

	// MaskDiagonal returns a copy of a square matrix with the diagonal set to value.
	MaskDiagonal(x *Tensor, value float32) *Tensor

	// CrossEntropy computes the mean softmax cross-entropy of [N, K] logits
	// against integer targets. Returns a single-element tensor.
	CrossEntropy(logits *Tensor, targets []int) *Tensor
}
