package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

func mustTensor(t *testing.T, data []float32, shape ...int) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape(shape))
	require.NoError(t, err)
	return x
}

func TestCPUBackend_Name(t *testing.T) {
	assert.Equal(t, "CPU", New().Name())
}

func TestCPUBackend_AddBroadcast(t *testing.T) {
	backend := New()
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := mustTensor(t, []float32{10, 20, 30}, 1, 3)

	got := backend.Add(a, b)
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Data())

	same := backend.Sub(a, a)
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, same.Data())

	assert.Panics(t, func() { backend.Add(a, mustTensor(t, []float32{1, 2}, 2)) })
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := mustTensor(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	got := backend.MatMul(a, b)
	assert.True(t, got.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{58, 64, 139, 154}, got.Data())

	assert.Panics(t, func() { backend.MatMul(a, a) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	got := backend.Transpose(a)
	assert.True(t, got.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, got.Data())
}

func TestCPUBackend_ReLU(t *testing.T) {
	got := New().ReLU(mustTensor(t, []float32{-1, 0, 2}, 3))
	assert.Equal(t, []float32{0, 0, 2}, got.Data())
}

func TestCPUBackend_Conv2DIdentityKernel(t *testing.T) {
	backend := New()
	input := tensor.Randn(tensor.Shape{2, 4, 5, 3}, nil)

	// 1x1 kernel that copies channel c to output channel c.
	kernel := tensor.Zeros(tensor.Shape{1, 1, 3, 3})
	for c := 0; c < 3; c++ {
		kernel.Set(1, 0, 0, c, c)
	}

	got := backend.Conv2D(input, kernel, 1, 0)
	require.True(t, got.Shape().Equal(input.Shape()))
	assert.InDeltaSlice(t, input.Data(), got.Data(), 1e-6)
}

func TestCPUBackend_Conv2DPaddingStride(t *testing.T) {
	backend := New()
	input := tensor.Ones(tensor.Shape{1, 4, 4, 1})
	kernel := tensor.Ones(tensor.Shape{3, 3, 1, 1})

	got := backend.Conv2D(input, kernel, 2, 1)
	require.True(t, got.Shape().Equal(tensor.Shape{1, 2, 2, 1}))
	// Top-left window overlaps the padding on two sides: 2x2 ones.
	assert.Equal(t, float32(4), got.At(0, 0, 0, 0))
	assert.Equal(t, float32(9), got.At(0, 1, 1, 0))
}

// TestConv2DBackward_MatchesFiniteDifference checks both conv gradients
// against central differences of sum(conv(x, k) * g).
func TestConv2DBackward_MatchesFiniteDifference(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: false})
	input := tensor.Randn(tensor.Shape{2, 5, 4, 2}, nil)
	kernel := tensor.Randn(tensor.Shape{3, 2, 2, 3}, nil)
	out := backend.Conv2D(input, kernel, 1, 1)
	grad := tensor.Randn(out.Shape(), nil)

	objective := func() float64 {
		y := backend.Conv2D(input, kernel, 1, 1)
		var s float64
		for i, v := range y.Data() {
			s += float64(v) * float64(grad.Data()[i])
		}
		return s
	}

	gIn := backend.Conv2DInputBackward(input, kernel, grad, 1, 1)
	gK := backend.Conv2DKernelBackward(input, kernel, grad, 1, 1)

	check := func(name string, x *tensor.Tensor, analytic *tensor.Tensor) {
		const h = 1e-2
		for _, idx := range []int{0, 3, x.NumElements() / 2, x.NumElements() - 1} {
			orig := x.Data()[idx]
			x.Data()[idx] = orig + h
			plus := objective()
			x.Data()[idx] = orig - h
			minus := objective()
			x.Data()[idx] = orig
			numeric := (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, float64(analytic.Data()[idx]), 1e-2, "%s[%d]", name, idx)
		}
	}
	check("input", input, gIn)
	check("kernel", kernel, gK)
}

func TestCPUBackend_MaxPool2D(t *testing.T) {
	backend := New()
	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := mustTensor(t, data, 1, 4, 4, 1)

	got := backend.MaxPool2D(input, 2, 2)
	assert.Equal(t, []float32{6, 8, 14, 16}, got.Data())

	grad := mustTensor(t, []float32{1, 2, 3, 4}, 1, 2, 2, 1)
	back := backend.MaxPool2DBackward(input, grad, 2, 2)
	assert.Equal(t, float32(1), back.At(0, 1, 1, 0))
	assert.Equal(t, float32(4), back.At(0, 3, 3, 0))
	assert.Equal(t, float32(0), back.At(0, 0, 0, 0))
}

func TestCPUBackend_GlobalAvgPool2D(t *testing.T) {
	input := mustTensor(t, []float32{
		1, 10, 2, 20,
		3, 30, 4, 40,
	}, 1, 2, 2, 2)
	got := New().GlobalAvgPool2D(input)
	assert.True(t, got.Shape().Equal(tensor.Shape{1, 2}))
	assert.InDeltaSlice(t, []float32{2.5, 25}, got.Data(), 1e-6)
}

func TestCPUBackend_L2Normalize(t *testing.T) {
	got := New().L2Normalize(mustTensor(t, []float32{3, 4, 0, 0}, 2, 2), 1e-12)
	assert.InDeltaSlice(t, []float32{0.6, 0.8, 0, 0}, got.Data(), 1e-5)
}

func TestCPUBackend_MaskDiagonal(t *testing.T) {
	x := mustTensor(t, []float32{1, 2, 3, 4}, 2, 2)
	got := New().MaskDiagonal(x, -9)
	assert.Equal(t, []float32{-9, 2, 3, -9}, got.Data())
	assert.Equal(t, float32(1), x.At(0, 0), "input must not change")
}

func TestCPUBackend_CrossEntropy(t *testing.T) {
	logits := mustTensor(t, []float32{0, 0, 0, 0, 100, 0}, 2, 3)
	got := New().CrossEntropy(logits, []int{0, 1})

	// Row 0: uniform over 3 classes -> ln(3). Row 1: confident and right -> ~0.
	assert.InDelta(t, math.Log(3)/2, float64(got.Item()), 1e-5)
	assert.Panics(t, func() { New().CrossEntropy(logits, []int{0, 3}) })
}
