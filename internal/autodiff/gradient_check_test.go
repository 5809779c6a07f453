package autodiff

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

type testBackend = *AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() testBackend {
	return New(cpu.NewWithConfig(parallel.Config{Enabled: false}))
}

// project reduces any tensor to a [1,1] scalar as <flatten(x), weights>,
// so non-scalar ops can be checked through the same tape.
func project(b testBackend, x, weights *tensor.Tensor) *tensor.Tensor {
	flat := b.Reshape(x, tensor.Shape{1, x.NumElements()})
	return b.MatMul(flat, weights)
}

// checkGradients compares tape gradients for every input against central
// differences of f.
func checkGradients(t *testing.T, inputs []*tensor.Tensor, f func(b testBackend) *tensor.Tensor) {
	t.Helper()
	b := newTestBackend()

	b.Tape().StartRecording()
	out := f(b)
	grads := Backward(out, b)
	b.Tape().StopRecording()

	eval := func() float64 {
		return float64(f(newTestBackend()).Data()[0])
	}

	const h = 2e-4
	for n, in := range inputs {
		grad, ok := grads[in]
		require.True(t, ok, "no gradient for input %d", n)
		require.True(t, grad.Shape().Equal(in.Shape()), "gradient shape for input %d", n)

		for idx := range in.Data() {
			orig := in.Data()[idx]
			in.Data()[idx] = orig + h
			plus := eval()
			in.Data()[idx] = orig - h
			minus := eval()
			in.Data()[idx] = orig

			numeric := (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, float64(grad.Data()[idx]), 2e-2, "input %d element %d", n, idx)
		}
	}
}

func randn(rng *rand.Rand, shape ...int) *tensor.Tensor {
	return tensor.Randn(tensor.Shape(shape), rng)
}

func TestGradient_AddSubMulBroadcast(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := randn(rng, 3, 4)
	bias := randn(rng, 4)
	c := randn(rng, 3, 4)
	w := randn(rng, 12, 1)

	checkGradients(t, []*tensor.Tensor{a, bias, c}, func(b testBackend) *tensor.Tensor {
		y := b.Mul(b.Sub(b.Add(a, bias), c), c)
		return project(b, b.MulScalar(y, 0.5), w)
	})
}

func TestGradient_MatMulTranspose(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := randn(rng, 2, 3)
	wt := randn(rng, 4, 3)
	proj := randn(rng, 8, 1)

	checkGradients(t, []*tensor.Tensor{x, wt}, func(b testBackend) *tensor.Tensor {
		return project(b, b.MatMul(x, b.Transpose(wt)), proj)
	})
}

func TestGradient_Conv2DPoolReLU(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := randn(rng, 2, 6, 5, 2)
	k := randn(rng, 3, 3, 2, 3)

	// conv (pad 1) -> [2,6,5,3]; relu; maxpool 2/2 -> [2,3,2,3]; avg -> [2,3]
	proj := randn(rng, 6, 1)
	checkGradients(t, []*tensor.Tensor{x, k}, func(b testBackend) *tensor.Tensor {
		y := b.Conv2D(x, k, 1, 1)
		y = b.ReLU(y)
		y = b.MaxPool2D(y, 2, 2)
		return project(b, b.GlobalAvgPool2D(y), proj)
	})
}

func TestGradient_ContrastiveLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	z := randn(rng, 4, 5)
	targets := []int{1, 0, 3, 2}

	checkGradients(t, []*tensor.Tensor{z}, func(b testBackend) *tensor.Tensor {
		n := b.L2Normalize(z, 1e-12)
		s := b.MatMul(n, b.Transpose(n))
		s = b.MulScalar(s, 1/0.5)
		s = b.MaskDiagonal(s, -1e9)
		return b.CrossEntropy(s, targets)
	})
}

func TestTape_RecordingControl(t *testing.T) {
	b := newTestBackend()
	x := tensor.Ones(tensor.Shape{2, 2})

	b.ReLU(x)
	assert.Equal(t, 0, b.Tape().NumOps(), "ops must not be recorded before StartRecording")

	b.Tape().StartRecording()
	b.ReLU(x)
	b.MulScalar(x, 2)
	assert.Equal(t, 2, b.Tape().NumOps())

	b.Tape().Clear()
	assert.Equal(t, 0, b.Tape().NumOps())
	assert.True(t, b.Tape().IsRecording(), "Clear keeps the recording state")
}

func TestTape_AccumulatesReusedTensor(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{3}, tensor.Shape{1, 1})
	require.NoError(t, err)
	y := b.Mul(x, x) // x^2
	grads := Backward(y, b)

	assert.InDelta(t, 6, grads[x].Item(), 1e-6)
}

func TestBackward_PanicsOnEmptyTape(t *testing.T) {
	b := newTestBackend()
	assert.Panics(t, func() { Backward(tensor.Ones(tensor.Shape{1}), b) })
}

func TestAutodiffBackend_Name(t *testing.T) {
	assert.Equal(t, "Autodiff(CPU)", newTestBackend().Name())
}
