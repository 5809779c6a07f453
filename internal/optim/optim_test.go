package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwork-ml/patchwork/internal/autodiff"
	"github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/internal/nn"
	"github.com/patchwork-ml/patchwork/internal/optim"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

func newParam(t *testing.T, values ...float32) *nn.Parameter {
	t.Helper()
	data, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	require.NoError(t, err)
	return nn.NewParameter("p", data)
}

func gradsFor(t *testing.T, p *nn.Parameter, values ...float32) map[*tensor.Tensor]*tensor.Tensor {
	t.Helper()
	g, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	require.NoError(t, err)
	return map[*tensor.Tensor]*tensor.Tensor{p.Tensor(): g}
}

func TestSGD_SimpleUpdate(t *testing.T) {
	p := newParam(t, 1, 2, 3)
	sgd := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1})

	sgd.Step(gradsFor(t, p, 0.1, 0.2, 0.3))

	assert.InDeltaSlice(t, []float32{0.99, 1.98, 2.97}, p.Tensor().Data(), 1e-6)
}

func TestSGD_WithMomentum(t *testing.T) {
	p := newParam(t, 1)
	sgd := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	grads := gradsFor(t, p, 1)

	sgd.Step(grads) // v = 1, p = 0.9
	assert.InDelta(t, 0.9, p.Tensor().Data()[0], 1e-6)

	sgd.Step(grads) // v = 1.9, p = 0.71
	assert.InDelta(t, 0.71, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	p := newParam(t, 1, 2)
	sgd := optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{})

	sgd.Step(map[*tensor.Tensor]*tensor.Tensor{})
	assert.Equal(t, []float32{1, 2}, p.Tensor().Data())
	assert.InDelta(t, 0.01, sgd.GetLR(), 1e-9, "default learning rate")
}

func TestSGD_GetSetLR(t *testing.T) {
	sgd := optim.NewSGD(nil, optim.SGDConfig{LR: 0.5})
	assert.InDelta(t, 0.5, sgd.GetLR(), 1e-9)
	sgd.SetLR(0.05)
	assert.InDelta(t, 0.05, sgd.GetLR(), 1e-9)
}

func TestZeroGrad(t *testing.T) {
	p := newParam(t, 1)
	p.SetGrad(tensor.Ones(tensor.Shape{1}))

	for _, opt := range []optim.Optimizer{
		optim.NewSGD([]*nn.Parameter{p}, optim.SGDConfig{}),
		optim.NewAdam([]*nn.Parameter{p}, optim.AdamConfig{}),
	} {
		p.SetGrad(tensor.Ones(tensor.Shape{1}))
		opt.ZeroGrad()
		assert.Nil(t, p.Grad())
	}
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	// With bias correction the first update is lr * sign(g) for any scale of g.
	p := newParam(t, 1, 1)
	adam := optim.NewAdam([]*nn.Parameter{p}, optim.AdamConfig{LR: 0.01})

	adam.Step(gradsFor(t, p, 100, -0.001))

	assert.InDelta(t, 0.99, p.Tensor().Data()[0], 1e-5)
	assert.InDelta(t, 1.01, p.Tensor().Data()[1], 1e-4)
}

func TestAdam_Defaults(t *testing.T) {
	adam := optim.NewAdam(nil, optim.AdamConfig{})
	assert.InDelta(t, 0.001, adam.GetLR(), 1e-9)
}

func TestNew(t *testing.T) {
	p := newParam(t, 1)

	opt, err := optim.New("Adam", []*nn.Parameter{p}, 0.1)
	require.NoError(t, err)
	assert.IsType(t, &optim.Adam{}, opt)

	opt, err = optim.New("sgd", []*nn.Parameter{p}, 0.1)
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD{}, opt)

	_, err = optim.New("rmsprop", nil, 0.1)
	assert.Error(t, err)
}

// TestConvergence_SimpleQuadratic fits y = 2x + 1 with a linear layer.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	for _, name := range []string{"sgd", "adam"} {
		t.Run(name, func(t *testing.T) {
			backend := autodiff.New(cpu.New())
			layer := nn.NewLinear(1, 1, backend)
			opt, err := optim.New(name, layer.Parameters(), 0.05)
			require.NoError(t, err)

			x, err := tensor.FromSlice([]float32{-1, 0, 1, 2}, tensor.Shape{4, 1})
			require.NoError(t, err)
			y, err := tensor.FromSlice([]float32{-1, 1, 3, 5}, tensor.Shape{4, 1})
			require.NoError(t, err)

			loss := func() float32 {
				backend.Tape().Clear()
				backend.Tape().StartRecording()
				diff := backend.Sub(layer.Forward(x), y)
				sq := backend.Reshape(backend.Mul(diff, diff), tensor.Shape{1, 4})
				l := backend.MatMul(sq, tensor.Full(tensor.Shape{4, 1}, 0.25))
				grads := autodiff.Backward(l, backend)
				backend.Tape().StopRecording()
				opt.Step(grads)
				return l.Item()
			}

			first := loss()
			var last float32
			for range 400 {
				last = loss()
			}
			assert.False(t, math.IsNaN(float64(last)))
			assert.Less(t, last, first)
			assert.Less(t, last, float32(0.05))
		})
	}
}
