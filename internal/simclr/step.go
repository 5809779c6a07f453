package simclr

import (
	"math"

	"github.com/pkg/errors"

	"github.com/patchwork-ml/patchwork/internal/autodiff"
	"github.com/patchwork-ml/patchwork/internal/model"
	"github.com/patchwork-ml/patchwork/internal/optim"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

const (
	normEps = 1e-12
	// maskValue replaces self-similarities so they vanish from the softmax.
	maskValue = -1e9
)

// StepFunc runs one training update on a batch of paired views and returns
// the loss before the update. It is not safe for concurrent use.
type StepFunc func(x *tensor.Tensor, y []int) (float32, error)

// BuildTrainingStep returns the NT-Xent update for m. The model must have
// been built on an autodiff backend.
//
// For every row i the positive is row i+y[i]; every other row in the batch
// is a negative. Embeddings are L2-normalized, cosine similarities are
// divided by temperature, and the loss is the mean softmax cross-entropy
// over the batch.
func BuildTrainingStep(m *model.EmbeddingModel, opt optim.Optimizer, temperature float32) StepFunc {
	return func(x *tensor.Tensor, y []int) (float32, error) {
		if temperature <= 0 {
			return 0, errors.Errorf("temperature must be positive, got %g", temperature)
		}
		backend, ok := m.Backend().(autodiff.BackwardCapable)
		if !ok {
			return 0, errors.Errorf("model backend %s does not record gradients", m.Backend().Name())
		}
		targets, err := PartnerIndices(x, y)
		if err != nil {
			return 0, err
		}

		tape := backend.GetTape()
		tape.Clear()
		tape.StartRecording()
		loss := contrastiveLoss(backend, m.Forward(x), targets, temperature)
		grads := autodiff.Backward(loss, backend)
		tape.StopRecording()
		tape.Clear()

		value := loss.Item()
		if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
			return value, errors.Errorf("non-finite contrastive loss %v", value)
		}

		opt.Step(grads)
		opt.ZeroGrad()
		return value, nil
	}
}

// Loss evaluates the contrastive loss without updating the model.
func Loss(m *model.EmbeddingModel, x *tensor.Tensor, y []int, temperature float32) (float32, error) {
	targets, err := PartnerIndices(x, y)
	if err != nil {
		return 0, err
	}
	if temperature <= 0 {
		return 0, errors.Errorf("temperature must be positive, got %g", temperature)
	}
	return contrastiveLoss(m.Backend(), m.Forward(x), targets, temperature).Item(), nil
}

// PartnerIndices validates a contrastive batch and returns i+y[i] for each row.
func PartnerIndices(x *tensor.Tensor, y []int) ([]int, error) {
	shape := x.Shape()
	if len(shape) == 0 {
		return nil, errors.New("empty batch")
	}
	n := shape[0]
	switch {
	case n == 0 || n%2 != 0:
		return nil, errors.Errorf("contrastive batch needs an even number of rows, got %d", n)
	case len(y) != n:
		return nil, errors.Errorf("got %d pairing labels for %d rows", len(y), n)
	}
	targets := make([]int, n)
	for i, d := range y {
		j := i + d
		if j < 0 || j >= n || j == i {
			return nil, errors.Errorf("row %d: partner index %d out of range [0, %d)", i, j, n)
		}
		targets[i] = j
	}
	return targets, nil
}

// contrastiveLoss computes NT-Xent from raw projections z.
func contrastiveLoss(b tensor.Backend, z *tensor.Tensor, targets []int, temperature float32) *tensor.Tensor {
	zn := b.L2Normalize(z, normEps)
	sim := b.MatMul(zn, b.Transpose(zn))
	sim = b.MulScalar(sim, 1/temperature)
	sim = b.MaskDiagonal(sim, maskValue)
	return b.CrossEntropy(sim, targets)
}
