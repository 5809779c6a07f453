package simclr

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/patchwork-ml/patchwork/internal/model"
)

// Trainer runs SimCLR pretraining epochs.
type Trainer struct {
	Model *model.EmbeddingModel
	Step  StepFunc
	Data  *Dataset

	// Logger receives one line per epoch. Nil disables logging.
	Logger *log.Logger
	// Progress receives a per-step progress bar. Nil disables it.
	Progress io.Writer
	// SavePath, if set, receives the weights after every epoch.
	SavePath string
}

// Fit trains for the given number of epochs and returns the mean loss of
// each completed epoch. It stops at the first error, including ctx
// cancellation, returning the losses gathered so far.
func (t *Trainer) Fit(ctx context.Context, epochs int) ([]float32, error) {
	if epochs <= 0 {
		return nil, errors.Errorf("epochs must be positive, got %d", epochs)
	}
	if t.Model == nil || t.Step == nil || t.Data == nil {
		return nil, errors.New("trainer needs a model, a step function and a dataset")
	}

	history := make([]float32, 0, epochs)
	for epoch := 1; epoch <= epochs; epoch++ {
		mean, err := t.runEpoch(ctx, epoch, epochs)
		if err != nil {
			return history, errors.WithMessagef(err, "epoch %d", epoch)
		}
		history = append(history, mean)
		t.logf("epoch %d/%d: loss %.4f", epoch, epochs, mean)

		if t.SavePath != "" {
			if err := t.Model.Save(t.SavePath); err != nil {
				return history, errors.Wrapf(err, "saving weights to %s", t.SavePath)
			}
		}
	}
	return history, nil
}

func (t *Trainer) runEpoch(ctx context.Context, epoch, epochs int) (float32, error) {
	bar := t.newBar(epoch, epochs)
	it := t.Data.Epoch(ctx)
	defer it.Close()

	var sum float32
	var n int
	for {
		batch, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		loss, err := t.Step(batch.Images, batch.Labels)
		if err != nil {
			return 0, errors.WithMessagef(err, "step %d", n+1)
		}
		sum += loss
		n++
		if bar != nil {
			bar.Describe(progressDescription(epoch, epochs, sum/float32(n)))
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if n == 0 {
		return 0, errors.New("dataset produced no batches")
	}
	return sum / float32(n), nil
}

func (t *Trainer) newBar(epoch, epochs int) *progressbar.ProgressBar {
	if t.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(t.Data.Steps(),
		progressbar.OptionSetWriter(t.Progress),
		progressbar.OptionSetDescription(progressDescription(epoch, epochs, 0)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
	)
}

func progressDescription(epoch, epochs int, loss float32) string {
	return fmt.Sprintf("epoch %d/%d loss %.4f", epoch, epochs, loss)
}

func (t *Trainer) logf(format string, args ...any) {
	if t.Logger != nil {
		t.Logger.Printf(format, args...)
	}
}
