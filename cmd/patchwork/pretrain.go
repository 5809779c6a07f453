package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/patchwork-ml/patchwork/internal/autodiff"
	"github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/internal/config"
	"github.com/patchwork-ml/patchwork/internal/dataset"
	"github.com/patchwork-ml/patchwork/internal/optim"
	"github.com/patchwork-ml/patchwork/internal/simclr"
)

func runPretrain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pretrain", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "YAML run configuration (defaults apply when empty)")
	var o config.Overrides
	fs.StringVar(&o.ImageDir, "images", "", "Directory of training images")
	fs.StringVar(&o.Output, "o", "", "Output weights file (.safetensors)")
	fs.IntVar(&o.BatchSize, "batch", 0, "Files per batch (each contributes two views)")
	fs.IntVar(&o.Epochs, "epochs", 0, "Number of training epochs")
	fs.Float64Var(&o.Temperature, "temperature", 0, "Contrastive softmax temperature")
	fs.Float64Var(&o.LR, "lr", 0, "Learning rate")
	fs.StringVar(&o.Optimizer, "optimizer", "", "Optimizer: adam or sgd")
	fs.Int64Var(&o.Seed, "seed", 0, "Random seed")
	fs.IntVar(&o.Workers, "workers", 0, "Image decoding workers (0 = all CPUs)")
	quiet := fs.Bool("quiet", false, "Disable the progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ImageDir == "" {
		return errors.New("no image directory: set image_dir or pass -images")
	}

	paths, err := dataset.ListImages(cfg.ImageDir)
	if err != nil {
		return err
	}
	log.Printf("found %d images in %s", len(paths), cfg.ImageDir)

	dcfg, err := cfg.Dataset()
	if err != nil {
		return err
	}
	data, steps, err := simclr.BuildDataset(paths, dcfg)
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	model, err := cfg.BuildModel(backend)
	if err != nil {
		return err
	}
	opt, err := optim.New(cfg.Optimizer, model.Parameters(), cfg.LR)
	if err != nil {
		return err
	}
	log.Printf("model: %d parameter tensors, %d-d features, %d-d projection", len(model.Parameters()), model.FeatureDim(), model.OutputDim())
	log.Printf("training %d epochs of %d steps, %d images per step", cfg.Epochs, steps, data.BatchSize())

	trainer := &simclr.Trainer{
		Model:    model,
		Step:     simclr.BuildTrainingStep(model, opt, cfg.Temperature),
		Data:     data,
		Logger:   log.Default(),
		SavePath: cfg.Output,
	}
	if !*quiet {
		trainer.Progress = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	history, err := trainer.Fit(ctx, cfg.Epochs)
	if err != nil {
		return err
	}

	info, err := os.Stat(cfg.Output)
	if err != nil {
		return errors.Wrap(err, "checking saved weights")
	}
	fmt.Fprintf(out, "final loss %.4f after %s\n", history[len(history)-1], time.Since(start).Round(time.Second))
	fmt.Fprintf(out, "weights saved to %s (%s)\n", cfg.Output, humanize.Bytes(uint64(info.Size())))
	return nil
}
