package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/patchwork-ml/patchwork/internal/backend/cpu"
	"github.com/patchwork-ml/patchwork/internal/config"
	"github.com/patchwork-ml/patchwork/internal/dataset"
	"github.com/patchwork-ml/patchwork/internal/imageio"
	"github.com/patchwork-ml/patchwork/internal/model"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// layerFuncs selects which model output is written.
var layerFuncs = map[string]func(*model.EmbeddingModel, *tensor.Tensor) *tensor.Tensor{
	"features":   (*model.EmbeddingModel).Features,
	"embed":      (*model.EmbeddingModel).Embed,
	"projection": (*model.EmbeddingModel).Forward,
}

func runEmbed(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "YAML configuration the weights were trained with")
	weights := fs.String("weights", "", "Weights file written by pretrain")
	output := fs.String("o", "embeddings.csv", "Output CSV")
	layer := fs.String("layer", "features", "Output: features, embed or projection")
	imageDir := fs.String("images", "", "Embed every image in this directory (in addition to arguments)")
	batch := fs.Int("batch", 32, "Images per forward pass")
	quiet := fs.Bool("quiet", false, "Disable the progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}

	forward, ok := layerFuncs[*layer]
	if !ok {
		return errors.Errorf("unknown layer %q", *layer)
	}
	if *weights == "" {
		return errors.New("-weights is required")
	}
	if *batch <= 0 {
		return errors.Errorf("batch must be positive, got %d", *batch)
	}

	files := fs.Args()
	if *imageDir != "" {
		found, err := dataset.ListImages(*imageDir)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return errors.New("no images to embed")
	}

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	m, err := cfg.BuildModel(cpu.New())
	if err != nil {
		return err
	}
	if err := m.Load(*weights); err != nil {
		return errors.WithMessagef(err, "loading %s", *weights)
	}

	f, err := os.Create(*output)
	if err != nil {
		return errors.Wrapf(err, "creating %s", *output)
	}
	defer f.Close()

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Embedding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
		)
	}

	w := csv.NewWriter(f)
	opts := imageio.Options{Norm: cfg.Norm, Channels: cfg.Channels, Resize: &imageio.Size{Height: cfg.Shape[0], Width: cfg.Shape[1]}}
	for start := 0; start < len(files); start += *batch {
		chunk := files[start:min(start+*batch, len(files))]
		x, err := loadBatch(chunk, opts)
		if err != nil {
			return err
		}
		if err := writeRows(w, chunk, forward(m, x)); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(len(chunk))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "writing %s", *output)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", *output)
	}

	info, err := os.Stat(*output)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintf(out, "wrote %d embeddings to %s (%s)\n", len(files), *output, humanize.Bytes(uint64(info.Size())))
	return nil
}

func loadBatch(paths []string, opts imageio.Options) (*tensor.Tensor, error) {
	items := make([]*tensor.Tensor, len(paths))
	for i, p := range paths {
		img, err := imageio.Load(p, opts)
		if err != nil {
			return nil, err
		}
		items[i] = tensor.New(img.Pix, tensor.Shape{img.Height, img.Width, img.Channels})
	}
	return tensor.Stack(items), nil
}

// writeRows writes one "path,v0,v1,..." row per image.
func writeRows(w *csv.Writer, paths []string, values *tensor.Tensor) error {
	for i, p := range paths {
		row := make([]string, 0, values.Shape()[1]+1)
		row = append(row, p)
		for _, v := range values.Row(i) {
			row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		if err := w.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
