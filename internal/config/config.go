// Package config loads the YAML run configuration for pretraining.
package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/patchwork-ml/patchwork/internal/augment"
	"github.com/patchwork-ml/patchwork/internal/dataset"
	"github.com/patchwork-ml/patchwork/internal/model"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Config is one pretraining run.
type Config struct {
	ImageDir string `yaml:"image_dir"`
	Output   string `yaml:"output"`

	Shape    [2]int  `yaml:"shape"`
	Channels int     `yaml:"channels"`
	Norm     float32 `yaml:"norm"`

	BatchSize   int     `yaml:"batch_size"`
	Epochs      int     `yaml:"epochs"`
	Temperature float32 `yaml:"temperature"`
	LR          float32 `yaml:"learning_rate"`
	Optimizer   string  `yaml:"optimizer"`
	Seed        int64   `yaml:"seed"`
	Workers     int     `yaml:"workers"`

	Model   ModelConfig    `yaml:"model"`
	Augment map[string]any `yaml:"augment"`
}

// ModelConfig describes the backbone and projection head.
type ModelConfig struct {
	Filters   []int `yaml:"filters"`
	Kernel    int   `yaml:"kernel"`
	Pool      int   `yaml:"pool"`
	HiddenDim int   `yaml:"hidden_dim"`
	OutputDim int   `yaml:"output_dim"`
}

// Defaults returns a configuration that trains a small backbone on
// 64x64 RGB images.
func Defaults() Config {
	return Config{
		Output:      "patchwork.safetensors",
		Shape:       [2]int{64, 64},
		Channels:    3,
		Norm:        255,
		BatchSize:   16,
		Epochs:      10,
		Temperature: 0.5,
		LR:          0.001,
		Optimizer:   "adam",
		Seed:        1,
		Model: ModelConfig{
			Filters:   []int{16, 32, 64},
			Kernel:    3,
			Pool:      2,
			HiddenDim: 128,
			OutputDim: 64,
		},
	}
}

// Load reads a YAML file on top of Defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Overrides holds command-line values. Zero fields leave the config as is.
type Overrides struct {
	ImageDir    string
	Output      string
	BatchSize   int
	Epochs      int
	Temperature float64
	LR          float64
	Optimizer   string
	Seed        int64
	Workers     int
}

// ApplyOverrides copies every non-zero field of o into c.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.ImageDir != "" {
		c.ImageDir = o.ImageDir
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.BatchSize != 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs != 0 {
		c.Epochs = o.Epochs
	}
	if o.Temperature != 0 {
		c.Temperature = float32(o.Temperature)
	}
	if o.LR != 0 {
		c.LR = float32(o.LR)
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Output == "":
		return errors.New("output must name a weights file")
	case c.Shape[0] <= 0 || c.Shape[1] <= 0:
		return errors.Errorf("shape must be positive, got %v", c.Shape)
	case c.Channels <= 0:
		return errors.Errorf("channels must be positive, got %d", c.Channels)
	case c.Norm <= 0:
		return errors.Errorf("norm must be positive, got %g", c.Norm)
	case c.BatchSize <= 0:
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.Epochs <= 0:
		return errors.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.Temperature <= 0:
		return errors.Errorf("temperature must be positive, got %g", c.Temperature)
	case c.LR <= 0:
		return errors.Errorf("learning_rate must be positive, got %g", c.LR)
	case c.Workers < 0:
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch strings.ToLower(c.Optimizer) {
	case "adam", "sgd":
	default:
		return errors.Errorf("unknown optimizer %q", c.Optimizer)
	}
	m := c.Model
	if len(m.Filters) == 0 {
		return errors.New("model.filters must not be empty")
	}
	if m.Kernel <= 0 || m.Kernel%2 == 0 {
		return errors.Errorf("model.kernel must be odd and positive, got %d", m.Kernel)
	}
	if m.Pool <= 0 || m.HiddenDim <= 0 || m.OutputDim <= 0 {
		return errors.Errorf("model.pool, hidden_dim and output_dim must be positive, got %d, %d, %d", m.Pool, m.HiddenDim, m.OutputDim)
	}
	if _, err := c.AugmentParams(); err != nil {
		return err
	}
	return nil
}

// AugmentParams decodes the augment section. An empty section yields the
// zero (identity) parameters.
func (c Config) AugmentParams() (augment.Params, error) {
	if len(c.Augment) == 0 {
		return augment.Params{}, nil
	}
	p, err := augment.FromMap(c.Augment)
	if err != nil {
		return p, errors.WithMessage(err, "augment")
	}
	return p, nil
}

// Dataset returns the loader settings for this run.
func (c Config) Dataset() (dataset.Config, error) {
	aug, err := c.AugmentParams()
	if err != nil {
		return dataset.Config{}, err
	}
	return dataset.Config{
		Shape:      c.Shape,
		Channels:   c.Channels,
		Norm:       c.Norm,
		BatchSize:  c.BatchSize,
		Augment:    aug,
		Shuffle:    true,
		Seed:       c.Seed,
		NumWorkers: c.Workers,
		Prefetch:   2,
	}, nil
}

// BuildModel constructs the embedding model described by c.
func (c Config) BuildModel(backend tensor.Backend) (*model.EmbeddingModel, error) {
	backbone, err := model.NewConvBackbone(c.Channels, c.Model.Filters, c.Model.Kernel, c.Model.Pool, backend)
	if err != nil {
		return nil, errors.WithMessage(err, "building backbone")
	}
	m, err := model.BuildEmbeddingModel(backbone, c.Shape, c.Channels, c.Model.HiddenDim, c.Model.OutputDim, backend)
	if err != nil {
		return nil, errors.WithMessage(err, "building model")
	}
	return m, nil
}
