// Package dataset builds shuffled, batched, lazily loaded image pipelines.
//
// Four composition modes are supported:
//   - Unlabeled: images only
//   - Labeled: images with integer labels
//   - Paired: a labeled (or unlabeled) stream zipped with a cycling
//     unlabeled stream, batch by batch
//   - Stratified: per-class streams oversampled so every batch holds an
//     equal share of each class
//
// Every builder also returns the number of steps in one epoch.
package dataset

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/patchwork-ml/patchwork/internal/augment"
	"github.com/patchwork-ml/patchwork/internal/imageio"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// Sentinel errors returned by the builders.
var (
	ErrEmpty         = errors.New("dataset is empty")
	ErrBatchTooLarge = errors.New("batch size exceeds number of records")
	ErrLabelMismatch = errors.New("labels and paths differ in length")
)

// Record is one image file and its optional label.
type Record struct {
	Path     string
	Label    int
	HasLabel bool
}

// Config describes how records become batches.
type Config struct {
	// Shape is the (height, width) every image is resized to. A zero shape
	// keeps source sizes, which must then agree within a batch.
	Shape [2]int
	// Channels requested from the loader; see imageio.Options.
	Channels int
	// Norm divides raw pixel values. Zero means 255.
	Norm float32
	// BatchSize is the number of records per batch.
	BatchSize int
	// Augment is applied to every loaded image. The zero value is identity.
	Augment augment.Params
	// Views is the number of independently augmented copies of each record
	// placed next to each other in a batch. Zero means one.
	Views int
	// Shuffle reorders records every epoch.
	Shuffle bool
	// Seed drives shuffling and augmentation.
	Seed int64
	// NumWorkers bounds parallel image decoding. Zero uses every CPU.
	NumWorkers int
	// Prefetch is the number of batches prepared ahead of the consumer.
	// Zero means one.
	Prefetch int
	// Cache keeps decoded images in memory after the first load.
	Cache bool
}

// Batch is one step of data.
type Batch struct {
	// Images is [BatchSize*Views, H, W, C].
	Images *tensor.Tensor
	// Labels holds one label per image, or nil for unlabeled batches.
	Labels []int
	// Unlabeled is the zipped unlabeled batch in Paired mode, otherwise nil.
	Unlabeled *tensor.Tensor
	// Paths lists the source file of every row of Images.
	Paths []string
}

type mode int

const (
	modeUnlabeled mode = iota
	modeLabeled
	modePaired
	modeStratified
)

// Dataset is a restartable source of batches. Call Epoch to iterate.
type Dataset struct {
	cfg       Config
	mode      mode
	records   []Record
	unlabeled []Record
	classes   [][]Record
	steps     int

	mu     sync.Mutex
	epochs int64
	cache  map[string]*imageio.Image
}

// Unlabeled builds a dataset of images without labels.
func Unlabeled(paths []string, cfg Config) (*Dataset, int, error) {
	records, err := makeRecords(paths, nil)
	if err != nil {
		return nil, 0, err
	}
	return newDataset(cfg, modeUnlabeled, records, nil, nil, 1)
}

// Labeled builds a dataset of images with one label per path.
func Labeled(paths []string, labels []int, cfg Config) (*Dataset, int, error) {
	if labels == nil {
		return nil, 0, errors.Wrap(ErrLabelMismatch, "labeled dataset needs labels")
	}
	records, err := makeRecords(paths, labels)
	if err != nil {
		return nil, 0, err
	}
	return newDataset(cfg, modeLabeled, records, nil, nil, 1)
}

// Paired zips a primary stream with an unlabeled stream. labels may be nil.
// The unlabeled stream cycles, reshuffled on every pass, so it never ends
// before the primary stream does and may hold fewer files than one batch.
// Steps per epoch follow the primary stream.
func Paired(paths []string, labels []int, unlabeledPaths []string, cfg Config) (*Dataset, int, error) {
	records, err := makeRecords(paths, labels)
	if err != nil {
		return nil, 0, err
	}
	unlabeled, err := makeRecords(unlabeledPaths, nil)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "unlabeled stream")
	}
	return newDataset(cfg, modePaired, records, unlabeled, nil, 1)
}

// Stratified oversamples minority classes so each batch holds the same
// number of records from every class (up to rounding when BatchSize is not
// a multiple of the class count). An epoch is mult*N/BatchSize steps.
func Stratified(paths []string, labels []int, mult int, cfg Config) (*Dataset, int, error) {
	if labels == nil {
		return nil, 0, errors.Wrap(ErrLabelMismatch, "stratified dataset needs labels")
	}
	if mult <= 0 {
		return nil, 0, errors.Errorf("stratified multiplier must be positive, got %d", mult)
	}
	records, err := makeRecords(paths, labels)
	if err != nil {
		return nil, 0, err
	}

	byLabel := make(map[int][]Record)
	for _, r := range records {
		byLabel[r.Label] = append(byLabel[r.Label], r)
	}
	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	classes := make([][]Record, len(keys))
	for i, k := range keys {
		classes[i] = byLabel[k]
	}
	return newDataset(cfg, modeStratified, records, nil, classes, mult)
}

func makeRecords(paths []string, labels []int) ([]Record, error) {
	if len(paths) == 0 {
		return nil, ErrEmpty
	}
	if labels != nil && len(labels) != len(paths) {
		return nil, errors.Wrapf(ErrLabelMismatch, "%d paths, %d labels", len(paths), len(labels))
	}
	records := make([]Record, len(paths))
	for i, p := range paths {
		records[i] = Record{Path: p}
		if labels != nil {
			records[i].Label = labels[i]
			records[i].HasLabel = true
		}
	}
	return records, nil
}

func newDataset(cfg Config, m mode, records, unlabeled []Record, classes [][]Record, mult int) (*Dataset, int, error) {
	if cfg.BatchSize <= 0 {
		return nil, 0, errors.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Shape[0] < 0 || cfg.Shape[1] < 0 || (cfg.Shape[0] == 0) != (cfg.Shape[1] == 0) {
		return nil, 0, errors.Errorf("invalid image shape %v", cfg.Shape)
	}
	if err := cfg.Augment.Validate(); err != nil {
		return nil, 0, err
	}
	if len(records) < cfg.BatchSize {
		return nil, 0, errors.Wrapf(ErrBatchTooLarge, "%d records, batch size %d", len(records), cfg.BatchSize)
	}
	if cfg.Views <= 0 {
		cfg.Views = 1
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	d := &Dataset{
		cfg:       cfg,
		mode:      m,
		records:   records,
		unlabeled: unlabeled,
		classes:   classes,
		steps:     mult * len(records) / cfg.BatchSize,
	}
	if cfg.Cache {
		d.cache = make(map[string]*imageio.Image)
	}
	return d, d.steps, nil
}

// Steps returns the number of batches in one epoch.
func (d *Dataset) Steps() int {
	return d.steps
}

// Len returns the number of records in the primary stream.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Config returns the dataset configuration with defaults filled in.
func (d *Dataset) Config() Config {
	return d.cfg
}
