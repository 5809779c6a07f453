package dataset

import (
	"context"
	"io"
	"math/rand"
)

type result struct {
	batch *Batch
	err   error
}

// Iterator yields the batches of one epoch.
type Iterator struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results <-chan result
	err     error
}

// Epoch starts a new pass over the dataset. Batches are assembled in a
// background goroutine at most Prefetch batches ahead of the consumer.
// Each call reshuffles; epochs are reproducible for a fixed Seed.
//
// Callers that stop before io.EOF must call Close.
func (d *Dataset) Epoch(ctx context.Context) *Iterator {
	d.mu.Lock()
	epoch := d.epochs
	d.epochs++
	d.mu.Unlock()

	//nolint:gosec // shuffling, not security-critical
	rng := rand.New(rand.NewSource(d.cfg.Seed*1_000_003 + epoch))
	steps := d.plan(rng)
	seed := rng.Int63()

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan result, d.cfg.Prefetch)
	go d.produce(ctx, steps, seed, out)

	return &Iterator{ctx: ctx, cancel: cancel, results: out}
}

func (d *Dataset) produce(ctx context.Context, steps []step, seed int64, out chan<- result) {
	defer close(out)
	for i, s := range steps {
		if ctx.Err() != nil {
			return
		}
		batch, err := d.loadStep(ctx, s, seed+int64(i)<<20)
		select {
		case out <- result{batch: batch, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// Next returns the next batch, io.EOF once the epoch is exhausted, or the
// context error if the iterator was cancelled.
func (it *Iterator) Next() (*Batch, error) {
	if it.err != nil {
		return nil, it.err
	}
	r, ok := <-it.results
	switch {
	case !ok:
		if err := it.ctx.Err(); err != nil {
			it.err = err
		} else {
			it.err = io.EOF
		}
		it.cancel()
	case r.err != nil:
		it.err = r.err
		it.cancel()
	default:
		return r.batch, nil
	}
	return nil, it.err
}

// Close stops the producer and releases its resources.
func (it *Iterator) Close() {
	it.cancel()
	for range it.results {
	}
	if it.err == nil {
		it.err = io.EOF
	}
}
