package dataset

import (
	"math/rand"
)

// step lists the records behind one batch.
type step struct {
	primary   []Record
	unlabeled []Record
}

// cycle hands out records forever, starting a fresh (optionally shuffled)
// pass whenever the previous one is used up.
type cycle struct {
	records []Record
	order   []int
	pos     int
	rng     *rand.Rand
	shuffle bool
}

func newCycle(records []Record, rng *rand.Rand, shuffle bool) *cycle {
	c := &cycle{records: records, rng: rng, shuffle: shuffle}
	c.reset()
	return c
}

func (c *cycle) reset() {
	c.order = ordering(len(c.records), c.rng, c.shuffle)
	c.pos = 0
}

func (c *cycle) next() Record {
	if c.pos == len(c.order) {
		c.reset()
	}
	r := c.records[c.order[c.pos]]
	c.pos++
	return r
}

func ordering(n int, rng *rand.Rand, shuffle bool) []int {
	if shuffle {
		return rng.Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// plan lays out every batch of one epoch. The trailing partial batch of
// the primary stream is dropped.
func (d *Dataset) plan(rng *rand.Rand) []step {
	b := d.cfg.BatchSize
	steps := make([]step, d.steps)

	switch d.mode {
	case modeStratified:
		streams := make([]*cycle, len(d.classes))
		for i, recs := range d.classes {
			streams[i] = newCycle(recs, rng, d.cfg.Shuffle)
		}
		for s := range steps {
			batch := make([]Record, b)
			for j := range batch {
				batch[j] = streams[j%len(streams)].next()
			}
			if d.cfg.Shuffle {
				rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
			}
			steps[s].primary = batch
		}

	default:
		order := ordering(len(d.records), rng, d.cfg.Shuffle)
		for s := range steps {
			batch := make([]Record, b)
			for j, idx := range order[s*b : (s+1)*b] {
				batch[j] = d.records[idx]
			}
			steps[s].primary = batch
		}
		if d.mode == modePaired {
			stream := newCycle(d.unlabeled, rng, d.cfg.Shuffle)
			for s := range steps {
				batch := make([]Record, b)
				for j := range batch {
					batch[j] = stream.next()
				}
				steps[s].unlabeled = batch
			}
		}
	}
	return steps
}
