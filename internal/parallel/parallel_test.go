package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	order := make([]int, 0, 10)
	For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestFor_Coarse(t *testing.T) {
	seen := make([]int32, 7)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, Coarse(4))

	for i, v := range seen {
		assert.Equal(t, int32(1), v, "item %d", i)
	}
}

func TestForErr_LowestIndexWins(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	err := ForErr(10, func(i int) error {
		switch i {
		case 3:
			return errA
		case 7:
			return errB
		}
		return nil
	}, Coarse(4))
	assert.ErrorIs(t, err, errA)

	assert.NoError(t, ForErr(5, func(int) error { return nil }, Coarse(2)))
}
