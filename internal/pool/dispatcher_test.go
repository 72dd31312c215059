package pool

import (
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) func(yield func(int) bool) {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

func TestRun_DeliversEveryResult(t *testing.T) {
	d := Dispatcher[int, int]{
		Workers: 4,
		Work:    func(n int) int { return n * 2 },
	}

	var got []int
	handled := d.Run(seq(100), 100, func(r int) bool {
		got = append(got, r)
		return true
	})

	assert.Equal(t, 100, handled)
	slices.Sort(got)
	for i, v := range got {
		assert.Equal(t, i*2, v)
	}
}

func TestRun_SingleWorkerPreservesOrder(t *testing.T) {
	d := Dispatcher[int, int]{
		Workers: 1,
		Work:    func(n int) int { return n },
	}

	var got []int
	d.Run(seq(10), 10, func(r int) bool {
		got = append(got, r)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestRun_ZeroWorkersFallsBackToOne(t *testing.T) {
	d := Dispatcher[int, int]{
		Work: func(n int) int { return n },
	}
	handled := d.Run(seq(5), 5, func(int) bool { return true })
	assert.Equal(t, 5, handled)
}

func TestRun_StopHaltsSubmission(t *testing.T) {
	var started atomic.Int64
	d := Dispatcher[int, int]{
		Workers: 2,
		Work: func(n int) int {
			started.Add(1)
			return n
		},
	}

	handled := d.Run(seq(10_000), 10_000, func(r int) bool {
		return false
	})

	// Tasks already dispatched still finish and are delivered, but the vast
	// majority of the source is never submitted.
	require.GreaterOrEqual(t, handled, 1)
	assert.Less(t, int(started.Load()), 10_000)
	assert.Equal(t, int(started.Load()), handled)
}

func TestRun_ProgressReported(t *testing.T) {
	var calls []int
	var totals []int
	d := Dispatcher[int, int]{
		Workers: 1,
		Work:    func(n int) int { return n },
		Progress: func(done, total int) {
			calls = append(calls, done)
			totals = append(totals, total)
		},
	}

	d.Run(seq(3), 3, func(int) bool { return true })
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, []int{3, 3, 3}, totals)
}

func TestRun_UnknownTotalPassedThrough(t *testing.T) {
	var sawTotal int
	d := Dispatcher[int, int]{
		Workers:  1,
		Work:     func(n int) int { return n },
		Progress: func(done, total int) { sawTotal = total },
	}
	d.Run(seq(1), UnknownTotal, func(int) bool { return true })
	assert.Equal(t, UnknownTotal, sawTotal)
}

func TestRun_EmptySource(t *testing.T) {
	d := Dispatcher[int, int]{
		Workers: 3,
		Work:    func(n int) int { return n },
	}
	handled := d.Run(seq(0), 0, func(int) bool { return true })
	assert.Equal(t, 0, handled)
}
