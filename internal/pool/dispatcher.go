// Package pool runs per-record tasks across a fixed set of workers and
// delivers results in completion order. Workers receive read-only task
// values and share no mutable state with each other; failures are carried
// as result values, so the pool always drains every submitted task.
package pool

import (
	"iter"
	"sync"
)

// UnknownTotal is passed as the total when no pre-count was taken.
const UnknownTotal = -1

// ProgressFunc receives the running completion count. total is UnknownTotal
// when the source was not pre-counted.
type ProgressFunc func(done, total int)

// Dispatcher maps a lazy task sequence onto a fixed worker pool.
type Dispatcher[T, R any] struct {
	Workers  int
	Work     func(T) R
	Progress ProgressFunc
}

// Run feeds tasks to the pool and invokes handle once per completed task, on
// the calling goroutine, in completion order (not submission order). If
// handle returns false, no further tasks are submitted; tasks already
// dispatched still finish and are delivered. Run returns the number of
// results handled.
func (d *Dispatcher[T, R]) Run(tasks iter.Seq[T], total int, handle func(R) bool) int {
	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}

	taskCh := make(chan T)
	results := make(chan R)
	stop := make(chan struct{})
	var stopOnce sync.Once

	// Feeder: consumes the lazy source in the coordinating goroutine's
	// stead, keeping memory bounded regardless of tree size.
	go func() {
		defer close(taskCh)
		for t := range tasks {
			select {
			case taskCh <- t:
			case <-stop:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for t := range taskCh {
				results <- d.Work(t)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		if d.Progress != nil {
			d.Progress(done, total)
		}
		if !handle(r) {
			stopOnce.Do(func() { close(stop) })
		}
	}
	return done
}
