// Package launch is the parallel launcher: it executes a closure over
// every workload index in [0, N) on a worker pool with no ordering
// guarantee, the stand-in for a device kernel launch. Grounded on the
// teacher's CPUCompute.parallelForEachShell channel-of-work worker pool
// (gpu_cpu.go), generalized from "one shell" to "one workload index" and
// switched to errgroup so a panicking worker's failure is observable by
// the caller instead of silently wedging the pool.
package launch

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// AtomicCounter is a 32-bit counter used for output-buffer slot
// reservation (spec.md §5's atomic fetch_add primitive). The zero value
// is a counter starting at 0.
type AtomicCounter struct {
	v int32
}

// FetchAdd atomically adds delta and returns the value from before the
// add (the classic fetch_add semantics kernels rely on to reserve a
// contiguous range of output slots).
func (c *AtomicCounter) FetchAdd(delta int32) int32 {
	return atomic.AddInt32(&c.v, delta) - delta
}

// Load returns the current count.
func (c *AtomicCounter) Load() int32 {
	return atomic.LoadInt32(&c.v)
}

// Store resets the counter to v.
func (c *AtomicCounter) Store(v int32) {
	atomic.StoreInt32(&c.v, v)
}

// ParallelFor runs fn(i) for every i in [0, n) across runtime.NumCPU()
// workers. fn must be idempotent with respect to its own index and must
// not communicate with other workers except through an AtomicCounter or
// disjoint writes (spec.md §5).
func ParallelFor(n int, fn func(workloadIdx int)) {
	ParallelForWorkers(n, runtime.NumCPU(), fn)
}

// ParallelForWorkers is ParallelFor with an explicit worker count, mainly
// so tests can force n=1 (deterministic order) or oversubscribe to shake
// out data races.
func ParallelForWorkers(n, workers int, fn func(workloadIdx int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for idx := range work {
				fn(idx)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return an error; Wait just joins them
}
