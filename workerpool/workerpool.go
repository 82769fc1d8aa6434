// Copyright 2025 The go-extsort Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a fixed-size worker pool built for recursive
// fork/join work. A Pool is created once and shared by every level of a
// recursion: callers submit the left half of a problem as a job, compute the
// right half inline and then wait on the job's Future.
//
// Usage:
//
//	pool := workerpool.New(runtime.NumCPU())
//	defer pool.Close()
//
//	left, ok := workerpool.TryGo(pool, func() ([]int, error) {
//	    return sortHalf(data[:mid]), nil
//	})
//	if !ok {
//	    // No worker free: do everything inline.
//	}
//
// Admission control comes in two flavours. IsAvailable and AvailableWorkers
// are cheap, racy hints. TryGo checks and enqueues under the pool lock and
// only accepts a job when an idle worker is reserved for it, so jobs that
// themselves fork through TryGo can never wait on a job that has no worker.
package workerpool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by futures of jobs submitted after Close began.
var ErrClosed = errors.New("workerpool: pool is closed")

// Pool is a fixed set of workers draining one shared FIFO job queue.
type Pool struct {
	numWorkers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	idle   int
	closed bool

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a pool with numWorkers workers. Workers are spawned immediately
// and persist until Close is called. numWorkers must be positive.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		panic(fmt.Sprintf("workerpool: New called with %d workers", numWorkers))
	}

	p := &Pool{
		numWorkers: numWorkers,
		idle:       numWorkers,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(numWorkers)
	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each worker goroutine. It exits once the pool
// is closed and the queue is drained.
func (p *Pool) worker() {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}

		fn := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.idle--
		p.mu.Unlock()

		fn()

		p.mu.Lock()
		p.idle++
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	if p == nil {
		return 0
	}
	return p.numWorkers
}

// AvailableWorkers returns the number of idle workers not already claimed by
// a queued job. The value may be stale by the time the caller acts on it.
func (p *Pool) AvailableWorkers() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableLocked()
}

// IsAvailable reports whether AvailableWorkers() > 0.
func (p *Pool) IsAvailable() bool {
	return p.AvailableWorkers() > 0
}

func (p *Pool) availableLocked() int {
	if p.closed {
		return 0
	}
	return max(p.idle-len(p.queue), 0)
}

// Close stops accepting new jobs, runs every job already queued and waits for
// all workers to exit. Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// enqueue appends fn to the queue. If reserve is set, fn is only accepted when
// an unclaimed idle worker exists.
func (p *Pool) enqueue(fn func(), reserve bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || (reserve && p.availableLocked() == 0) {
		return false
	}
	p.queue = append(p.queue, fn)
	p.cond.Signal()
	return true
}

// Go submits work to the pool and returns its Future. Jobs are not ordered
// with respect to each other. A job calling Go and then waiting on the result
// can deadlock a saturated pool; recursive callers should use TryGo.
//
// If the pool is closed, the returned Future is already completed with
// ErrClosed. A nil pool runs work inline.
func Go[T any](p *Pool, work func() (T, error)) *Future[T] {
	f := newFuture[T]()
	if p == nil {
		f.run(work)
		return f
	}
	if !p.enqueue(func() { f.run(work) }, false) {
		var zero T
		f.complete(zero, ErrClosed)
	}
	return f
}

// TryGo submits work only if an idle worker can be reserved for it, and
// reports whether it did. It never accepts on a nil or closed pool.
func TryGo[T any](p *Pool, work func() (T, error)) (*Future[T], bool) {
	if p == nil {
		return nil, false
	}
	f := newFuture[T]()
	if !p.enqueue(func() { f.run(work) }, true) {
		return nil, false
	}
	return f, true
}

// ParallelFor executes fn over [0, n) using the worker pool. Each worker
// processes one contiguous range. Blocks until all work completes.
//
// fn receives (start, end) indices where work should process [start, end).
// It must not be called from inside a pool job.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := min(p.NumWorkers(), n)
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		start := i * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)

		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(start, end)
		}
		if !p.enqueue(task, false) {
			// Closed pool: fall back to running inline.
			task()
		}
	}

	wg.Wait()
}
