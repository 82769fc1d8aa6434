// Copyright 2025 The go-extsort Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

// Future is the one-shot completion handle of a submitted job.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) run(work func() (T, error)) {
	val, err := work()
	f.complete(val, err)
}

// complete stores the result before closing done, so a Wait that observes
// done also observes the result.
func (f *Future[T]) complete(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Wait blocks until the job has run and returns its result. It may be called
// more than once; every call returns the same values.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
