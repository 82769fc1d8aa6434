// Package ramsort provides a stable, top-down merge sort for in-memory data,
// with an optional fork/join parallel mode driven by a workerpool.Pool.
//
// # Algorithm
//
// Slices of length 0 or 1 are returned as is, slices of length 2 are fixed
// with a single comparison, and anything longer is split at the midpoint,
// sorted recursively and merged through one scratch buffer allocated per
// call. Merges prefer the left run on ties, which makes the sort stable.
//
// # Parallelism
//
// ParallelMergeSort tries to reserve a pool worker before each split. If it
// gets one, the left half runs as a pool job while the caller sorts the right
// half, and the two are merged after the job completes. If not, the whole
// remaining subtree is sorted sequentially without checking the pool again,
// which keeps the number of outstanding jobs at or below the worker count.
//
// # Example Usage
//
//	import "github.com/ajroetker/go-extsort/ramsort"
//
//	func SortValues(values []uint32) {
//	    ramsort.Sort(values, runtime.NumCPU())
//	}
package ramsort
