// Copyright 2025 go-extsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ramsort

import (
	"cmp"

	"github.com/ajroetker/go-extsort/workerpool"
)

// MinParallelLen is the shortest slice the parallel sort will still try to
// fork. Shorter slices are sorted sequentially.
const MinParallelLen = 1 << 12

// MergeSort sorts data in ascending order. The sort is stable.
func MergeSort[T cmp.Ordered](data []T) {
	MergeSortFunc(data, cmp.Compare[T])
}

// MergeSortFunc sorts data with the comparison function cmp, which returns a
// negative number when a < b, zero when equal and positive when a > b.
// Elements comparing equal keep their original order.
func MergeSortFunc[T any](data []T, cmp func(a, b T) int) {
	if len(data) <= 1 {
		return
	}
	buf := make([]T, len(data))
	mergeSort(data, buf, cmp)
}

// mergeSort is the recursive top-down merge sort. buf must be at least as
// long as data and is used as merge scratch space.
func mergeSort[T any](data, buf []T, cmp func(a, b T) int) {
	switch len(data) {
	case 0, 1:
		return
	case 2:
		if cmp(data[1], data[0]) < 0 {
			data[0], data[1] = data[1], data[0]
		}
		return
	}

	mid := len(data) / 2
	mergeSort(data[:mid], buf[:mid], cmp)
	mergeSort(data[mid:], buf[mid:], cmp)
	mergeHalves(data, buf, mid, cmp)
}

// mergeHalves merges the sorted runs data[:mid] and data[mid:] back into data.
func mergeHalves[T any](data, buf []T, mid int, cmp func(a, b T) int) {
	// Already in order: nothing to move.
	if cmp(data[mid], data[mid-1]) >= 0 {
		return
	}
	n := Merge(buf, data[:mid], data[mid:], cmp)
	copy(data, buf[:n])
}

// ParallelMergeSort sorts data like MergeSort, offloading left halves to pool
// while workers can be reserved.
func ParallelMergeSort[T cmp.Ordered](pool *workerpool.Pool, data []T) {
	ParallelMergeSortFunc(pool, data, cmp.Compare[T])
}

// ParallelMergeSortFunc is the parallel form of MergeSortFunc. At every split
// the left half is submitted to pool and the right half sorted inline; once a
// submission is refused the whole remaining subtree is sorted sequentially.
// A nil pool sorts sequentially.
func ParallelMergeSortFunc[T any](pool *workerpool.Pool, data []T, cmp func(a, b T) int) {
	if len(data) <= 1 {
		return
	}
	buf := make([]T, len(data))
	parallelMergeSort(pool, data, buf, cmp)
}

func parallelMergeSort[T any](pool *workerpool.Pool, data, buf []T, cmp func(a, b T) int) {
	if len(data) < MinParallelLen {
		mergeSort(data, buf, cmp)
		return
	}

	mid := len(data) / 2
	left, ok := workerpool.TryGo(pool, func() (struct{}, error) {
		parallelMergeSort(pool, data[:mid], buf[:mid], cmp)
		return struct{}{}, nil
	})
	if !ok {
		mergeSort(data, buf, cmp)
		return
	}

	parallelMergeSort(pool, data[mid:], buf[mid:], cmp)
	_, _ = left.Wait()
	mergeHalves(data, buf, mid, cmp)
}

// Sort sorts data using up to threads workers. threads <= 1 sorts on the
// calling goroutine without creating a pool.
func Sort[T cmp.Ordered](data []T, threads int) {
	if threads <= 1 || len(data) < MinParallelLen {
		MergeSort(data)
		return
	}
	pool := workerpool.New(threads)
	defer pool.Close()
	ParallelMergeSort(pool, data)
}
