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

// Merge merges the sorted runs left and right into dst and returns the number
// of elements written. dst must hold len(left)+len(right) elements and must
// not overlap either run.
//
// On ties the left element is taken first, so merging preserves the relative
// order of equal elements across runs.
func Merge[T any](dst, left, right []T, cmp func(a, b T) int) int {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if TakeLeft(left[i], right[j], cmp) {
			dst[k] = left[i]
			i++
		} else {
			dst[k] = right[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], left[i:])
	k += copy(dst[k:], right[j:])
	return k
}

// TakeLeft reports whether a merge positioned at heads l and r emits l next.
// It is the tie rule shared by in-memory and file merges.
func TakeLeft[T any](l, r T, cmp func(a, b T) int) bool {
	return cmp(r, l) >= 0
}
