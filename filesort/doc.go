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

// Package filesort sorts files of newline-separated integers that may not
// fit in memory.
//
// # Algorithm
//
// SortFile copies its input into a private staging directory and sorts the
// copy recursively. A staged file smaller than Options.MaxRAM is loaded,
// sorted with ramsort and written back. Anything larger is split into two
// files holding the first and second half of its lines, each half is sorted
// the same way, and the two sorted halves are merged line by line into a new
// staged file. Every intermediate file is deleted as soon as it has been
// consumed, so the staging area holds at most a few times the input size.
// The final file is renamed over the output path and the staging directory
// is removed.
//
// # Policies
//
// A single worker pool serves both recursion layers. The Policy decides
// which layers may use it:
//
//	Sequential  no pool
//	FullPar     file splits and in-memory sorts
//	FilePar     file splits only
//	RamPar      in-memory sorts only
//
// Offloading always goes through workerpool.TryGo. When no worker can be
// reserved the subtree runs on the calling goroutine, so nested forks never
// wait for a worker that is itself waiting.
//
// # Example Usage
//
//	stats, err := filesort.SortFile[uint32](ctx, "in.txt", "out.txt", filesort.Options{
//		MaxRAM:  64 << 20,
//		Threads: runtime.NumCPU(),
//		Policy:  filesort.FullPar,
//	})
package filesort
