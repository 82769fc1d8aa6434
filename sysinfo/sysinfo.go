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

// Package sysinfo probes the host for the defaults the sorter needs: total
// physical memory and hardware parallelism.
package sysinfo

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned when the platform has no memory probe.
var ErrUnsupported = errors.New("sysinfo: not supported on this platform")

const (
	// MemoryFraction is the share of total memory DefaultMaxRAM hands to the
	// in-memory sort threshold.
	MemoryFraction = 8

	// FallbackMaxRAM is used when total memory cannot be determined.
	FallbackMaxRAM = 256 << 20
)

// TotalMemory returns the total physical memory in bytes.
func TotalMemory() (uint64, error) {
	return totalMemory()
}

// DefaultMaxRAM returns TotalMemory()/MemoryFraction, or FallbackMaxRAM if
// the probe fails.
func DefaultMaxRAM() uint64 {
	total, err := TotalMemory()
	if err != nil || total == 0 {
		return FallbackMaxRAM
	}
	return max(total/MemoryFraction, 1)
}

// Parallelism returns the number of logical CPUs usable by the process.
func Parallelism() int {
	return runtime.NumCPU()
}
