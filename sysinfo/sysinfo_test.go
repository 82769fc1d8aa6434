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

package sysinfo

import (
	"errors"
	"runtime"
	"testing"
)

func TestTotalMemory(t *testing.T) {
	total, err := TotalMemory()
	if errors.Is(err, ErrUnsupported) {
		t.Skipf("no memory probe on %s", runtime.GOOS)
	}
	if err != nil {
		t.Fatalf("TotalMemory() error = %v", err)
	}
	if total < 16<<20 {
		t.Errorf("TotalMemory() = %d, implausibly small", total)
	}
}

func TestDefaultMaxRAM(t *testing.T) {
	got := DefaultMaxRAM()
	if got == 0 {
		t.Fatal("DefaultMaxRAM() = 0")
	}
	if total, err := TotalMemory(); err == nil && total > 0 {
		if want := total / MemoryFraction; got != want {
			t.Errorf("DefaultMaxRAM() = %d, want %d", got, want)
		}
	} else if got != FallbackMaxRAM {
		t.Errorf("DefaultMaxRAM() = %d, want fallback %d", got, FallbackMaxRAM)
	}
}

func TestParallelism(t *testing.T) {
	if got := Parallelism(); got < 1 {
		t.Errorf("Parallelism() = %d, want >= 1", got)
	}
}
