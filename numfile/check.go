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

package numfile

import (
	"fmt"
	"io"
	"os"
)

// CheckResult is the outcome of a sortedness check.
type CheckResult struct {
	Sorted bool
	// Records is the number of records read before the check finished.
	Records int
	// InversionLine is the line of the first record smaller than its
	// predecessor, or 0 when Sorted.
	InversionLine int
}

// Check reads r one record per line and reports whether the records are in
// non-decreasing order. It stops at the first inversion. A blank or
// malformed line returns a *ParseError. Empty input is sorted.
func Check[T Integer](r io.Reader) (CheckResult, error) {
	sc := NewScanner[T](r)
	res := CheckResult{Sorted: true}

	var prev T
	for sc.Scan() {
		cur := sc.Value()
		res.Records++
		if res.Records > 1 && cur < prev {
			res.Sorted = false
			res.InversionLine = sc.Line()
			return res, nil
		}
		prev = cur
	}
	if err := sc.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// CheckFile runs Check on the file at path.
func CheckFile[T Integer](path string) (CheckResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return CheckResult{}, fmt.Errorf("numfile: check: %w", err)
	}
	defer f.Close()
	return Check[T](f)
}
