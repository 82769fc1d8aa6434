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

package filesort

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"

	"github.com/ajroetker/go-extsort/numfile"
	"github.com/ajroetker/go-extsort/ramsort"
)

// ErrCorruptRun is returned when a staged run contains a line that is not a
// record. Staged runs are written by the sorter itself, so this means the
// file was damaged while the sort was running.
var ErrCorruptRun = errors.New("filesort: corrupt staged run")

// run is one side of a two-way merge.
type run[T numfile.Integer] struct {
	sc    *numfile.Scanner[T]
	lines int
	taken int
	ok    bool
}

func newRun[T numfile.Integer](r io.Reader, lines int) *run[T] {
	rn := &run[T]{sc: numfile.NewScanner[T](r), lines: lines}
	rn.advance()
	return rn
}

func (rn *run[T]) advance() {
	rn.ok = rn.sc.Scan()
}

// drain writes the current head and the unread rest of the run verbatim and
// returns the number of records it accounts for.
func (rn *run[T]) drain(w *bufio.Writer) (int, error) {
	if !rn.ok {
		return 0, nil
	}
	if err := writeRecord(w, rn.sc.Value()); err != nil {
		return 0, err
	}
	if _, err := io.Copy(w, rn.sc.Rest()); err != nil {
		return 0, err
	}
	rn.ok = false
	return rn.lines - rn.taken, nil
}

func writeRecord[T numfile.Integer](w *bufio.Writer, v T) error {
	var scratch [24]byte
	_, err := w.Write(append(numfile.Append(scratch[:0], v), '\n'))
	return err
}

// mergeRuns merges two sorted one-record-per-line streams into w. leftLines
// and rightLines are the known record counts of each stream. Ties are taken
// from the left. It returns the number of records written.
func mergeRuns[T numfile.Integer](w *bufio.Writer, left io.Reader, leftLines int, right io.Reader, rightLines int) (int, error) {
	l := newRun[T](left, leftLines)
	r := newRun[T](right, rightLines)

	written := 0
	for l.ok && r.ok {
		next := r
		if ramsort.TakeLeft(l.sc.Value(), r.sc.Value(), cmp.Compare[T]) {
			next = l
		}
		if err := writeRecord(w, next.sc.Value()); err != nil {
			return written, err
		}
		next.taken++
		written++
		next.advance()
	}

	if err := errors.Join(l.sc.Err(), r.sc.Err()); err != nil {
		return written, fmt.Errorf("%w: %w", ErrCorruptRun, err)
	}

	for _, rn := range []*run[T]{l, r} {
		n, err := rn.drain(w)
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
