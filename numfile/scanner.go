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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Scanner reads one record per line. Unlike Read it is strict: a blank or
// malformed line stops the scan with a *ParseError.
type Scanner[T Integer] struct {
	r    *bufio.Reader
	long []byte
	val  T
	line int
	err  error
	done bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner[T Integer](r io.Reader) *Scanner[T] {
	br, ok := r.(*bufio.Reader)
	if !ok || br.Size() < BufferSize {
		br = bufio.NewReaderSize(r, BufferSize)
	}
	return &Scanner[T]{r: br}
}

// Scan advances to the next record. It returns false at end of input or on
// error; Err distinguishes the two.
func (s *Scanner[T]) Scan() bool {
	if s.done {
		return false
	}

	raw, err := s.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		s.fail(fmt.Errorf("numfile: scan: %w", err))
		return false
	}
	if len(raw) == 0 && errors.Is(err, io.EOF) {
		s.done = true
		return false
	}

	s.line++
	v, perr := Parse[T](bytes.TrimSpace(raw))
	if perr != nil {
		var pe *ParseError
		if errors.As(perr, &pe) {
			pe.Line = s.line
		}
		s.fail(perr)
		return false
	}
	s.val = v
	if errors.Is(err, io.EOF) {
		s.done = true
	}
	return true
}

// readLine returns the next line including its newline. Lines longer than
// the buffer are assembled in s.long.
func (s *Scanner[T]) readLine() ([]byte, error) {
	line, err := s.r.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return line, err
	}
	s.long = append(s.long[:0], line...)
	for errors.Is(err, bufio.ErrBufferFull) {
		line, err = s.r.ReadSlice('\n')
		s.long = append(s.long, line...)
	}
	return s.long, err
}

func (s *Scanner[T]) fail(err error) {
	s.err = err
	s.done = true
}

// Value returns the record read by the last successful Scan.
func (s *Scanner[T]) Value() T { return s.val }

// Line returns the 1-based line number of the last record read.
func (s *Scanner[T]) Line() int { return s.line }

// Err returns the first error that stopped the scan, or nil at clean end of
// input.
func (s *Scanner[T]) Err() error { return s.err }

// Rest returns a reader over the bytes not yet consumed by Scan. Reading
// from it invalidates the Scanner.
func (s *Scanner[T]) Rest() io.Reader {
	s.done = true
	return s.r
}
