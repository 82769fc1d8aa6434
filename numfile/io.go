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
	"fmt"
	"io"
	"os"
	"unicode"
)

// BufferSize is the buffer used by every reader and writer in this package.
const BufferSize = 1 << 20

// Read returns every whitespace-separated token of r that parses as a T.
// Tokens that do not parse are skipped, however long they are.
func Read[T Integer](r io.Reader) ([]T, error) {
	return ReadHint[T](r, 0)
}

// ReadHint is Read with a capacity hint for the result.
func ReadHint[T Integer](r io.Reader, hint int) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), BufferSize)
	sc.Split((&wordSplitter{max: BufferSize}).split)

	out := make([]T, 0, max(hint, 0))
	for sc.Scan() {
		v, err := Parse[T](sc.Bytes())
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("numfile: read: %w", err)
	}
	return out, nil
}

// wordSplitter is bufio.ScanWords, except that a word longer than max is
// dropped instead of failing the scan with bufio.ErrTooLong.
type wordSplitter struct {
	max      int
	skipping bool
}

func (s *wordSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	skipped := 0
	if s.skipping {
		i := bytes.IndexFunc(data, unicode.IsSpace)
		if i < 0 {
			return len(data), nil, nil
		}
		s.skipping = false
		skipped = i
	}

	advance, token, err := bufio.ScanWords(data[skipped:], atEOF)
	if advance == 0 && token == nil && err == nil && !atEOF && len(data)-skipped >= s.max {
		// The buffer is full and holds a single unfinished word.
		s.skipping = true
		return len(data), nil, nil
	}
	return skipped + advance, token, err
}

// Load reads the file at path with Read.
func Load[T Integer](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("numfile: load: %w", err)
	}
	defer f.Close()
	return Read[T](bufio.NewReaderSize(f, BufferSize))
}

// Write writes data to w, one value per line, each followed by a newline.
func Write[T Integer](w io.Writer, data []T) error {
	bw := bufio.NewWriterSize(w, BufferSize)
	var scratch [24]byte
	for _, v := range data {
		b := append(Append(scratch[:0], v), '\n')
		if _, err := bw.Write(b); err != nil {
			return fmt.Errorf("numfile: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("numfile: write: %w", err)
	}
	return nil
}

// Store creates or truncates the file at path and writes data to it.
func Store[T Integer](path string, data []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("numfile: store: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("numfile: store: %w", cerr)
		}
	}()
	return Write(f, data)
}
