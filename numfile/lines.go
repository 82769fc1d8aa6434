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
	"os"
)

// LineCounter is an io.Writer that counts the lines written through it,
// with the same rules as CountLines.
type LineCounter struct {
	n       int
	last    byte
	written bool
}

func (c *LineCounter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		c.n += bytes.Count(p, []byte{'\n'})
		c.last = p[len(p)-1]
		c.written = true
	}
	return len(p), nil
}

// Lines returns the number of lines seen so far.
func (c *LineCounter) Lines() int {
	if c.written && c.last != '\n' {
		return c.n + 1
	}
	return c.n
}

// CountLines returns the number of lines in r. A final line without a
// trailing newline counts; an empty input has zero lines.
func CountLines(r io.Reader) (int, error) {
	var c LineCounter
	if _, err := io.CopyBuffer(&c, r, make([]byte, BufferSize)); err != nil {
		return 0, fmt.Errorf("numfile: count lines: %w", err)
	}
	return c.Lines(), nil
}

// CountFileLines counts the lines of the file at path.
func CountFileLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("numfile: count lines: %w", err)
	}
	defer f.Close()
	return CountLines(f)
}

// CopyLines copies the first n lines of src to dst and returns the number of
// bytes written. It stops early at end of input.
func CopyLines(dst io.Writer, src *bufio.Reader, n int) (int64, error) {
	var written int64
	for n > 0 {
		chunk, err := src.ReadSlice('\n')
		if len(chunk) > 0 {
			w, werr := dst.Write(chunk)
			written += int64(w)
			if werr != nil {
				return written, werr
			}
		}
		switch {
		case err == nil:
			n--
		case errors.Is(err, bufio.ErrBufferFull):
			// Same line continues in the next slice.
		case errors.Is(err, io.EOF):
			return written, nil
		default:
			return written, err
		}
	}
	return written, nil
}
