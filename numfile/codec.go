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
	"errors"
	"fmt"
	"strconv"
	"unsafe"
)

// Integer is the set of record types the text format can carry.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("numfile: parse error")

// ParseError reports a token that is not a valid record.
type ParseError struct {
	Line int // 1-based; 0 if unknown
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("numfile: line %d: cannot parse %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("numfile: cannot parse %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

func isSigned[T Integer]() bool {
	var zero T
	return ^zero < zero
}

func bitSize[T Integer]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// Parse parses one decimal token as a T, rejecting values out of T's range.
func Parse[T Integer](tok []byte) (T, error) {
	if isSigned[T]() {
		v, err := strconv.ParseInt(string(tok), 10, bitSize[T]())
		if err != nil {
			return 0, &ParseError{Text: string(tok), Err: unwrapNumError(err)}
		}
		return T(v), nil
	}
	v, err := strconv.ParseUint(string(tok), 10, bitSize[T]())
	if err != nil {
		return 0, &ParseError{Text: string(tok), Err: unwrapNumError(err)}
	}
	return T(v), nil
}

func unwrapNumError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// Append appends the decimal form of v to dst.
func Append[T Integer](dst []byte, v T) []byte {
	if isSigned[T]() {
		return strconv.AppendInt(dst, int64(v), 10)
	}
	return strconv.AppendUint(dst, uint64(v), 10)
}
