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
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-extsort/workerpool"
)

func TestParse(t *testing.T) {
	v, err := Parse[uint32]([]byte("4294967295"))
	require.NoError(t, err)
	assert.Equal(t, uint32(4294967295), v)

	_, err = Parse[uint32]([]byte("4294967296"))
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse[uint32]([]byte("-1"))
	require.ErrorIs(t, err, ErrParse)

	s, err := Parse[int16]([]byte("-32768"))
	require.NoError(t, err)
	assert.Equal(t, int16(-32768), s)

	_, err = Parse[int64]([]byte("12a"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "12a", pe.Text)
}

func TestAppend(t *testing.T) {
	assert.Equal(t, "x4294967295", string(Append([]byte("x"), uint32(4294967295))))
	assert.Equal(t, "-7", string(Append(nil, int8(-7))))
}

func TestReadSkipsBadTokens(t *testing.T) {
	got, err := Read[uint32](strings.NewReader("5\n7\t2a12 6 3 7 167 3\n7"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 7, 6, 3, 7, 167, 3, 7}, got)
}

func TestReadSkipsOversizedToken(t *testing.T) {
	long := strings.Repeat("x", 2*BufferSize)

	tests := []struct {
		name  string
		input string
		want  []uint32
	}{
		{"between lines", "3\n" + long + "\n1\n", []uint32{3, 1}},
		{"digit tail dropped", "7 " + long + "8 9", []uint32{7, 9}},
		{"at end of input", "5 " + long, []uint32{5}},
		{"at start of input", long + "\t4\n", []uint32{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read[uint32](strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBlankLines(t *testing.T) {
	got, err := Read[uint32](strings.NewReader("\n\n3\n\n  \n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 1}, got)
}

func TestStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.txt")
	data := []uint32{3, 1, 2}

	require.NoError(t, Store(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3\n1\n2\n", string(raw))

	got, err := Load[uint32](path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load[uint32](filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanner(t *testing.T) {
	sc := NewScanner[uint32](strings.NewReader("1\n 20 \r\n300"))
	var got []uint32
	for sc.Scan() {
		got = append(got, sc.Value())
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []uint32{1, 20, 300}, got)
	assert.Equal(t, 3, sc.Line())
}

func TestScannerBlankLineFails(t *testing.T) {
	sc := NewScanner[uint32](strings.NewReader("1\n\n2\n"))
	require.True(t, sc.Scan())
	require.False(t, sc.Scan())

	var pe *ParseError
	require.ErrorAs(t, sc.Err(), &pe)
	assert.Equal(t, 2, pe.Line)
	assert.False(t, sc.Scan(), "Scan after an error must keep returning false")
}

func TestScannerLongLine(t *testing.T) {
	long := strings.Repeat("0", BufferSize+10) + "42\n7\n"
	sc := NewScanner[uint32](strings.NewReader(long))
	require.True(t, sc.Scan())
	assert.Equal(t, uint32(42), sc.Value())
	require.True(t, sc.Scan())
	assert.Equal(t, uint32(7), sc.Value())
	assert.False(t, sc.Scan())
	assert.NoError(t, sc.Err())
}

func TestScannerRest(t *testing.T) {
	sc := NewScanner[uint32](strings.NewReader("1\n2\n3\n"))
	require.True(t, sc.Scan())
	rest, err := io.ReadAll(sc.Rest())
	require.NoError(t, err)
	assert.Equal(t, "2\n3\n", string(rest))
	assert.False(t, sc.Scan())
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"\n", 1},
		{"1", 1},
		{"1\n", 1},
		{"1\n2", 2},
		{"1\n2\n3\n", 3},
		{"\n\n\n", 3},
	}
	for _, tt := range tests {
		got, err := CountLines(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "CountLines(%q)", tt.in)
	}
}

func TestCopyLines(t *testing.T) {
	src := bufio.NewReaderSize(strings.NewReader("1\n2\n3\n4\n5"), 16)
	var first, second bytes.Buffer

	n, err := CopyLines(&first, src, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "1\n2\n", first.String())

	_, err = io.Copy(&second, src)
	require.NoError(t, err)
	assert.Equal(t, "3\n4\n5", second.String())
}

func TestCopyLinesLongLines(t *testing.T) {
	long := strings.Repeat("9", 100)
	src := bufio.NewReaderSize(strings.NewReader(long+"\n"+long+"\n1\n"), 16)
	var dst bytes.Buffer

	_, err := CopyLines(&dst, src, 2)
	require.NoError(t, err)
	assert.Equal(t, long+"\n"+long+"\n", dst.String())
}

func TestCheck(t *testing.T) {
	res, err := Check[uint32](strings.NewReader("1\n2\n2\n5\n"))
	require.NoError(t, err)
	assert.True(t, res.Sorted)
	assert.Equal(t, 4, res.Records)

	res, err = Check[uint32](strings.NewReader("2\n1\n3\n"))
	require.NoError(t, err)
	assert.False(t, res.Sorted)
	assert.Equal(t, 2, res.InversionLine)

	_, err = Check[uint32](strings.NewReader("x\n"))
	require.ErrorIs(t, err, ErrParse)

	res, err = Check[uint32](strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, res.Sorted)
	assert.Zero(t, res.Records)
}

func TestCheckDetectsLateInversion(t *testing.T) {
	res, err := Check[uint32](strings.NewReader("1\n5\n6\n7\n3\n"))
	require.NoError(t, err)
	assert.False(t, res.Sorted)
	assert.Equal(t, 5, res.InversionLine)
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	written, err := Generate(context.Background(), &buf, GenerateOptions{Count: 1000, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), written)

	lines, err := CountLines(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1000, lines)

	values, err := Read[uint32](bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, values, 1000)
}

func TestGenerateDeterministicAcrossChunkingAndWorkers(t *testing.T) {
	const count = 3*genBlock + 123

	var sequential bytes.Buffer
	_, err := Generate(context.Background(), &sequential, GenerateOptions{Count: count, Seed: 7, ChunkSize: genBlock})
	require.NoError(t, err)

	pool := workerpool.New(4)
	defer pool.Close()

	var parallel bytes.Buffer
	_, err = Generate(context.Background(), &parallel, GenerateOptions{Count: count, Seed: 7, Pool: pool})
	require.NoError(t, err)

	assert.Equal(t, sequential.String(), parallel.String())
}

func TestGenerateZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	written, err := GenerateFile(context.Background(), path, GenerateOptions{Count: 0})
	require.NoError(t, err)
	assert.Zero(t, written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, io.Discard, GenerateOptions{Count: 10 * genBlock, ChunkSize: genBlock, Seed: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateNegativeCount(t *testing.T) {
	_, err := Generate(context.Background(), io.Discard, GenerateOptions{Count: -1})
	require.Error(t, err)
}
