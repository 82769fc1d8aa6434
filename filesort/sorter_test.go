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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-extsort/numfile"
	"github.com/ajroetker/go-extsort/workerpool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func generateInput(t *testing.T, dir string, count int, seed uint64) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("random-%d-%d.txt", count, seed))
	_, err := numfile.GenerateFile(context.Background(), path, numfile.GenerateOptions{Count: count, Seed: seed})
	require.NoError(t, err)
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestSortFileInRAM(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "3\n1\n2\n")
	out := filepath.Join(dir, "output.txt")

	stats, err := SortFile[uint32](context.Background(), in, out, Options{
		MaxRAM: 1 << 20,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", readFile(t, out))
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 1, stats.RAMSorts)
	assert.Zero(t, stats.Splits)
	assert.Zero(t, stats.Merges)
	assert.Equal(t, "3\n1\n2\n", readFile(t, in), "input must not change")
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileThreshold(t *testing.T) {
	const content = "3\n1\n2\n"

	t.Run("size equal to MaxRAM splits", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "output.txt")
		stats, err := SortFile[uint32](context.Background(), writeInput(t, dir, content), out, Options{
			MaxRAM: int64(len(content)),
		})
		require.NoError(t, err)
		assert.Equal(t, "1\n2\n3\n", readFile(t, out))
		assert.Equal(t, 1, stats.Splits)
		assert.Equal(t, 2, stats.RAMSorts)
		assert.Equal(t, 1, stats.Merges)
	})

	t.Run("size below MaxRAM stays in memory", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "output.txt")
		stats, err := SortFile[uint32](context.Background(), writeInput(t, dir, content), out, Options{
			MaxRAM: int64(len(content)) + 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "1\n2\n3\n", readFile(t, out))
		assert.Zero(t, stats.Splits)
		assert.Equal(t, 1, stats.RAMSorts)
	})
}

func TestSortFilePolicies(t *testing.T) {
	dir := t.TempDir()
	in := generateInput(t, dir, 5000, 7)

	want, err := numfile.Load[uint32](in)
	require.NoError(t, err)
	slices.Sort(want)

	for _, policy := range Policies {
		for _, threads := range []int{1, 2, 4} {
			t.Run(fmt.Sprintf("%v/threads=%d", policy, threads), func(t *testing.T) {
				out := filepath.Join(t.TempDir(), "output.txt")
				stats, err := SortFile[uint32](context.Background(), in, out, Options{
					MaxRAM:  4 << 10,
					Threads: threads,
					Policy:  policy,
				})
				require.NoError(t, err)

				got, err := numfile.Load[uint32](out)
				require.NoError(t, err)
				assert.Equal(t, want, got)
				assert.Equal(t, len(want), stats.Records)
				assert.Positive(t, stats.Splits)
				assert.Equal(t, stats.Splits, stats.Merges)
				assert.Equal(t, stats.Splits+1, stats.RAMSorts)

				if threads == 1 || !policy.SplitsInParallel() {
					assert.Zero(t, stats.Offloaded)
				} else {
					assert.Positive(t, stats.Offloaded)
				}

				res, err := numfile.CheckFile[uint32](out)
				require.NoError(t, err)
				assert.True(t, res.Sorted)
			})
		}
	}
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileTinyMaxRAM(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "9\n3\n3\n7\n1\n8\n0\n3\n")
	out := filepath.Join(dir, "output.txt")

	stats, err := SortFile[uint32](context.Background(), in, out, Options{
		MaxRAM:  1,
		Threads: 3,
		Policy:  FullPar,
	})
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n3\n3\n3\n7\n8\n9\n", readFile(t, out))
	assert.Equal(t, 8, stats.RAMSorts)
	assert.Equal(t, 7, stats.Merges)
}

func TestSortFileSharedPool(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	dir := t.TempDir()
	in := generateInput(t, dir, 3000, 11)
	out := filepath.Join(dir, "output.txt")

	_, err := SortFile[uint32](context.Background(), in, out, Options{
		MaxRAM: 2 << 10,
		Policy: FullPar,
		Pool:   pool,
	})
	require.NoError(t, err)

	res, err := numfile.CheckFile[uint32](out)
	require.NoError(t, err)
	assert.True(t, res.Sorted)
	assert.Equal(t, 3000, res.Records)
	assert.Eventually(t, func() bool { return pool.AvailableWorkers() == 3 },
		time.Second, time.Millisecond, "pool must stay usable")
}

func TestSortFileEmptyInput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "")
	out := filepath.Join(dir, "output.txt")

	stats, err := SortFile[uint32](context.Background(), in, out, Options{MaxRAM: 1})
	require.NoError(t, err)
	assert.Empty(t, readFile(t, out))
	assert.Zero(t, stats.Records)
}

func TestSortFileDropsBadTokens(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "5\n7\t2a12 6 3 7 167 3\n7")
	out := filepath.Join(dir, "output.txt")

	stats, err := SortFile[uint32](context.Background(), in, out, Options{MaxRAM: 1 << 20})
	require.NoError(t, err)
	assert.Equal(t, "3\n3\n5\n6\n7\n7\n7\n167\n", readFile(t, out))
	assert.Equal(t, 8, stats.Records)
}

func TestSortFileDropsOversizedToken(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "3\n"+strings.Repeat("x", 2*numfile.BufferSize)+"\n1\n")
	out := filepath.Join(dir, "output.txt")

	stats, err := SortFile[uint32](context.Background(), in, out, Options{MaxRAM: 1 << 30})
	require.NoError(t, err)
	assert.Equal(t, "1\n3\n", readFile(t, out))
	assert.Equal(t, 2, stats.Records)
}

func TestSortFileBlankLines(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "4\n\n2\n\n\n9\n1\n")
	out := filepath.Join(dir, "output.txt")

	_, err := SortFile[uint32](context.Background(), in, out, Options{MaxRAM: 4})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n4\n9\n", readFile(t, out))
}

func TestSortFileInPlace(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "30\n10\n20\n")

	_, err := SortFile[uint32](context.Background(), in, in, Options{MaxRAM: 4, Threads: 2, Policy: FullPar})
	require.NoError(t, err)
	assert.Equal(t, "10\n20\n30\n", readFile(t, in))
}

func TestSortFileSignedValues(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "-3\n5\n-10\n0\n")
	out := filepath.Join(dir, "output.txt")

	_, err := SortFile[int64](context.Background(), in, out, Options{MaxRAM: 4})
	require.NoError(t, err)
	assert.Equal(t, "-10\n-3\n0\n5\n", readFile(t, out))
}

func TestSortFileStagingDir(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()
	in := writeInput(t, dir, "2\n1\n")
	out := filepath.Join(dir, "output.txt")

	_, err := SortFile[uint32](context.Background(), in, out, Options{MaxRAM: 1, StagingDir: staging})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", readFile(t, out))
	assert.Empty(t, stagingDirs(t, staging))
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.txt")

	_, err := SortFile[uint32](context.Background(), filepath.Join(dir, "missing.txt"), out, Options{MaxRAM: 1 << 20})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, out)
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileCancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "2\n1\n")
	out := filepath.Join(dir, "output.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SortFile[uint32](ctx, in, out, Options{MaxRAM: 1 << 20})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileInvalidOptions(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "1\n")
	out := filepath.Join(dir, "output.txt")

	tests := map[string]Options{
		"zero MaxRAM":      {},
		"negative threads": {MaxRAM: 1, Threads: -1},
		"unknown policy":   {MaxRAM: 1, Policy: Policy(42)},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := SortFile[uint32](context.Background(), in, out, opts)
			require.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
	assert.Empty(t, stagingDirs(t, dir))
}

func TestSortFileConcurrent(t *testing.T) {
	dir := t.TempDir()
	const sorts = 4

	var g errgroup.Group
	for i := range sorts {
		in := generateInput(t, dir, 2000, uint64(i+1))
		out := filepath.Join(dir, fmt.Sprintf("sorted-%d.txt", i))
		g.Go(func() error {
			_, err := SortFile[uint32](context.Background(), in, out, Options{
				MaxRAM:  2 << 10,
				Threads: 2,
				Policy:  FullPar,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := range sorts {
		res, err := numfile.CheckFile[uint32](filepath.Join(dir, fmt.Sprintf("sorted-%d.txt", i)))
		require.NoError(t, err)
		assert.True(t, res.Sorted)
		assert.Equal(t, 2000, res.Records)
	}
	assert.Empty(t, stagingDirs(t, dir))
}

// loggerOn returns a test logger that runs fn the first time a message equal
// to msg is logged.
func loggerOn(t *testing.T, msg string, fn func()) *zap.Logger {
	t.Helper()
	var once sync.Once
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.Hooks(func(e zapcore.Entry) error {
		if e.Message == msg {
			once.Do(fn)
		}
		return nil
	})))
}

// firstSortedRun returns the staged file written by the first in-memory sort.
func firstSortedRun(t *testing.T, parent string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(parent, StagingPrefix+"*", "*-sorted"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestSortFileFailsMidRecursion(t *testing.T) {
	tests := []struct {
		name   string
		damage func(t *testing.T, run string)
		want   []error
	}{
		{
			name: "corrupt run",
			damage: func(t *testing.T, run string) {
				require.NoError(t, os.WriteFile(run, []byte("x\n"), 0o600))
			},
			want: []error{ErrCorruptRun, numfile.ErrParse},
		},
		{
			name: "vanished run",
			damage: func(t *testing.T, run string) {
				require.NoError(t, os.Remove(run))
			},
			want: []error{os.ErrNotExist},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := writeInput(t, dir, "4\n3\n2\n1\n")
			out := filepath.Join(dir, "output.txt")

			logger := loggerOn(t, "sorted in memory", func() {
				tt.damage(t, firstSortedRun(t, dir))
			})
			stats, err := SortFile[uint32](context.Background(), in, out, Options{
				MaxRAM: 4,
				Policy: Sequential,
				Logger: logger,
			})
			for _, want := range tt.want {
				require.ErrorIs(t, err, want)
			}
			assert.Positive(t, stats.Splits)
			assert.Zero(t, stats.Merges)
			assert.NoFileExists(t, out)
			assert.Empty(t, stagingDirs(t, dir))
		})
	}
}

func TestSortFileCancelledAfterFork(t *testing.T) {
	dir := t.TempDir()
	in := generateInput(t, dir, 2000, 5)
	out := filepath.Join(dir, "output.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats, err := SortFile[uint32](ctx, in, out, Options{
		MaxRAM:  1 << 10,
		Threads: 4,
		Policy:  FullPar,
		Logger:  loggerOn(t, "split", cancel),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Splits)
	assert.Equal(t, 1, stats.Offloaded)
	assert.Zero(t, stats.RAMSorts)
	assert.NoFileExists(t, out)
	assert.Empty(t, stagingDirs(t, dir))
}
