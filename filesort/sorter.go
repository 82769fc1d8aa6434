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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajroetker/go-extsort/numfile"
	"github.com/ajroetker/go-extsort/ramsort"
	"github.com/ajroetker/go-extsort/workerpool"
)

// ErrInvalidOptions is wrapped by every Options validation error.
var ErrInvalidOptions = errors.New("filesort: invalid options")

// Options configures SortFile.
type Options struct {
	// MaxRAM is the in-memory threshold in bytes: staged files strictly
	// smaller than MaxRAM are loaded and sorted in memory, anything else is
	// split in two. Must be positive.
	MaxRAM int64

	// Threads is the worker pool size. Values <= 1 sort on the calling
	// goroutine only. Ignored when Pool is set.
	Threads int

	// Policy selects which recursion layers use the pool.
	Policy Policy

	// StagingDir is the parent of the staging area. Empty means the output
	// file's directory, which keeps the final rename on one file system.
	StagingDir string

	// Pool, if set, is used instead of a pool created for the call. The
	// caller keeps ownership and must close it.
	Pool *workerpool.Pool

	// Logger receives progress messages. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) validate() error {
	if o.MaxRAM <= 0 {
		return fmt.Errorf("%w: MaxRAM must be positive, got %d", ErrInvalidOptions, o.MaxRAM)
	}
	if o.Threads < 0 {
		return fmt.Errorf("%w: Threads must not be negative, got %d", ErrInvalidOptions, o.Threads)
	}
	if !o.Policy.Valid() {
		return fmt.Errorf("%w: unknown policy %v", ErrInvalidOptions, o.Policy)
	}
	return nil
}

// Stats summarizes one SortFile call.
type Stats struct {
	Records   int
	Splits    int
	RAMSorts  int
	Merges    int
	Offloaded int // file-level subtrees run on the pool
	Elapsed   time.Duration
}

type sorter[T numfile.Integer] struct {
	maxRAM   int64
	policy   Policy
	pool     *workerpool.Pool
	stage    *StagingArea
	logger   *zap.Logger
	splits   atomic.Int64
	ramSorts atomic.Int64
	merges   atomic.Int64
	offload  atomic.Int64
}

// SortFile sorts the integers in inPath into outPath.
//
// The input is copied into a fresh staging area, sorted there by recursive
// split and merge, and the result is renamed to outPath. The staging area is
// removed before SortFile returns, whether or not the sort succeeded. Input
// tokens that do not parse as T are dropped. inPath and outPath may name the
// same file.
func SortFile[T numfile.Integer](ctx context.Context, inPath, outPath string, opts Options) (stats Stats, err error) {
	start := time.Now()
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("filesort")

	stagingDir := opts.StagingDir
	if stagingDir == "" {
		stagingDir = filepath.Dir(outPath)
	}
	stage, err := NewStagingArea(stagingDir, logger)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		err = multierr.Append(err, stage.Close())
	}()

	pool := opts.Pool
	if pool == nil && opts.Threads > 1 && opts.Policy != Sequential {
		pool = workerpool.New(opts.Threads)
		defer pool.Close()
	}
	if opts.Policy == Sequential {
		pool = nil
	}

	s := &sorter[T]{
		maxRAM: opts.MaxRAM,
		policy: opts.Policy,
		pool:   pool,
		stage:  stage,
		logger: logger,
	}

	in, err := stage.copyIn(inPath)
	if err != nil {
		return Stats{}, err
	}
	logger.Info("input staged",
		zap.String("input", inPath),
		zap.Int("lines", in.lines),
		zap.String("size", humanize.IBytes(uint64(in.size))),
		zap.Stringer("policy", opts.Policy),
		zap.Int("workers", pool.NumWorkers()))

	sorted, err := s.sort(ctx, in, s.policy.SplitsInParallel())
	if err != nil {
		return s.stats(0, start), err
	}
	if err := stage.promote(sorted, outPath); err != nil {
		return s.stats(0, start), err
	}

	stats = s.stats(sorted.lines, start)
	logger.Info("sort complete",
		zap.String("output", outPath),
		zap.Int("records", stats.Records),
		zap.Int("splits", stats.Splits),
		zap.Int("merges", stats.Merges),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

func (s *sorter[T]) stats(records int, start time.Time) Stats {
	return Stats{
		Records:   records,
		Splits:    int(s.splits.Load()),
		RAMSorts:  int(s.ramSorts.Load()),
		Merges:    int(s.merges.Load()),
		Offloaded: int(s.offload.Load()),
		Elapsed:   time.Since(start),
	}
}

// sort turns f into a sorted staged file and consumes f. forkFiles allows
// the left half of a split to be offloaded; once a reservation fails it is
// false for the whole subtree.
func (s *sorter[T]) sort(ctx context.Context, f stagedFile, forkFiles bool) (stagedFile, error) {
	if err := ctx.Err(); err != nil {
		return stagedFile{}, err
	}
	if f.size < s.maxRAM || f.lines < 2 {
		return s.sortInRAM(f)
	}

	left, right, err := s.split(f)
	if err != nil {
		return stagedFile{}, err
	}

	var pending *workerpool.Future[stagedFile]
	if forkFiles {
		var ok bool
		pending, ok = workerpool.TryGo(s.pool, func() (stagedFile, error) {
			return s.sort(ctx, left, true)
		})
		if ok {
			s.offload.Add(1)
		}
	}

	var sortedLeft, sortedRight stagedFile
	if pending == nil {
		if sortedLeft, err = s.sort(ctx, left, false); err != nil {
			return stagedFile{}, err
		}
		if sortedRight, err = s.sort(ctx, right, false); err != nil {
			return stagedFile{}, err
		}
	} else {
		var leftErr, rightErr error
		sortedRight, rightErr = s.sort(ctx, right, true)
		sortedLeft, leftErr = pending.Wait()
		if err := multierr.Combine(leftErr, rightErr); err != nil {
			return stagedFile{}, err
		}
	}

	return s.merge(sortedLeft, sortedRight)
}

// sortInRAM loads f, sorts it in memory and writes the result to a new
// staged file.
func (s *sorter[T]) sortInRAM(f stagedFile) (stagedFile, error) {
	data, err := s.load(f)
	if err != nil {
		return stagedFile{}, err
	}
	if err := f.remove(); err != nil {
		return stagedFile{}, err
	}

	parallel := s.policy.SortsInParallel() && s.pool != nil
	if parallel {
		ramsort.ParallelMergeSort(s.pool, data)
	} else {
		ramsort.MergeSort(data)
	}

	out, err := s.stage.writeFile("sorted", func(w *bufio.Writer) (int, error) {
		if err := numfile.Write(w, data); err != nil {
			return 0, err
		}
		return len(data), nil
	})
	if err != nil {
		return stagedFile{}, err
	}

	s.ramSorts.Add(1)
	s.logger.Debug("sorted in memory",
		zap.String("file", filepath.Base(out.path)),
		zap.Int("records", out.lines),
		zap.Int64("bytes", f.size),
		zap.Bool("parallel", parallel))
	return out, nil
}

func (s *sorter[T]) load(f stagedFile) ([]T, error) {
	in, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("filesort: load %s: %w", f.path, err)
	}
	defer in.Close()

	data, err := numfile.ReadHint[T](bufio.NewReaderSize(in, numfile.BufferSize), f.lines)
	if err != nil {
		return nil, fmt.Errorf("filesort: load %s: %w", f.path, err)
	}
	return data, nil
}

// split moves the first f.lines/2 lines of f into one staged file and the
// rest into another, then removes f.
func (s *sorter[T]) split(f stagedFile) (left, right stagedFile, err error) {
	in, err := os.Open(f.path)
	if err != nil {
		return stagedFile{}, stagedFile{}, fmt.Errorf("filesort: split %s: %w", f.path, err)
	}
	defer in.Close()
	src := bufio.NewReaderSize(in, numfile.BufferSize)

	half := f.lines / 2
	left, err = s.stage.writeFile("split", func(w *bufio.Writer) (int, error) {
		if _, err := numfile.CopyLines(w, src, half); err != nil {
			return 0, fmt.Errorf("filesort: split %s: %w", f.path, err)
		}
		return half, nil
	})
	if err != nil {
		return stagedFile{}, stagedFile{}, err
	}
	right, err = s.stage.writeFile("split", func(w *bufio.Writer) (int, error) {
		if _, err := io.Copy(w, src); err != nil {
			return 0, fmt.Errorf("filesort: split %s: %w", f.path, err)
		}
		return f.lines - half, nil
	})
	if err != nil {
		return stagedFile{}, stagedFile{}, err
	}
	in.Close()
	if err := f.remove(); err != nil {
		return stagedFile{}, stagedFile{}, err
	}

	s.splits.Add(1)
	s.logger.Debug("split",
		zap.String("file", filepath.Base(f.path)),
		zap.Int("lines", f.lines),
		zap.Int64("bytes", f.size),
		zap.Int64("left_bytes", left.size),
		zap.Int64("right_bytes", right.size))
	return left, right, nil
}

// merge merges two sorted staged files into a new one and removes both.
func (s *sorter[T]) merge(left, right stagedFile) (stagedFile, error) {
	lf, err := os.Open(left.path)
	if err != nil {
		return stagedFile{}, fmt.Errorf("filesort: merge: %w", err)
	}
	defer lf.Close()
	rf, err := os.Open(right.path)
	if err != nil {
		return stagedFile{}, fmt.Errorf("filesort: merge: %w", err)
	}
	defer rf.Close()

	out, err := s.stage.writeFile("merged", func(w *bufio.Writer) (int, error) {
		n, err := mergeRuns[T](w, lf, left.lines, rf, right.lines)
		if err != nil {
			return 0, fmt.Errorf("filesort: merge %s and %s: %w",
				filepath.Base(left.path), filepath.Base(right.path), err)
		}
		return n, nil
	})
	if err != nil {
		return stagedFile{}, err
	}
	lf.Close()
	rf.Close()
	if err := multierr.Combine(left.remove(), right.remove()); err != nil {
		return stagedFile{}, err
	}

	s.merges.Add(1)
	s.logger.Debug("merged",
		zap.String("file", filepath.Base(out.path)),
		zap.Int("records", out.lines),
		zap.Int64("bytes", out.size))
	return out, nil
}
