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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajroetker/go-extsort/numfile"
)

// StagingPrefix starts the name of every staging directory.
const StagingPrefix = ".extsort-"

// stagedFile is one sortable unit on disk. It is owned by exactly one
// recursive call; lines is known up front so it never has to be recounted.
type stagedFile struct {
	path  string
	lines int
	size  int64
}

func (f stagedFile) remove() error {
	if err := os.Remove(f.path); err != nil {
		return fmt.Errorf("filesort: remove staged file: %w", err)
	}
	return nil
}

// StagingArea is the private workspace of one sort. Its directory name is
// unique, so concurrent sorts may share a parent directory.
type StagingArea struct {
	dir    string
	seq    atomic.Uint64
	logger *zap.Logger
}

// NewStagingArea creates a fresh staging directory under parent. An empty
// parent means the current directory.
func NewStagingArea(parent string, logger *zap.Logger) (*StagingArea, error) {
	if parent == "" {
		parent = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(parent, StagingPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filesort: create staging area: %w", err)
	}
	logger.Info("staging area created", zap.String("dir", dir))
	return &StagingArea{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory.
func (s *StagingArea) Dir() string { return s.dir }

// writeFile creates a new staged file named after kind and lets fill write
// its content. fill returns the number of records written.
func (s *StagingArea) writeFile(kind string, fill func(w *bufio.Writer) (int, error)) (_ stagedFile, err error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%06d-%s", s.seq.Add(1), kind))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return stagedFile{}, fmt.Errorf("filesort: create staged file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("filesort: close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriterSize(f, numfile.BufferSize)
	lines, err := fill(bw)
	if err != nil {
		return stagedFile{}, err
	}
	if err := bw.Flush(); err != nil {
		return stagedFile{}, fmt.Errorf("filesort: write %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return stagedFile{}, fmt.Errorf("filesort: stat %s: %w", path, err)
	}
	return stagedFile{path: path, lines: lines, size: info.Size()}, nil
}

// copyIn copies the file at src into the staging area, counting its lines on
// the way.
func (s *StagingArea) copyIn(src string) (stagedFile, error) {
	in, err := os.Open(src)
	if err != nil {
		return stagedFile{}, fmt.Errorf("filesort: open input: %w", err)
	}
	defer in.Close()

	return s.writeFile("input", func(w *bufio.Writer) (int, error) {
		var counter numfile.LineCounter
		if _, err := io.Copy(io.MultiWriter(w, &counter), in); err != nil {
			return 0, fmt.Errorf("filesort: copy input %s: %w", src, err)
		}
		return counter.Lines(), nil
	})
}

// promote installs f at dst, replacing any existing file. The rename is
// atomic when dst is on the staging area's file system; otherwise f is
// copied next to dst first and renamed from there.
func (s *StagingArea) promote(f stagedFile, dst string) error {
	err := os.Rename(f.path, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("filesort: install output: %w", err)
	}

	s.logger.Debug("output on another device, copying", zap.String("dst", dst))
	tmp, err := os.CreateTemp(filepath.Dir(dst), StagingPrefix+"*")
	if err != nil {
		return fmt.Errorf("filesort: install output: %w", err)
	}
	src, err := os.Open(f.path)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("filesort: install output: %w", err)
	}
	_, err = io.Copy(tmp, src)
	src.Close()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filesort: install output: %w", err)
	}
	return f.remove()
}

// Close removes the staging directory and everything left in it.
func (s *StagingArea) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("filesort: remove staging area: %w", err)
	}
	s.logger.Info("staging area removed", zap.String("dir", s.dir))
	return nil
}
