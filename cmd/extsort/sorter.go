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

package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-extsort/filesort"
	"github.com/ajroetker/go-extsort/internal/config"
)

func newSorterCmd(a *app) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		threads    int
		maxSize    string
		policy     = filesort.FullPar
		stagingDir string
	)

	cmd := &cobra.Command{
		Use:   "sorter",
		Short: "Sort a file of uint32 values, one per line",
		Long: `Sorts the whitespace or newline separated uint32 values of --input-path
into --output-path, one value per line. Tokens that are not uint32 values are
dropped. Input and output may be the same file.

Execution policies:
  Sequential  single goroutine
  FullPar     parallel file recursion and parallel in-memory sorts
  FilePar     parallel file recursion only
  RamPar      parallel in-memory sorts only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Sorter
			if cmd.Flags().Changed("threads-count") {
				sc.Threads = threads
			}
			if cmd.Flags().Changed("max-size") {
				sc.MaxSize = maxSize
			}
			if cmd.Flags().Changed("exec-policy") {
				sc.Policy = policy
			}
			if cmd.Flags().Changed("staging-dir") {
				sc.StagingDir = stagingDir
			}
			if sc.Threads < 0 {
				return fmt.Errorf("--threads-count must not be negative, got %d", sc.Threads)
			}
			maxRAM, err := sc.MaxSizeBytes()
			if err != nil {
				return fmt.Errorf("--max-size: %w", err)
			}

			return runSort(cmd, a, inputPath, outputPath, sc, maxRAM)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input-path", "i", "", "File to sort")
	cmd.Flags().StringVarP(&outputPath, "output-path", "o", "", "Sorted output file")
	cmd.Flags().IntVarP(&threads, "threads-count", "t", 0, "Worker threads (0 = all CPUs)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Largest file sorted in memory, e.g. 512MiB (default 1/8 of RAM)")
	cmd.Flags().Var(&policy, "exec-policy", "Execution policy: Sequential, FullPar, FilePar or RamPar")
	cmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Parent of the staging directory (default: output directory)")
	_ = cmd.MarkFlagRequired("input-path")
	_ = cmd.MarkFlagRequired("output-path")
	return cmd
}

func runSort(cmd *cobra.Command, a *app, in, out string, sc config.SorterConfig, maxRAM int64) error {
	threads := sc.ThreadCount()
	stats, err := filesort.SortFile[uint32](cmd.Context(), in, out, filesort.Options{
		MaxRAM:     maxRAM,
		Threads:    threads,
		Policy:     sc.Policy,
		StagingDir: sc.StagingDir,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Sorted %s numbers into %s in %v (policy %v, %d threads, max-size %s, %d splits, %d merges)\n",
		humanize.Comma(int64(stats.Records)), out, stats.Elapsed.Round(time.Millisecond),
		sc.Policy, threads, humanize.IBytes(uint64(maxRAM)), stats.Splits, stats.Merges)
	return nil
}
