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
	"go.uber.org/zap"

	"github.com/ajroetker/go-extsort/numfile"
	"github.com/ajroetker/go-extsort/workerpool"
)

func newGeneratorCmd(a *app) *cobra.Command {
	var (
		outputPath string
		count      int
		seed       uint64
		chunkSize  int
		threads    int
	)

	cmd := &cobra.Command{
		Use:   "generator",
		Short: "Write uniformly random uint32 values, one per line",
		Long: `Writes --numbers-count random uint32 values to --output-path.

Values are generated in chunks of --chunk-size numbers so memory use stays
bounded, one chunk being filled in parallel while the previous one is written.
The output depends only on --seed and --numbers-count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc := a.cfg.Generator
			if cmd.Flags().Changed("seed") {
				gc.Seed = seed
			}
			if cmd.Flags().Changed("chunk-size") {
				gc.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("threads-count") {
				gc.Threads = threads
			}
			if count < 0 {
				return fmt.Errorf("--numbers-count must not be negative, got %d", count)
			}
			if gc.Threads < 0 {
				return fmt.Errorf("--threads-count must not be negative, got %d", gc.Threads)
			}

			var pool *workerpool.Pool
			if n := gc.ThreadCount(); n > 1 {
				pool = workerpool.New(n)
				defer pool.Close()
			}

			a.logger.Info("generating",
				zap.String("output", outputPath),
				zap.Int("count", count),
				zap.Int("workers", pool.NumWorkers()))

			start := time.Now()
			written, err := numfile.GenerateFile(cmd.Context(), outputPath, numfile.GenerateOptions{
				Count:     count,
				ChunkSize: gc.ChunkSize,
				Seed:      gc.Seed,
				Pool:      pool,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s numbers (%s) into %s in %v\n",
				humanize.Comma(int64(count)), humanize.IBytes(uint64(written)), outputPath,
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output-path", "o", "", "File to write")
	cmd.Flags().IntVarP(&count, "numbers-count", "n", 0, "Number of values to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", numfile.DefaultChunkSize, "Values generated per chunk")
	cmd.Flags().IntVarP(&threads, "threads-count", "t", 0, "Worker threads (0 = all CPUs)")
	_ = cmd.MarkFlagRequired("output-path")
	_ = cmd.MarkFlagRequired("numbers-count")
	return cmd
}
