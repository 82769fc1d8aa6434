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
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-extsort/workerpool"
)

const (
	// DefaultChunkSize is the default number of values generated per chunk.
	DefaultChunkSize = 1 << 22

	// genBlock is the number of values drawn from one random stream. Chunks
	// are whole blocks, so output depends only on Seed and Count.
	genBlock = 1 << 16

	// avgBytesPerValue sizes block buffers for uint32 text.
	avgBytesPerValue = 11
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	// Count is the number of values to write.
	Count int

	// ChunkSize bounds how many values are held in memory at once. It is
	// rounded up to a multiple of 65536. Zero means DefaultChunkSize.
	ChunkSize int

	// Seed selects the random streams. Zero picks a random seed.
	Seed uint64

	// Pool fills chunks in parallel. Nil generates on the calling goroutine.
	Pool *workerpool.Pool
}

// Generate writes opts.Count uniformly distributed uint32 values to w, one
// per line. One chunk is generated while the previous one is written.
// It returns the number of bytes written.
func Generate(ctx context.Context, w io.Writer, opts GenerateOptions) (int64, error) {
	if opts.Count < 0 {
		return 0, fmt.Errorf("numfile: generate: negative count %d", opts.Count)
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkSize = (chunkSize + genBlock - 1) / genBlock * genBlock
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	chunks := make(chan [][]byte, 1)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		for first := 0; first < opts.Count; first += chunkSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := min(chunkSize, opts.Count-first)
			blocks := fillChunk(opts.Pool, seed, first, n)
			select {
			case chunks <- blocks:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var written int64
	g.Go(func() error {
		bw := bufio.NewWriterSize(w, BufferSize)
		for blocks := range chunks {
			for _, b := range blocks {
				n, err := bw.Write(b)
				written += int64(n)
				if err != nil {
					return fmt.Errorf("numfile: generate: %w", err)
				}
			}
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("numfile: generate: %w", err)
		}
		return nil
	})

	err := g.Wait()
	return written, err
}

// fillChunk formats n values starting at global index first, one buffer per
// block.
func fillChunk(pool *workerpool.Pool, seed uint64, first, n int) [][]byte {
	numBlocks := (n + genBlock - 1) / genBlock
	blocks := make([][]byte, numBlocks)
	pool.ParallelFor(numBlocks, func(start, end int) {
		for b := start; b < end; b++ {
			lo := b * genBlock
			hi := min(lo+genBlock, n)
			r := rand.New(rand.NewPCG(seed, uint64(first/genBlock+b)))
			buf := make([]byte, 0, (hi-lo)*avgBytesPerValue)
			for range hi - lo {
				buf = append(Append(buf, r.Uint32()), '\n')
			}
			blocks[b] = buf
		}
	})
	return blocks
}

// GenerateFile creates or truncates path and fills it with Generate.
func GenerateFile(ctx context.Context, path string, opts GenerateOptions) (written int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("numfile: generate: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("numfile: generate: %w", cerr)
		}
	}()
	return Generate(ctx, f, opts)
}
