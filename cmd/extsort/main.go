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

// Command extsort generates, sorts and checks files of unsigned 32-bit
// integers, one per line, that may be larger than memory.
//
// Usage:
//
//	extsort generator --output-path data.txt --numbers-count 100000000
//	extsort sorter --input-path data.txt --output-path sorted.txt --exec-policy FullPar
//	extsort checker --input-path sorted.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajroetker/go-extsort/internal/config"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	verbose    bool
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "extsort",
		Short: "Parallel external sort for newline-separated integer files",
		Long: `extsort sorts files of unsigned 32-bit integers that may not fit in memory.

Files larger than --max-size are split in half recursively, the pieces are
sorted in memory and merged back together through a private staging
directory. A single worker pool serves both the file recursion and the
in-memory merge sort; --exec-policy selects which of them may use it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "extsort.yaml", "Configuration file (missing file means defaults)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", config.FormatJSON, "Log format: json or console")

	root.AddCommand(newGeneratorCmd(a))
	root.AddCommand(newSorterCmd(a))
	root.AddCommand(newCheckerCmd(a))
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.BuildLogger(a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
