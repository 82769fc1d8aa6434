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
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajroetker/go-extsort/numfile"
)

// errNotSorted is returned by the checker for a readable, unsorted file.
var errNotSorted = errors.New("not sorted")

func newCheckerCmd(a *app) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "checker",
		Short: "Check that a file's values are in non-decreasing order",
		Long: `Reads --input-path one uint32 value per line and reports whether the values
are in non-decreasing order. A blank or malformed line fails the check with
its line number. The exit status is non-zero unless the file is sorted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := numfile.CheckFile[uint32](inputPath)
			if err != nil {
				return err
			}
			a.logger.Debug("checked", zap.String("input", inputPath), zap.Int("records", res.Records))

			if !res.Sorted {
				return fmt.Errorf("%s: %w: line %d is smaller than the line before it",
					inputPath, errNotSorted, res.InversionLine)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is sorted (%s numbers)\n", inputPath, humanize.Comma(int64(res.Records)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input-path", "i", "", "File to check")
	_ = cmd.MarkFlagRequired("input-path")
	return cmd
}
