/*******************************************************************************
 * Copyright (c) 2026 adquery contributors.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package cmd

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/adquery/ingest"
	"github.com/wtsi-hgi/adquery/store"
)

var (
	prepareDataDir      string
	prepareOptimizedDir string
	prepareWorkers      int
	prepareUltraFast    bool
)

// prepareCmd represents the prepare command.
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Convert raw event CSVs into the optimized columnar store.",
	Long: `Convert raw event CSVs into the optimized columnar store.

Reads every events_part_*.csv file in --data-dir, partitions the rows by
event type and day, and writes the partitioned columnar files plus the
canonical rollups under --optimized-dir. The optimized directory is
replaced wholesale; prepare is not incremental.`,
	Run: func(cmd *cobra.Command, args []string) {
		if prepareDataDir == "" {
			die("--data-dir is required")
		}

		if prepareOptimizedDir == "" {
			die("--optimized-dir is required")
		}

		profile := ingest.ProfileDefault()
		workers := prepareWorkers

		if prepareUltraFast {
			profile = ingest.ProfileUltraFast()
		}

		if workers <= 0 {
			if prepareUltraFast {
				workers = ingest.SpeedWorkers()
			} else {
				workers = ingest.DefaultWorkers()
			}
		}

		info("preparing %s -> %s with %d workers", prepareDataDir, prepareOptimizedDir, workers)

		start := time.Now()

		if err := ingest.Run(context.Background(), prepareDataDir, prepareOptimizedDir, profile, workers); err != nil {
			die("prepare failed: %s", err)
		}

		reportPrepareSummary(prepareOptimizedDir, time.Since(start))
	},
}

// reportPrepareSummary prints a human-readable summary of what prepare
// produced: how long it took, how much disk the optimized store occupies,
// and how many rollups were built.
func reportPrepareSummary(optimizedDir string, elapsed time.Duration) {
	size, err := dirSize(optimizedDir)
	if err != nil {
		warn("could not measure optimized dir size: %s", err)
	} else {
		cliPrint("optimized store size: %s\n", bytefmt.ByteSize(size))
	}

	names, err := store.ListAggregates(optimizedDir)
	if err != nil {
		warn("could not list aggregates: %s", err)
	} else {
		cliPrint("rollups built: %s\n", humanize.Comma(int64(len(names))))
	}

	cliPrint("prepare finished in %s\n", elapsed.Round(time.Millisecond))
}

// dirSize sums the size of every regular file under root.
func dirSize(root string) (uint64, error) {
	var total uint64

	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		total += uint64(info.Size())

		return nil
	})

	return total, err
}

func init() {
	RootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVar(&prepareDataDir, "data-dir", "", "directory of raw events_part_*.csv files (required)")
	prepareCmd.Flags().StringVar(&prepareOptimizedDir, "optimized-dir", "", "directory to write the optimized store to (required)")
	prepareCmd.Flags().IntVar(&prepareWorkers, "workers", 0, "number of ingest workers (default: profile-dependent)")
	prepareCmd.Flags().BoolVar(&prepareUltraFast, "ultra-fast", false, "use the reduced-rollup, fastest-compression profile")
}
