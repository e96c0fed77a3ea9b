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

// Package ingest converts raw event CSVs into the optimized, partitioned
// columnar store that rollup and query read. One parameterized pipeline
// replaces what upstream had as three near-duplicate prepare scripts; the
// differences between "default" and "ultra-fast" preparation are captured
// as a Profile rather than as separate code paths.
package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/log15"
	"github.com/klauspost/compress/zstd"

	"github.com/wtsi-hgi/adquery/rollup"
	"github.com/wtsi-hgi/adquery/store"
)

// Profile controls the cost/completeness tradeoffs of one ingest run.
type Profile struct {
	CompressionLevel    zstd.EncoderLevel
	SortWithinPartition bool
	Rollups             map[string]bool
}

// ProfileDefault builds every rollup at a balanced compression level and
// leaves partitions in file order, matching the "rich" prepare variant.
func ProfileDefault() Profile {
	enabled := make(map[string]bool, len(rollup.All))
	for _, name := range rollup.All {
		enabled[name] = true
	}

	return Profile{
		CompressionLevel:    zstd.SpeedDefault,
		SortWithinPartition: false,
		Rollups:             enabled,
	}
}

// ProfileUltraFast trades completeness for speed: it skips the two most
// expensive group-bys (publisher_day_country_revenue groups on three keys,
// minute_revenue has the highest-cardinality key of any rollup) and
// compresses at the fastest zstd level.
func ProfileUltraFast() Profile {
	return Profile{
		CompressionLevel:    zstd.SpeedFastest,
		SortWithinPartition: false,
		Rollups: map[string]bool{
			rollup.DailyRevenue:         true,
			rollup.CountryRevenue:       true,
			rollup.CountryPurchases:     true,
			rollup.AdvertiserTypeCounts: true,
		},
	}
}

// DefaultWorkers returns the worker count for the memory-conservative
// default: three quarters of the available CPUs, rounded up, capped at 6
// (and never fewer than 1).
func DefaultWorkers() int {
	n := int(math.Ceil(0.75 * float64(runtime.NumCPU())))
	if n > 6 {
		n = 6
	}

	if n < 1 {
		n = 1
	}

	return n
}

// SpeedWorkers returns the worker count for a throughput-optimized run: at
// most 10, and no more than every available CPU.
func SpeedWorkers() int {
	n := runtime.NumCPU()
	if n > 10 {
		n = 10
	}

	return n
}

// Run executes the full pipeline: clean start, parallel shard ingestion,
// sequential merge, rollup build, and stats. The optimized directory is
// removed and rebuilt from scratch; Run is not incremental.
func Run(ctx context.Context, dataDir, optimizedDir string, profile Profile, numWorkers int) error {
	logger := log15.New("component", "ingest")

	if numWorkers < 1 {
		numWorkers = 1
	}

	if err := os.RemoveAll(optimizedDir); err != nil {
		return fmt.Errorf("ingest: cleaning optimized dir: %w", err)
	}

	shards, err := filepath.Glob(filepath.Join(dataDir, "events_part_*.csv"))
	if err != nil {
		return fmt.Errorf("ingest: globbing input csvs: %w", err)
	}

	if len(shards) == 0 {
		return fmt.Errorf("ingest: no events_part_*.csv files found in %s", dataDir) //nolint:err113
	}

	sort.Strings(shards)

	logger.Info("ingesting shards", "count", len(shards), "workers", numWorkers)

	if err := ingestShards(ctx, shards, optimizedDir, profile, numWorkers, logger); err != nil {
		return err
	}

	logger.Info("merging partitions")

	if err := mergePartitions(optimizedDir, profile); err != nil {
		return fmt.Errorf("ingest: merging partitions: %w", err)
	}

	logger.Info("building rollups")

	if err := rollup.BuildAll(optimizedDir, profile.Rollups, profile.CompressionLevel); err != nil {
		return fmt.Errorf("ingest: building rollups: %w", err)
	}

	logger.Info("writing stats")

	if err := writeStats(optimizedDir, profile.CompressionLevel); err != nil {
		return fmt.Errorf("ingest: writing stats: %w", err)
	}

	if err := os.RemoveAll(store.TempDir(optimizedDir)); err != nil {
		return fmt.Errorf("ingest: cleaning temp dir: %w", err)
	}

	logger.Info("ingest complete")

	return nil
}

// ingestShards runs the per-shard worker pool and aggregates every worker's
// error via multierror, cancelling ctx on the first failure so idle workers
// stop picking up new shards (in-flight shards still finish or fail on
// their own).
func ingestShards(
	ctx context.Context, shards []string, optimizedDir string, profile Profile, numWorkers int, logger log15.Logger,
) error {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			results <- runWorker(workerCtx, worker, shards, numWorkers, optimizedDir, profile, cancel, logger)
		}(w)
	}

	var combined *multierror.Error

	for i := 0; i < numWorkers; i++ {
		if err := <-results; err != nil {
			combined = multierror.Append(combined, err)
		}
	}

	return combined.ErrorOrNil()
}

// runWorker processes every shard whose index modulo numWorkers selects
// this worker, cancelling cancel on its first error so siblings stop
// picking up new shards.
func runWorker(
	ctx context.Context, worker int, shards []string, numWorkers int,
	optimizedDir string, profile Profile, cancel context.CancelFunc, logger log15.Logger,
) error {
	for i, shard := range shards {
		if i%numWorkers != worker {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := ingestShard(worker, shard, optimizedDir, profile); err != nil {
			cancel()

			return fmt.Errorf("ingest: worker %d on %s: %w", worker, shard, err)
		}

		logger.Debug("shard ingested", "worker", worker, "shard", shard)
	}

	return nil
}
