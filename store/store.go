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

// Package store is the sole place that knows the on-disk layout of an
// optimized data directory:
//
//	R/partitioned/type=<T>/day=<YYYY-MM-DD>.cdb
//	R/aggregates/<rollup-name>.cdb
//	R/stats.cdb
//	R/temp/worker_<W>/type=<T>/<YYYY-MM-DD>_<shard-stem>.cdb
//
// Temp file names carry no "day=" prefix. No separate metadata index is
// kept; directory listing under partitioned/ and aggregates/ is itself the
// index of what exists. Paths are built by these functions; the one
// exception is ingest's merge step, which discovers temp files by globbing
// the temp tree and parsing the type and day out of the names.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// Extension is the filename suffix used for every columnar file
	// (partitions, rollups, the stats file).
	Extension = ".cdb"

	dirPartitioned = "partitioned"
	dirAggregates  = "aggregates"
	dirTemp        = "temp"
	statsBasename  = "stats" + Extension
)

// PartitionPath returns the path of the partition file for one (type, day)
// pair within an optimized data directory.
func PartitionPath(root, eventType, day string) string {
	return filepath.Join(root, dirPartitioned, typeDir(eventType), dayBasename(day))
}

// AggregatePath returns the path of the named rollup's file.
func AggregatePath(root, rollupName string) string {
	return filepath.Join(root, dirAggregates, rollupName+Extension)
}

// StatsPath returns the path of the store-wide stats file.
func StatsPath(root string) string {
	return filepath.Join(root, statsBasename)
}

// TempPartitionPath returns the path a worker should write an in-progress
// (type, day) shard to, disambiguated by worker index and shard stem so
// concurrent workers never write the same file.
func TempPartitionPath(root string, worker int, eventType, day, shardStem string) string {
	return filepath.Join(
		root, dirTemp, fmt.Sprintf("worker_%d", worker), typeDir(eventType),
		fmt.Sprintf("%s_%s%s", day, shardStem, Extension),
	)
}

// TempDir returns the root of the temp tree, for cleanup.
func TempDir(root string) string {
	return filepath.Join(root, dirTemp)
}

// PartitionedDir returns the root of the partitioned tree.
func PartitionedDir(root string) string {
	return filepath.Join(root, dirPartitioned)
}

// AggregatesDir returns the root of the aggregates tree.
func AggregatesDir(root string) string {
	return filepath.Join(root, dirAggregates)
}

func typeDir(eventType string) string {
	return "type=" + eventType
}

func dayBasename(day string) string {
	return "day=" + day + Extension
}

// ListTypes lists the event types that have at least one partition on disk,
// sorted for deterministic iteration.
func ListTypes(root string) ([]string, error) {
	entries, err := os.ReadDir(PartitionedDir(root))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		if name, ok := strings.CutPrefix(e.Name(), "type="); ok {
			types = append(types, name)
		}
	}

	sort.Strings(types)

	return types, nil
}

// ListPartitions lists the days for which eventType has a partition file on
// disk, sorted ascending. Each entry is the YYYY-MM-DD day string, not a
// full path; use PartitionPath to get the file.
func ListPartitions(root, eventType string) ([]string, error) {
	dir := filepath.Join(PartitionedDir(root), typeDir(eventType))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "day=") || !strings.HasSuffix(name, Extension) {
			continue
		}

		day := strings.TrimSuffix(strings.TrimPrefix(name, "day="), Extension)
		days = append(days, day)
	}

	sort.Strings(days)

	return days, nil
}

// ListAggregates lists the rollup names present under aggregates/.
func ListAggregates(root string) ([]string, error) {
	entries, err := os.ReadDir(AggregatesDir(root))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), Extension); ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names, nil
}

// EnsureDir creates dir (and any missing parents) with permissions
// consistent with the rest of the store.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}
