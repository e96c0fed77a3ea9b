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

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/store"
)

type partitionGroup struct {
	eventType string
	day       string
	files     []string
}

// mergePartitions gathers every worker's temp shard files, grouped by
// (type, day), and produces the final partition for each group: a single
// file is renamed into place, several are concatenated (one decompressed
// at a time) and optionally sorted by timestamp before being written out.
// This is the single-coordinator, sequential merge step: groups are
// processed one at a time, never more than one group's data in memory.
func mergePartitions(optimizedDir string, profile Profile) error {
	groups, err := discoverPartitionGroups(optimizedDir)
	if err != nil {
		return err
	}

	for _, g := range groups {
		if err := mergeGroup(optimizedDir, g, profile); err != nil {
			return fmt.Errorf("merging type=%s day=%s: %w", g.eventType, g.day, err)
		}
	}

	return nil
}

// discoverPartitionGroups walks temp/worker_*/type=*/<day>_<stem>.cdb and
// groups file paths by (type, day). The directory tree itself is the only
// index of what was produced; no separate manifest is written.
func discoverPartitionGroups(optimizedDir string) ([]partitionGroup, error) {
	tempRoot := store.TempDir(optimizedDir)

	workerDirs, err := filepath.Glob(filepath.Join(tempRoot, "worker_*"))
	if err != nil {
		return nil, err
	}

	type key struct {
		eventType string
		day       string
	}

	byKey := make(map[key][]string)

	for _, workerDir := range workerDirs {
		typeDirs, err := filepath.Glob(filepath.Join(workerDir, "type=*"))
		if err != nil {
			return nil, err
		}

		for _, typeDir := range typeDirs {
			eventType := strings.TrimPrefix(filepath.Base(typeDir), "type=")

			files, err := filepath.Glob(filepath.Join(typeDir, "*"+store.Extension))
			if err != nil {
				return nil, err
			}

			for _, f := range files {
				day := strings.TrimSuffix(filepath.Base(f), store.Extension)
				if idx := strings.IndexByte(day, '_'); idx >= 0 {
					day = day[:idx]
				}

				k := key{eventType: eventType, day: day}
				byKey[k] = append(byKey[k], f)
			}
		}
	}

	groups := make([]partitionGroup, 0, len(byKey))
	for k, files := range byKey {
		sort.Strings(files)
		groups = append(groups, partitionGroup{eventType: k.eventType, day: k.day, files: files})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].eventType != groups[j].eventType {
			return groups[i].eventType < groups[j].eventType
		}

		return groups[i].day < groups[j].day
	})

	return groups, nil
}

func mergeGroup(optimizedDir string, g partitionGroup, profile Profile) error {
	dest := store.PartitionPath(optimizedDir, g.eventType, g.day)

	if err := store.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	if len(g.files) == 1 && !profile.SortWithinPartition {
		return os.Rename(g.files[0], dest)
	}

	var out *columnar.Batch

	for _, f := range g.files {
		r, err := columnar.Open(f)
		if err != nil {
			return err
		}

		part, err := r.ReadAll()
		closeErr := r.Close()

		if err != nil {
			return err
		}

		if closeErr != nil {
			return closeErr
		}

		if out == nil {
			out = part
		} else {
			out.Concat(part)
		}
	}

	if profile.SortWithinPartition {
		sortBatchByTS(out)
	}

	w := columnar.NewWriter(profile.CompressionLevel)

	return w.Write(dest, out)
}

// sortBatchByTS reorders every column of b in place so that b.Columns[ts]
// is ascending, stably preserving the relative order of equal timestamps.
func sortBatchByTS(b *columnar.Batch) {
	ts := b.Columns[event.TS]

	perm := make([]int, b.NumRows)
	for i := range perm {
		perm[i] = i
	}

	sort.SliceStable(perm, func(i, j int) bool {
		return ts.Ints[perm[i]] < ts.Ints[perm[j]]
	})

	for _, meta := range b.Schema {
		c := b.Columns[meta.Name]
		permuteColumn(c, perm)
	}
}

func permuteColumn(c *columnar.Column, perm []int) {
	switch c.Meta.Type {
	case columnar.TypeInt64, columnar.TypeDate:
		c.Ints = permuteInts(c.Ints, perm)
	case columnar.TypeFloat64:
		c.Floats = permuteFloats(c.Floats, perm)
	case columnar.TypeString:
		c.Strs = permuteStrs(c.Strs, perm)
	}

	if c.Valid != nil {
		c.Valid = permuteBools(c.Valid, perm)
	}
}

func permuteInts(s []int64, perm []int) []int64 {
	out := make([]int64, len(s))
	for i, p := range perm {
		out[i] = s[p]
	}

	return out
}

func permuteFloats(s []float64, perm []int) []float64 {
	out := make([]float64, len(s))
	for i, p := range perm {
		out[i] = s[p]
	}

	return out
}

func permuteStrs(s []string, perm []int) []string {
	out := make([]string, len(s))
	for i, p := range perm {
		out[i] = s[p]
	}

	return out
}

func permuteBools(s []bool, perm []int) []bool {
	out := make([]bool, len(s))
	for i, p := range perm {
		out[i] = s[p]
	}

	return out
}
