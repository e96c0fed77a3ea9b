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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/store"
)

type bucketKey struct {
	eventType string
	day       int64
}

// ingestShard streams one CSV shard, buckets its rows in memory by
// (type, day) and writes each bucket as its own temp partition file. Only
// this shard's rows are ever held in memory at once, never the whole
// dataset or even a whole worker's full assignment.
func ingestShard(worker int, shardPath, optimizedDir string, profile Profile) error {
	f, err := os.Open(shardPath)
	if err != nil {
		return fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	parser := NewRowParser(f)
	buckets := make(map[bucketKey]*columnar.Batch)

	var row Row

	for {
		if err := parser.Scan(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("parsing %s: %w", shardPath, err)
		}

		k := bucketKey{eventType: row.Type, day: row.Day}

		b, ok := buckets[k]
		if !ok {
			b = columnar.NewBatch(event.Schema())
			buckets[k] = b
		}

		appendEventRow(b, &row)
	}

	shardStem := strings.TrimSuffix(filepath.Base(shardPath), filepath.Ext(shardPath))

	w := columnar.NewWriter(profile.CompressionLevel)

	for k, b := range buckets {
		day := event.DateString(k.day)
		path := store.TempPartitionPath(optimizedDir, worker, k.eventType, day, shardStem)

		if err := store.EnsureDir(filepath.Dir(path)); err != nil {
			return fmt.Errorf("creating temp dir: %w", err)
		}

		// Shard stems are expected to disambiguate within a worker's (type,
		// day) bucket already, but two input files sharing a basename (e.g.
		// fed from different source directories) would otherwise clobber
		// each other here; fall back to a UUID suffix rather than overwrite.
		if _, err := os.Stat(path); err == nil {
			path = strings.TrimSuffix(path, store.Extension) + "_" + uuid.NewString() + store.Extension
		}

		if err := w.Write(path, b); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return nil
}

func appendEventRow(out *columnar.Batch, r *Row) {
	appendInt(out.Columns[event.TS], r.TS)
	appendStr(out.Columns[event.Type], r.Type)
	appendStr(out.Columns[event.AuctionID], r.AuctionID)
	appendInt(out.Columns[event.AdvertiserID], r.AdvertiserID)
	appendInt(out.Columns[event.PublisherID], r.PublisherID)
	appendNullableFloat(out.Columns[event.BidPrice], r.BidPrice, r.BidPriceNull)
	appendInt(out.Columns[event.UserID], r.UserID)
	appendNullableFloat(out.Columns[event.TotalPrice], r.TotalPrice, r.TotalPriceNull)
	appendStr(out.Columns[event.Country], r.Country)
	appendInt(out.Columns[event.Day], r.Day)
	appendInt(out.Columns[event.Week], r.Week)
	appendInt(out.Columns[event.Hour], r.Hour)
	appendStr(out.Columns[event.Minute], r.Minute)

	out.NumRows++
}

func appendInt(c *columnar.Column, v int64) {
	c.Ints = append(c.Ints, v)
}

func appendStr(c *columnar.Column, v string) {
	c.Strs = append(c.Strs, v)
}

// appendNullableFloat appends v to c, lazily materializing c.Valid (all
// true for every row already appended) the first time a null is seen, so a
// column with no nulls at all keeps a nil Valid slice.
func appendNullableFloat(c *columnar.Column, v float64, isNull bool) {
	if isNull {
		ensureValid(c)
		c.Floats = append(c.Floats, 0)
		c.Valid = append(c.Valid, false)

		return
	}

	c.Floats = append(c.Floats, v)

	if c.Valid != nil {
		c.Valid = append(c.Valid, true)
	}
}

func ensureValid(c *columnar.Column) {
	if c.Valid != nil {
		return
	}

	c.Valid = make([]bool, len(c.Floats))
	for i := range c.Valid {
		c.Valid[i] = true
	}
}
