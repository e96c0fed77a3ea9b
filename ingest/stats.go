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
	"github.com/klauspost/compress/zstd"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/store"
)

// writeStats scans every finished partition once to compute store-wide
// summary statistics and writes them as a one-row columnar file, the same
// typed format used for partitions and rollups rather than upstream's ad
// hoc key/value table.
func writeStats(optimizedDir string, level zstd.EncoderLevel) error {
	var (
		totalRows      int64
		minDay, maxDay int64
		haveDay        bool
		countries      = make(map[string]struct{})
		advertisers    = make(map[int64]struct{})
		publishers     = make(map[int64]struct{})
		countsByType   = make(map[string]int64, len(event.Types))
	)

	for _, eventType := range event.Types {
		days, err := store.ListPartitions(optimizedDir, eventType)
		if err != nil {
			return err
		}

		for _, day := range days {
			r, err := columnar.Open(store.PartitionPath(optimizedDir, eventType, day))
			if err != nil {
				return err
			}

			b, err := r.ReadColumns([]string{event.Day, event.Country, event.AdvertiserID, event.PublisherID})
			closeErr := r.Close()

			if err != nil {
				return err
			}

			if closeErr != nil {
				return closeErr
			}

			countsByType[eventType] += int64(b.NumRows)
			totalRows += int64(b.NumRows)

			// Day range is reported over impression partitions only: impressions
			// are the event every auction produces, so their day span is the
			// dataset's actual coverage window, unlike purchase/click which are
			// sparser subsets of it.
			if eventType == event.Impression {
				accumulateDayRange(b, &minDay, &maxDay, &haveDay)
			}

			accumulateStats(b, countries, advertisers, publishers)
		}
	}

	schema := []columnar.ColumnMeta{
		{Name: "total_rows", Type: columnar.TypeInt64},
		{Name: "min_day", Type: columnar.TypeDate},
		{Name: "max_day", Type: columnar.TypeDate},
		{Name: "distinct_countries", Type: columnar.TypeInt64},
		{Name: "distinct_advertisers", Type: columnar.TypeInt64},
		{Name: "distinct_publishers", Type: columnar.TypeInt64},
	}

	for _, t := range event.Types {
		schema = append(schema, columnar.ColumnMeta{Name: "count_" + t, Type: columnar.TypeInt64})
	}

	out := columnar.NewBatch(schema)

	appendInt(out.Columns["total_rows"], totalRows)
	appendInt(out.Columns["min_day"], minDay)
	appendInt(out.Columns["max_day"], maxDay)
	appendInt(out.Columns["distinct_countries"], int64(len(countries)))
	appendInt(out.Columns["distinct_advertisers"], int64(len(advertisers)))
	appendInt(out.Columns["distinct_publishers"], int64(len(publishers)))

	for _, t := range event.Types {
		appendInt(out.Columns["count_"+t], countsByType[t])
	}

	out.NumRows = 1

	w := columnar.NewWriter(level)

	return w.Write(store.StatsPath(optimizedDir), out)
}

func accumulateDayRange(b *columnar.Batch, minDay, maxDay *int64, haveDay *bool) {
	c, ok := b.Columns[event.Day]
	if !ok {
		return
	}

	for i := 0; i < c.Len(); i++ {
		d := c.Ints[i]

		if !*haveDay {
			*minDay, *maxDay = d, d
			*haveDay = true

			continue
		}

		if d < *minDay {
			*minDay = d
		}

		if d > *maxDay {
			*maxDay = d
		}
	}
}

func accumulateStats(
	b *columnar.Batch, countries map[string]struct{}, advertisers, publishers map[int64]struct{},
) {
	if c, ok := b.Columns[event.Country]; ok {
		for _, v := range c.Strs {
			countries[v] = struct{}{}
		}
	}

	if c, ok := b.Columns[event.AdvertiserID]; ok {
		for _, v := range c.Ints {
			advertisers[v] = struct{}{}
		}
	}

	if c, ok := b.Columns[event.PublisherID]; ok {
		for _, v := range c.Ints {
			publishers[v] = struct{}{}
		}
	}
}
