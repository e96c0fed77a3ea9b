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

package rollup

import (
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/store"
)

// writeScenarioPartitions lays out the five rows from the specification's
// worked scenarios as partitions under root, split by (type, day).
func writeScenarioPartitions(t *testing.T, root string) {
	t.Helper()

	day1, err := event.ParseDate("2024-01-01")
	So(err, ShouldBeNil)

	day2, err := event.ParseDate("2024-01-02")
	So(err, ShouldBeNil)

	w := columnar.NewWriter(zstd.SpeedFastest)

	writePartition := func(eventType string, day int64, rows func(b *columnar.Batch)) {
		b := columnar.NewBatch(event.Schema())
		rows(b)

		path := store.PartitionPath(root, eventType, event.DateString(day))
		So(store.EnsureDir(filepath.Dir(path)), ShouldBeNil)
		So(w.Write(path, b), ShouldBeNil)
	}

	addRow := func(b *columnar.Batch, advertiserID, publisherID int64, bidPrice *float64,
		totalPrice *float64, country string, day, typ string) {
		set := func(name string, v any) {
			c := b.Columns[name]
			switch x := v.(type) {
			case int64:
				c.Ints = append(c.Ints, x)
			case string:
				c.Strs = append(c.Strs, x)
			}
		}

		set(event.TS, int64(0))
		set(event.Type, typ)
		set(event.AuctionID, "a")
		set(event.AdvertiserID, advertiserID)
		set(event.PublisherID, publisherID)
		set(event.UserID, int64(1))
		set(event.Country, country)

		d, _ := event.ParseDate(day)
		set(event.Day, d)
		set(event.Week, d)
		set(event.Hour, int64(0))
		set(event.Minute, day+" 00:00")

		bp := b.Columns[event.BidPrice]
		if bidPrice != nil {
			bp.Floats = append(bp.Floats, *bidPrice)
		} else {
			bp.Floats = append(bp.Floats, 0)
		}

		tp := b.Columns[event.TotalPrice]
		if totalPrice != nil {
			tp.Floats = append(tp.Floats, *totalPrice)
		} else {
			tp.Floats = append(tp.Floats, 0)
		}

		b.NumRows++
	}

	f := func(v float64) *float64 { return &v }

	writePartition(event.Impression, day1, func(b *columnar.Batch) {
		addRow(b, 1, 10, f(0.50), nil, "US", "2024-01-01", event.Impression)
		addRow(b, 1, 10, f(1.50), nil, "US", "2024-01-01", event.Impression)
	})
	writePartition(event.Impression, day2, func(b *columnar.Batch) {
		addRow(b, 2, 11, f(2.00), nil, "DE", "2024-01-02", event.Impression)
	})
	writePartition(event.Purchase, day1, func(b *columnar.Batch) {
		addRow(b, 1, 10, nil, f(30.00), "US", "2024-01-01", event.Purchase)
	})
	writePartition(event.Purchase, day2, func(b *columnar.Batch) {
		addRow(b, 2, 11, nil, f(10.00), "DE", "2024-01-02", event.Purchase)
	})
}

func TestBuildAll(t *testing.T) {
	Convey("Given the specification's five-row scenario corpus", t, func() {
		root := t.TempDir()
		writeScenarioPartitions(t, root)

		enabled := make(map[string]bool)
		for _, name := range All {
			enabled[name] = true
		}

		So(BuildAll(root, enabled, zstd.SpeedFastest), ShouldBeNil)

		Convey("daily_revenue is sorted ascending by day with the right sums", func() {
			r, err := columnar.Open(store.AggregatePath(root, DailyRevenue))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 2)

			days := b.Columns[event.Day].Ints
			So(event.DateString(days[0]), ShouldEqual, "2024-01-01")
			So(event.DateString(days[1]), ShouldEqual, "2024-01-02")

			sums := b.Columns["sum_bid_price"].Floats
			So(sums[0], ShouldEqual, 2.0)
			So(sums[1], ShouldEqual, 2.0)
		})

		Convey("country_purchases has one row per country with matching avg", func() {
			r, err := columnar.Open(store.AggregatePath(root, CountryPurchases))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 2)

			byCountry := make(map[string]float64)
			countries := b.Columns[event.Country].Strs
			avgs := b.Columns["avg_total_price"].Floats

			for i := range countries {
				byCountry[countries[i]] = avgs[i]
			}

			So(byCountry["US"], ShouldEqual, 30.0)
			So(byCountry["DE"], ShouldEqual, 10.0)
		})

		Convey("advertiser_type_counts has one row per (advertiser_id, type)", func() {
			r, err := columnar.Open(store.AggregatePath(root, AdvertiserTypeCounts))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 4)
		})
	})
}
