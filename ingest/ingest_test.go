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
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/rollup"
	"github.com/wtsi-hgi/adquery/store"
)

const scenarioCSV = `ts,type,auction_id,advertiser_id,publisher_id,bid_price,user_id,total_price,country
1704067200000,impression,a1,1,10,0.50,1,,US
1704067260000,impression,a2,1,10,1.50,1,,US
1704153600000,impression,a3,2,11,2.00,2,,DE
1704067200000,purchase,a4,1,10,,1,30.00,US
1704153600000,purchase,a5,2,11,,2,10.00,DE
`

func writeScenarioCSV(t *testing.T, dataDir string) {
	t.Helper()

	So(os.MkdirAll(dataDir, 0o750), ShouldBeNil)
	So(os.WriteFile(filepath.Join(dataDir, "events_part_001.csv"), []byte(scenarioCSV), 0o600), ShouldBeNil)
}

func TestRun(t *testing.T) {
	Convey("Given a raw CSV shard matching the specification's worked scenario", t, func() {
		base := t.TempDir()
		dataDir := filepath.Join(base, "raw")
		optimizedDir := filepath.Join(base, "optimized")

		writeScenarioCSV(t, dataDir)

		err := Run(context.Background(), dataDir, optimizedDir, ProfileDefault(), 2)
		So(err, ShouldBeNil)

		Convey("partitions exist for both days and both types", func() {
			days, err := store.ListPartitions(optimizedDir, event.Impression)
			So(err, ShouldBeNil)
			So(days, ShouldResemble, []string{"2024-01-01", "2024-01-02"})

			days, err = store.ListPartitions(optimizedDir, event.Purchase)
			So(err, ShouldBeNil)
			So(days, ShouldResemble, []string{"2024-01-01", "2024-01-02"})
		})

		Convey("impression partitions carry the expected rows and nulls", func() {
			r, err := columnar.Open(store.PartitionPath(optimizedDir, event.Impression, "2024-01-01"))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 2)

			total := b.Columns[event.TotalPrice]
			So(total.IsNull(0), ShouldBeTrue)
			So(total.IsNull(1), ShouldBeTrue)
		})

		Convey("every canonical rollup was built", func() {
			names, err := store.ListAggregates(optimizedDir)
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, len(rollup.All))
		})

		Convey("daily_revenue matches the hand-computed sums", func() {
			r, err := columnar.Open(store.AggregatePath(optimizedDir, rollup.DailyRevenue))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 2)

			sums := b.Columns["sum_bid_price"].Floats
			So(sums[0], ShouldEqual, 2.0)
			So(sums[1], ShouldEqual, 2.0)
		})

		Convey("stats.cdb reports the right totals", func() {
			r, err := columnar.Open(store.StatsPath(optimizedDir))
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 1)
			So(b.Columns["total_rows"].Ints[0], ShouldEqual, 5)
			So(b.Columns["distinct_countries"].Ints[0], ShouldEqual, 2)
		})

		Convey("temp directory is cleaned up", func() {
			_, err := os.Stat(store.TempDir(optimizedDir))
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	})
}

func TestRunUltraFastProfileSkipsTwoRollups(t *testing.T) {
	Convey("Given the ultra-fast profile", t, func() {
		base := t.TempDir()
		dataDir := filepath.Join(base, "raw")
		optimizedDir := filepath.Join(base, "optimized")

		writeScenarioCSV(t, dataDir)

		err := Run(context.Background(), dataDir, optimizedDir, ProfileUltraFast(), 1)
		So(err, ShouldBeNil)

		Convey("only four rollups are built", func() {
			names, err := store.ListAggregates(optimizedDir)
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, 4)
			So(names, ShouldNotContain, rollup.PublisherDayCountryRevenue)
			So(names, ShouldNotContain, rollup.MinuteRevenue)
		})
	})
}
