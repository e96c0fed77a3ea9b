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

package store

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPaths(t *testing.T) {
	Convey("Given an optimized data directory root", t, func() {
		root := "/data/optimized"

		Convey("PartitionPath builds type=/day= paths", func() {
			So(PartitionPath(root, "impression", "2024-01-15"),
				ShouldEqual, "/data/optimized/partitioned/type=impression/day=2024-01-15.cdb")
		})

		Convey("AggregatePath builds an aggregates/ path", func() {
			So(AggregatePath(root, "daily_revenue"),
				ShouldEqual, "/data/optimized/aggregates/daily_revenue.cdb")
		})

		Convey("StatsPath builds the top-level stats file path", func() {
			So(StatsPath(root), ShouldEqual, "/data/optimized/stats.cdb")
		})

		Convey("TempPartitionPath disambiguates by worker and shard stem", func() {
			p1 := TempPartitionPath(root, 2, "purchase", "2024-01-15", "events_part_003")
			p2 := TempPartitionPath(root, 3, "purchase", "2024-01-15", "events_part_003")

			So(p1, ShouldEqual,
				"/data/optimized/temp/worker_2/type=purchase/2024-01-15_events_part_003.cdb")
			So(p1, ShouldNotEqual, p2)
		})
	})
}

func TestListing(t *testing.T) {
	Convey("Given a populated optimized directory", t, func() {
		root := t.TempDir()

		mkFile := func(p string) {
			So(os.MkdirAll(filepath.Dir(p), 0o750), ShouldBeNil)
			So(os.WriteFile(p, []byte("x"), 0o600), ShouldBeNil)
		}

		mkFile(PartitionPath(root, "impression", "2024-01-15"))
		mkFile(PartitionPath(root, "impression", "2024-01-16"))
		mkFile(PartitionPath(root, "purchase", "2024-01-15"))
		mkFile(AggregatePath(root, "daily_revenue"))
		mkFile(AggregatePath(root, "country_revenue"))

		Convey("ListTypes returns every type dir, sorted", func() {
			types, err := ListTypes(root)
			So(err, ShouldBeNil)
			So(types, ShouldResemble, []string{"impression", "purchase"})
		})

		Convey("ListPartitions returns every day for one type, sorted", func() {
			days, err := ListPartitions(root, "impression")
			So(err, ShouldBeNil)
			So(days, ShouldResemble, []string{"2024-01-15", "2024-01-16"})
		})

		Convey("ListPartitions on an absent type returns nil, not an error", func() {
			days, err := ListPartitions(root, "click")
			So(err, ShouldBeNil)
			So(days, ShouldBeNil)
		})

		Convey("ListAggregates returns every rollup name, sorted", func() {
			names, err := ListAggregates(root)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"country_revenue", "daily_revenue"})
		})
	})

	Convey("Given a fresh directory with nothing under it", t, func() {
		root := t.TempDir()

		Convey("ListTypes returns nil, not an error", func() {
			types, err := ListTypes(root)
			So(err, ShouldBeNil)
			So(types, ShouldBeNil)
		})

		Convey("ListAggregates returns nil, not an error", func() {
			names, err := ListAggregates(root)
			So(err, ShouldBeNil)
			So(names, ShouldBeNil)
		})
	})
}
