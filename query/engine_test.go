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

package query_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/adquery/ingest"
	"github.com/wtsi-hgi/adquery/query"
)

const scenarioCSV = `ts,type,auction_id,advertiser_id,publisher_id,bid_price,user_id,total_price,country
1704067200000,impression,a1,1,10,0.50,1,,US
1704067260000,impression,a2,1,10,1.50,1,,US
1704153600000,impression,a3,2,11,2.00,2,,DE
1704067200000,purchase,a4,1,10,,1,30.00,US
1704153600000,purchase,a5,2,11,,2,10.00,DE
`

func buildScenarioStore(t *testing.T) *query.Engine {
	t.Helper()

	base := t.TempDir()
	dataDir := filepath.Join(base, "raw")
	optimizedDir := filepath.Join(base, "optimized")

	So(os.MkdirAll(dataDir, 0o750), ShouldBeNil)
	So(os.WriteFile(filepath.Join(dataDir, "events_part_001.csv"), []byte(scenarioCSV), 0o600), ShouldBeNil)

	So(ingest.Run(context.Background(), dataDir, optimizedDir, ingest.ProfileDefault(), 2), ShouldBeNil)

	return query.New(optimizedDir)
}

// toKeyInt renders an int64-typed cell (group keys on integer columns come
// back as int64) as a string, for use as a composite map key in tests.
func toKeyInt(v any) string {
	return strconv.FormatInt(v.(int64), 10)
}

func toInt64(v any) int64 {
	return v.(int64)
}

func TestScenarios(t *testing.T) {
	Convey("Given the specification's five-row scenario corpus", t, func() {
		engine := buildScenarioStore(t)

		Convey("S1 DailyRevenue routes through the rollup and sums per day", func() {
			q, err := query.Parse([]byte(`{
				"select": ["day", {"SUM": "bid_price"}],
				"from": "events",
				"where": [{"col": "type", "op": "eq", "val": "impression"}],
				"group_by": ["day"]
			}`))
			So(err, ShouldBeNil)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 2)

			byDay := make(map[string]float64)
			for _, row := range table.Rows {
				byDay[row[0].(string)] = row[1].(float64)
			}

			So(byDay["2024-01-01"], ShouldEqual, 2.0)
			So(byDay["2024-01-02"], ShouldEqual, 2.0)
		})

		Convey("S2 CountryPurchases averages total_price per country", func() {
			q, err := query.Parse([]byte(`{
				"select": ["country", {"AVG": "total_price"}],
				"from": "events",
				"where": [{"col": "type", "op": "eq", "val": "purchase"}],
				"group_by": ["country"]
			}`))
			So(err, ShouldBeNil)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 2)

			byCountry := make(map[string]float64)
			for _, row := range table.Rows {
				byCountry[row[0].(string)] = row[1].(float64)
			}

			So(byCountry["DE"], ShouldEqual, 10.00)
			So(byCountry["US"], ShouldEqual, 30.00)
		})

		Convey("S3 AdvertiserType counts rows per (advertiser_id, type)", func() {
			q, err := query.Parse([]byte(`{
				"select": ["advertiser_id", "type", {"COUNT": "*"}],
				"from": "events",
				"group_by": ["advertiser_id", "type"]
			}`))
			So(err, ShouldBeNil)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 4)

			counts := make(map[string]int64)
			for _, row := range table.Rows {
				key := toKeyInt(row[0]) + "/" + row[1].(string)
				counts[key] = toInt64(row[2])
			}

			So(counts["1/impression"], ShouldEqual, 2)
			So(counts["2/impression"], ShouldEqual, 1)
			So(counts["1/purchase"], ShouldEqual, 1)
			So(counts["2/purchase"], ShouldEqual, 1)
		})

		Convey("S4 PublisherRevenue with a day between filter", func() {
			q, err := query.Parse([]byte(`{
				"select": ["publisher_id", {"SUM": "bid_price"}],
				"from": "events",
				"where": [
					{"col": "type", "op": "eq", "val": "impression"},
					{"col": "day", "op": "between", "val": ["2024-01-01", "2024-01-01"]}
				],
				"group_by": ["publisher_id"]
			}`))
			So(err, ShouldBeNil)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 1)
			So(toKeyInt(table.Rows[0][0]), ShouldEqual, "10")
			So(table.Rows[0][1], ShouldEqual, 2.00)
		})

		Convey("S5 MinuteRevenue filtered by day and ordered ascending", func() {
			q, err := query.Parse([]byte(`{
				"select": ["minute", {"SUM": "bid_price"}],
				"from": "events",
				"where": [
					{"col": "type", "op": "eq", "val": "impression"},
					{"col": "day", "op": "eq", "val": "2024-01-01"}
				],
				"group_by": ["minute"],
				"order_by": [{"col": "minute", "dir": "asc"}]
			}`))
			So(err, ShouldBeNil)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 2)

			So(table.Rows[0][0], ShouldEqual, "2024-01-01 00:00")
			So(table.Rows[0][1], ShouldEqual, 0.50)
			So(table.Rows[1][0], ShouldEqual, "2024-01-01 00:01")
			So(table.Rows[1][1], ShouldEqual, 1.50)
		})

		Convey("S6 falls back to a scan when no rollup shape matches", func() {
			q, err := query.Parse([]byte(`{
				"select": ["country", {"SUM": "bid_price"}],
				"from": "events",
				"where": [
					{"col": "type", "op": "eq", "val": "impression"},
					{"col": "country", "op": "in", "val": ["US"]}
				],
				"group_by": ["country"]
			}`))
			So(err, ShouldBeNil)

			plan := query.Plan(q)
			So(plan.Kind, ShouldEqual, query.PlanScan)

			table, _, err := engine.Execute(q)
			So(err, ShouldBeNil)
			So(table.Rows, ShouldHaveLength, 1)
			So(table.Rows[0][0], ShouldEqual, "US")
			So(table.Rows[0][1], ShouldEqual, 2.00)
		})

		Convey("cache transparency: repeated execution returns independent, equal tables", func() {
			q, err := query.Parse([]byte(`{
				"select": ["day", {"SUM": "bid_price"}],
				"from": "events",
				"where": [{"col": "type", "op": "eq", "val": "impression"}],
				"group_by": ["day"]
			}`))
			So(err, ShouldBeNil)

			first, _, err := engine.Execute(q)
			So(err, ShouldBeNil)

			second, _, err := engine.Execute(q)
			So(err, ShouldBeNil)

			So(first.Rows, ShouldResemble, second.Rows)

			first.Rows[0][1] = 999.0
			So(second.Rows[0][1], ShouldNotEqual, 999.0)
		})
	})
}
