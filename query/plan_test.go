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

package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/adquery/rollup"
)

func TestPlanMatchesRollupShapes(t *testing.T) {
	Convey("Given queries shaped exactly like each canonical rollup", t, func() {
		cases := []struct {
			name string
			q    Query
			want string
		}{
			{
				name: "daily revenue",
				q: Query{
					Select:  []SelectItem{Col("day"), Agg(SUM, "bid_price")},
					Where:   []Predicate{{Col: "type", Op: OpEq, Val: "impression"}},
					GroupBy: []string{"day"},
				},
				want: rollup.DailyRevenue,
			},
			{
				name: "country purchases",
				q: Query{
					Select:  []SelectItem{Col("country"), Agg(AVG, "total_price")},
					Where:   []Predicate{{Col: "type", Op: OpEq, Val: "purchase"}},
					GroupBy: []string{"country"},
				},
				want: rollup.CountryPurchases,
			},
			{
				name: "advertiser type",
				q: Query{
					Select:  []SelectItem{Col("advertiser_id"), Col("type"), Agg(COUNT, "*")},
					GroupBy: []string{"advertiser_id", "type"},
				},
				want: rollup.AdvertiserTypeCounts,
			},
			{
				name: "minute revenue",
				q: Query{
					Select: []SelectItem{Col("minute"), Agg(SUM, "bid_price")},
					Where: []Predicate{
						{Col: "type", Op: OpEq, Val: "impression"},
						{Col: "day", Op: OpEq, Val: "2024-01-01"},
					},
					GroupBy: []string{"minute"},
				},
				want: rollup.MinuteRevenue,
			},
			{
				name: "publisher revenue with day between",
				q: Query{
					Select: []SelectItem{Col("publisher_id"), Agg(SUM, "bid_price")},
					Where: []Predicate{
						{Col: "type", Op: OpEq, Val: "impression"},
						{Col: "day", Op: OpBetween, Val: []any{"2024-01-01", "2024-01-01"}},
					},
					GroupBy: []string{"publisher_id"},
				},
				want: rollup.PublisherDayCountryRevenue,
			},
		}

		for _, c := range cases {
			c := c

			Convey(c.name+" routes to its rollup", func() {
				plan := Plan(c.q)
				So(plan.Kind, ShouldEqual, PlanRollup)
				So(plan.RollupName, ShouldEqual, c.want)
			})
		}
	})

	Convey("A query with an extra where clause falls back to a scan", t, func() {
		q := Query{
			Select: []SelectItem{Col("country"), Agg(SUM, "bid_price")},
			Where: []Predicate{
				{Col: "type", Op: OpEq, Val: "impression"},
				{Col: "country", Op: OpIn, Val: []any{"US"}},
			},
			GroupBy: []string{"country"},
		}

		plan := Plan(q)
		So(plan.Kind, ShouldEqual, PlanScan)
	})
}

func TestDeterminePartitionsPruning(t *testing.T) {
	Convey("A type eq filter restricts the scanned types", t, func() {
		types, days := determinePartitions([]Predicate{{Col: "type", Op: OpEq, Val: "impression"}})
		So(types, ShouldResemble, []string{"impression"})
		So(days, ShouldBeNil)
	})

	Convey("A day eq filter restricts the scanned days", t, func() {
		_, days := determinePartitions([]Predicate{{Col: "day", Op: OpEq, Val: "2024-01-01"}})
		So(days, ShouldResemble, []string{"2024-01-01"})
	})

	Convey("A day between filter does not prune days on the scan path", t, func() {
		_, days := determinePartitions([]Predicate{
			{Col: "day", Op: OpBetween, Val: []any{"2024-01-01", "2024-01-02"}},
		})
		So(days, ShouldBeNil)
	})
}

func TestDetermineColumnsUnion(t *testing.T) {
	Convey("determineColumns unions select, where, group_by and order_by columns", t, func() {
		q := Query{
			Select:  []SelectItem{Col("country"), Agg(SUM, "bid_price")},
			Where:   []Predicate{{Col: "type", Op: OpEq, Val: "impression"}},
			GroupBy: []string{"country"},
			OrderBy: []OrderItem{{Col: "sum(bid_price)"}, {Col: "country"}},
		}

		cols := determineColumns(q)
		So(cols, ShouldContain, "country")
		So(cols, ShouldContain, "bid_price")
		So(cols, ShouldContain, "type")
		So(cols, ShouldNotContain, "sum(bid_price)")
	})
}
