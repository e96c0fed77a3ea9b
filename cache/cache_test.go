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

package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/adquery/columnar"
)

func TestTableClone(t *testing.T) {
	Convey("Given a table with one row", t, func() {
		orig := NewTable([]string{"country", "total"})
		orig.Rows = [][]any{{"US", 30.0}}

		Convey("Clone produces an independent copy", func() {
			clone := orig.Clone()
			clone.Rows[0][1] = 999.0

			So(orig.Rows[0][1], ShouldEqual, 30.0)
			So(clone.Columns, ShouldResemble, orig.Columns)
		})

		Convey("Clone of a nil table is nil", func() {
			var nilTable *Table
			So(nilTable.Clone(), ShouldBeNil)
		})

		Convey("NumRows on a nil table is zero", func() {
			var nilTable *Table
			So(nilTable.NumRows(), ShouldEqual, 0)
		})
	})
}

func TestQueryHashIsStableAndDistinct(t *testing.T) {
	Convey("Given two different queries", t, func() {
		q1 := map[string]any{"select": []string{"day"}, "from": "events"}
		q2 := map[string]any{"select": []string{"country"}, "from": "events"}

		Convey("the same query always hashes the same", func() {
			So(QueryHash(q1), ShouldEqual, QueryHash(q1))
		})

		Convey("different queries hash differently", func() {
			So(QueryHash(q1), ShouldNotEqual, QueryHash(q2))
		})
	})
}

func TestResultCache(t *testing.T) {
	Convey("Given an empty result cache", t, func() {
		c := NewResultCache()

		Convey("a miss returns ok=false", func() {
			_, ok := c.Get("missing")
			So(ok, ShouldBeFalse)
		})

		Convey("Put then Get returns an equal, independent table", func() {
			t1 := NewTable([]string{"x"})
			t1.Rows = [][]any{{int64(1)}}

			c.Put("k", t1)

			t2, ok := c.Get("k")
			So(ok, ShouldBeTrue)
			So(t2.Rows, ShouldResemble, t1.Rows)

			t2.Rows[0][0] = int64(999)

			t3, ok := c.Get("k")
			So(ok, ShouldBeTrue)
			So(t3.Rows[0][0], ShouldEqual, int64(1))

			So(c.Len(), ShouldEqual, 1)
		})
	})
}

func TestAggregateCache(t *testing.T) {
	Convey("Given an empty aggregate cache", t, func() {
		c := NewAggregateCache()

		Convey("a miss returns ok=false", func() {
			_, ok := c.Get("missing.cdb")
			So(ok, ShouldBeFalse)
		})

		Convey("Put then Get returns an equal, independent batch", func() {
			schema := []columnar.ColumnMeta{{Name: "id", Type: columnar.TypeInt64}}
			b1 := columnar.NewBatch(schema)
			b1.Columns["id"].Ints = []int64{1, 2}
			b1.NumRows = 2

			c.Put("rollup.cdb", b1)

			b2, ok := c.Get("rollup.cdb")
			So(ok, ShouldBeTrue)
			So(b2.Columns["id"].Ints, ShouldResemble, []int64{1, 2})

			b2.Columns["id"].Ints[0] = 999

			b3, ok := c.Get("rollup.cdb")
			So(ok, ShouldBeTrue)
			So(b3.Columns["id"].Ints[0], ShouldEqual, int64(1))
		})
	})
}
