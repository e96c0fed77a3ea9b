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

package columnar

import (
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleSchema() []ColumnMeta {
	return []ColumnMeta{
		{Name: "id", Type: TypeInt64},
		{Name: "price", Type: TypeFloat64, Nullable: true},
		{Name: "country", Type: TypeString},
	}
}

func sampleBatch() *Batch {
	b := NewBatch(sampleSchema())

	b.Columns["id"].Ints = []int64{1, 2, 3}
	b.Columns["price"].Floats = []float64{0.5, 0, 2.0}
	b.Columns["price"].Valid = []bool{true, false, true}
	b.Columns["country"].Strs = []string{"US", "US", "DE"}
	b.NumRows = 3

	return b
}

func TestWriteRead(t *testing.T) {
	Convey("Given a batch written to a columnar file", t, func() {
		path := filepath.Join(t.TempDir(), "test.cdb")

		w := NewWriter(zstd.SpeedFastest)
		So(w.Write(path, sampleBatch()), ShouldBeNil)

		Convey("writing to the same path again fails", func() {
			So(w.Write(path, sampleBatch()), ShouldEqual, ErrFileExists)
		})

		Convey("it can be reopened and read back exactly", func() {
			r, err := Open(path)
			So(err, ShouldBeNil)
			defer r.Close()

			So(r.NumRows(), ShouldEqual, 3)
			So(r.HasColumn("id"), ShouldBeTrue)
			So(r.HasColumn("missing"), ShouldBeFalse)

			b, err := r.ReadAll()
			So(err, ShouldBeNil)
			So(b.NumRows, ShouldEqual, 3)
			So(b.Columns["id"].Ints, ShouldResemble, []int64{1, 2, 3})
			So(b.Columns["country"].Strs, ShouldResemble, []string{"US", "US", "DE"})

			price := b.Columns["price"]
			So(price.IsNull(0), ShouldBeFalse)
			So(price.IsNull(1), ShouldBeTrue)
			So(price.Floats[0], ShouldEqual, 0.5)
		})

		Convey("ReadColumns projects only the requested columns", func() {
			r, err := Open(path)
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadColumns([]string{"country"})
			So(err, ShouldBeNil)
			So(b.Columns, ShouldContainKey, "country")
			So(b.Columns, ShouldNotContainKey, "id")
		})

		Convey("ReadColumns silently skips names absent from the schema", func() {
			r, err := Open(path)
			So(err, ShouldBeNil)
			defer r.Close()

			b, err := r.ReadColumns([]string{"country", "nonexistent"})
			So(err, ShouldBeNil)
			So(b.Columns, ShouldContainKey, "country")
			So(b.Columns, ShouldNotContainKey, "nonexistent")
		})

		Convey("per-column stats are loaded eagerly and reflect min/max", func() {
			r, err := Open(path)
			So(err, ShouldBeNil)
			defer r.Close()

			s, ok := r.Stats("id")
			So(ok, ShouldBeTrue)
			So(s.MinInt, ShouldEqual, 1)
			So(s.MaxInt, ShouldEqual, 3)
			So(s.MatchesEq(2), ShouldBeTrue)
			So(s.MatchesEq(5), ShouldBeFalse)
			So(s.MatchesRange(4, 10), ShouldBeFalse)
			So(s.MatchesRange(2, 10), ShouldBeTrue)

			priceStats, ok := r.Stats("price")
			So(ok, ShouldBeTrue)
			So(priceStats.HasNull, ShouldBeTrue)
		})
	})
}

func TestOpenMissingFile(t *testing.T) {
	Convey("Opening a path that doesn't exist returns ErrFileNotFound", t, func() {
		_, err := Open(filepath.Join(t.TempDir(), "missing.cdb"))
		So(err, ShouldEqual, ErrFileNotFound)
	})
}

func TestBatchConcatAndClone(t *testing.T) {
	Convey("Given two batches over the same schema", t, func() {
		a := sampleBatch()
		b := NewBatch(sampleSchema())
		b.Columns["id"].Ints = []int64{4}
		b.Columns["price"].Floats = []float64{9.0}
		b.Columns["price"].Valid = []bool{true}
		b.Columns["country"].Strs = []string{"FR"}
		b.NumRows = 1

		Convey("Concat appends rows in place", func() {
			a.Concat(b)

			So(a.NumRows, ShouldEqual, 4)
			So(a.Columns["id"].Ints, ShouldResemble, []int64{1, 2, 3, 4})
			So(a.Columns["country"].Strs, ShouldResemble, []string{"US", "US", "DE", "FR"})
		})

		Convey("Clone is independent of the original", func() {
			clone := a.Clone()
			clone.Columns["id"].Ints[0] = 999

			So(a.Columns["id"].Ints[0], ShouldEqual, 1)
		})
	})
}
