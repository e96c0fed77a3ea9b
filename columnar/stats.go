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

// ColumnStats holds the min/max (and null presence) for one column, kept
// uncompressed in the stats bucket so the planner can consult them without
// decompressing the column's data.
type ColumnStats struct {
	Type     ColumnType
	RowCount int
	HasNull  bool

	MinInt, MaxInt     int64
	MinFloat, MaxFloat float64
	MinStr, MaxStr     string
}

// computeStats derives a ColumnStats from a column's in-memory data.
func computeStats(c *Column) ColumnStats {
	s := ColumnStats{Type: c.Meta.Type, RowCount: c.Len()}

	switch c.Meta.Type {
	case TypeInt64, TypeDate:
		first := true

		for i, v := range c.Ints {
			if c.IsNull(i) {
				s.HasNull = true

				continue
			}

			if first {
				s.MinInt, s.MaxInt = v, v
				first = false

				continue
			}

			if v < s.MinInt {
				s.MinInt = v
			}

			if v > s.MaxInt {
				s.MaxInt = v
			}
		}
	case TypeFloat64:
		first := true

		for i, v := range c.Floats {
			if c.IsNull(i) {
				s.HasNull = true

				continue
			}

			if first {
				s.MinFloat, s.MaxFloat = v, v
				first = false

				continue
			}

			if v < s.MinFloat {
				s.MinFloat = v
			}

			if v > s.MaxFloat {
				s.MaxFloat = v
			}
		}
	case TypeString:
		first := true

		for i, v := range c.Strs {
			if c.IsNull(i) {
				s.HasNull = true

				continue
			}

			if first {
				s.MinStr, s.MaxStr = v, v
				first = false

				continue
			}

			if v < s.MinStr {
				s.MinStr = v
			}

			if v > s.MaxStr {
				s.MaxStr = v
			}
		}
	}

	return s
}

// MatchesEq reports whether a column whose stats are s could possibly
// contain a row equal to an int/date value v. False means the file can be
// skipped entirely for this predicate.
func (s ColumnStats) MatchesEq(v int64) bool {
	return v >= s.MinInt && v <= s.MaxInt
}

// MatchesEqStr is the string analogue of MatchesEq.
func (s ColumnStats) MatchesEqStr(v string) bool {
	return v >= s.MinStr && v <= s.MaxStr
}

// MatchesRange reports whether [lo, hi] overlaps this column's [min, max].
func (s ColumnStats) MatchesRange(lo, hi int64) bool {
	return hi >= s.MinInt && lo <= s.MaxInt
}

// MatchesRangeStr is the string/date-as-string analogue of MatchesRange.
func (s ColumnStats) MatchesRangeStr(lo, hi string) bool {
	return hi >= s.MinStr && lo <= s.MaxStr
}
