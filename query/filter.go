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
	"fmt"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
)

// EvaluateWhere returns a new batch containing only the rows of b matching
// every predicate in where, implicitly AND-joined. A predicate whose
// column isn't present in b is a no-op (the same tolerance the planner's
// column pruning applies, and exactly what lets a rollup's leftover "type"
// filter harmlessly fall through once the type axis is already baked into
// that rollup).
func EvaluateWhere(b *columnar.Batch, where []Predicate) (*columnar.Batch, error) {
	keep := make([]bool, b.NumRows)
	for i := range keep {
		keep[i] = true
	}

	for _, p := range where {
		col, ok := b.Columns[p.Col]
		if !ok {
			continue
		}

		for i := 0; i < b.NumRows; i++ {
			if !keep[i] {
				continue
			}

			matched, err := matchesPredicate(col, i, p)
			if err != nil {
				return nil, err
			}

			keep[i] = matched
		}
	}

	return selectRows(b, keep), nil
}

func matchesPredicate(col *columnar.Column, row int, p Predicate) (bool, error) {
	if col.IsNull(row) {
		return false, nil
	}

	switch p.Op {
	case OpEq:
		return compareEq(col, row, p.Val)
	case OpNeq:
		eq, err := compareEq(col, row, p.Val)

		return !eq, err
	case OpIn:
		items, ok := p.Val.([]any)
		if !ok {
			return false, fmt.Errorf("query: in predicate on %q needs a list value", p.Col)
		}

		for _, item := range items {
			if eq, err := compareEq(col, row, item); err != nil {
				return false, err
			} else if eq {
				return true, nil
			}
		}

		return false, nil
	case OpBetween:
		bounds, ok := p.Val.([]any)
		if !ok || len(bounds) != 2 {
			return false, fmt.Errorf("query: between predicate on %q needs a 2-element list", p.Col)
		}

		return compareBetween(col, row, bounds[0], bounds[1])
	default:
		return false, fmt.Errorf("query: unrecognized operator %q", p.Op)
	}
}

func compareEq(col *columnar.Column, row int, val any) (bool, error) {
	switch col.Meta.Type {
	case columnar.TypeInt64:
		v, err := toInt64(val)
		if err != nil {
			return false, err
		}

		return col.Ints[row] == v, nil
	case columnar.TypeDate:
		v, err := toDateDays(val)
		if err != nil {
			return false, err
		}

		return col.Ints[row] == v, nil
	case columnar.TypeFloat64:
		v, err := toFloat64(val)
		if err != nil {
			return false, err
		}

		return col.Floats[row] == v, nil
	case columnar.TypeString:
		return col.Strs[row] == fmt.Sprint(val), nil
	default:
		return false, fmt.Errorf("query: unsupported column type for comparison")
	}
}

func compareBetween(col *columnar.Column, row int, lo, hi any) (bool, error) {
	switch col.Meta.Type {
	case columnar.TypeInt64:
		loV, err := toInt64(lo)
		if err != nil {
			return false, err
		}

		hiV, err := toInt64(hi)
		if err != nil {
			return false, err
		}

		v := col.Ints[row]

		return v >= loV && v <= hiV, nil
	case columnar.TypeDate:
		loV, err := toDateDays(lo)
		if err != nil {
			return false, err
		}

		hiV, err := toDateDays(hi)
		if err != nil {
			return false, err
		}

		v := col.Ints[row]

		return v >= loV && v <= hiV, nil
	case columnar.TypeFloat64:
		loV, err := toFloat64(lo)
		if err != nil {
			return false, err
		}

		hiV, err := toFloat64(hi)
		if err != nil {
			return false, err
		}

		v := col.Floats[row]

		return v >= loV && v <= hiV, nil
	case columnar.TypeString:
		v := col.Strs[row]

		return v >= fmt.Sprint(lo) && v <= fmt.Sprint(hi), nil
	default:
		return false, fmt.Errorf("query: unsupported column type for comparison")
	}
}

// toDateDays coerces a predicate value against a date column: a string is
// parsed as an ISO date, matching the scan executor's "when the column is
// a date type and val is a string, parse the string as an ISO date before
// comparing" rule.
func toDateDays(val any) (int64, error) {
	if s, ok := val.(string); ok {
		return event.ParseDate(s)
	}

	return toInt64(val)
}

func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("query: expected a number, got %T", val)
	}
}

func toFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("query: expected a number, got %T", val)
	}
}

// selectRows returns a new batch containing only the rows where keep[i]
// is true, preserving column order.
func selectRows(b *columnar.Batch, keep []bool) *columnar.Batch {
	out := columnar.NewBatch(b.Schema)

	for i, k := range keep {
		if !k {
			continue
		}

		for _, meta := range b.Schema {
			src := b.Columns[meta.Name]
			dst := out.Columns[meta.Name]

			switch meta.Type {
			case columnar.TypeInt64, columnar.TypeDate:
				dst.Ints = append(dst.Ints, src.Ints[i])
			case columnar.TypeFloat64:
				dst.Floats = append(dst.Floats, src.Floats[i])
			case columnar.TypeString:
				dst.Strs = append(dst.Strs, src.Strs[i])
			}

			if src.Valid != nil {
				if dst.Valid == nil {
					dst.Valid = make([]bool, 0, b.NumRows)
				}

				dst.Valid = append(dst.Valid, src.Valid[i])
			}
		}

		out.NumRows++
	}

	return out
}
