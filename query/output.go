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
	"sort"
	"strings"

	"github.com/wtsi-hgi/adquery/cache"
	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
)

// cellValue reads row i of col as a plain Go value suitable for a result
// table: null cells become nil, and date columns render as their ISO
// string rather than the internal days-since-epoch integer.
func cellValue(col *columnar.Column, row int) any {
	if col.IsNull(row) {
		return nil
	}

	switch col.Meta.Type {
	case columnar.TypeInt64:
		return col.Ints[row]
	case columnar.TypeDate:
		return event.DateString(col.Ints[row])
	case columnar.TypeFloat64:
		return col.Floats[row]
	case columnar.TypeString:
		return col.Strs[row]
	default:
		return nil
	}
}

// projectRollup builds a result table from a (possibly filtered/regrouped)
// rollup batch, selecting output columns in the query's select order. src
// maps each select item's alias to the column name actually present in b
// (e.g. the alias "sum(bid_price)" to the rollup's internal
// "sum_bid_price" column).
func projectRollup(b *columnar.Batch, sel []SelectItem, src func(SelectItem) (string, error)) (*cache.Table, error) {
	columns := make([]string, len(sel))
	sourceCols := make([]string, len(sel))

	for i, item := range sel {
		name, err := src(item)
		if err != nil {
			return nil, err
		}

		columns[i] = item.Alias()
		sourceCols[i] = name
	}

	t := cache.NewTable(columns)
	t.Rows = make([][]any, b.NumRows)

	for row := 0; row < b.NumRows; row++ {
		vals := make([]any, len(sourceCols))

		for i, name := range sourceCols {
			col, ok := b.Columns[name]
			if !ok {
				return nil, fmt.Errorf("query: column %q not present in rollup", name)
			}

			vals[i] = cellValue(col, row)
		}

		t.Rows[row] = vals
	}

	return t, nil
}

// applyOrderBy sorts t's rows in list order: each order-by entry runs its
// own stable sort over the current row order, so (matching the reference
// planner) later entries take precedence over earlier ones whenever their
// keys disagree. Column names are matched case-insensitively as a
// fallback, since an aggregate alias may not match the literal case used
// in order_by.
func applyOrderBy(t *cache.Table, orderBy []OrderItem) {
	for _, o := range orderBy {
		idx := columnIndex(t.Columns, o.Col)
		if idx < 0 {
			continue
		}

		desc := o.Descending()

		sort.SliceStable(t.Rows, func(i, j int) bool {
			return lessValue(t.Rows[i][idx], t.Rows[j][idx], desc)
		})
	}
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}

	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}

	return -1
}

func lessValue(a, b any, desc bool) bool {
	c := compareAny(a, b)
	if desc {
		return c > 0
	}

	return c < 0
}

// compareAny orders two result cells of the same column (and therefore the
// same dynamic type): -1 if a<b, 0 if equal, 1 if a>b. nil sorts first.
func compareAny(a, b any) int {
	if a == nil && b == nil {
		return 0
	}

	if a == nil {
		return -1
	}

	if b == nil {
		return 1
	}

	switch av := a.(type) {
	case int64:
		bv, _ := b.(int64)

		return compareOrdered(av, bv)
	case float64:
		bv, _ := b.(float64)

		return compareOrdered(av, bv)
	case string:
		bv, _ := b.(string)

		return compareOrdered(av, bv)
	default:
		return 0
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
