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
	"log/slog"

	"github.com/wtsi-hgi/adquery/cache"
	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/internal/intern"
	"github.com/wtsi-hgi/adquery/store"
)

// executeScan runs a partition- and column-pruned scan over the raw
// partitioned store: enumerate the relevant partition files, project only
// the needed columns from each, concatenate, filter, then either group and
// aggregate or project bare columns, and finally order_by.
func (e *Engine) executeScan(plan ScanPlan, q Query) (*cache.Table, error) {
	batch, err := scanPlanColumns(e.root, plan)
	if err != nil {
		return nil, err
	}

	filtered, err := EvaluateWhere(batch, q.Where)
	if err != nil {
		return nil, err
	}

	var t *cache.Table

	if len(q.GroupBy) > 0 {
		t, err = groupAndAggregate(filtered, q.GroupBy, q.Select, e.intern)
	} else {
		t, err = projectBareColumns(filtered, q.Select)
	}

	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

// scanPlanColumns enumerates plan.Types' partitions, restricted to
// plan.Days when set, and concatenates plan.Columns from each. Only one
// partition's data is decompressed at a time.
func scanPlanColumns(root string, plan ScanPlan) (*columnar.Batch, error) {
	slog.Debug("query: scanning", "types", plan.Types, "days", plan.Days, "columns", plan.Columns)

	var out *columnar.Batch

	skipped := 0

	for _, eventType := range plan.Types {
		days, err := store.ListPartitions(root, eventType)
		if err != nil {
			return nil, err
		}

		for _, day := range days {
			if plan.Days != nil && !containsString(plan.Days, day) {
				skipped++

				continue
			}

			path := store.PartitionPath(root, eventType, day)

			r, err := columnar.Open(path)
			if err != nil {
				return nil, err
			}

			part, err := r.ReadColumns(plan.Columns)
			closeErr := r.Close()

			if err != nil {
				return nil, err
			}

			if closeErr != nil {
				return nil, closeErr
			}

			if out == nil {
				out = part
			} else {
				out.Concat(part)
			}
		}
	}

	if out == nil {
		out = columnar.NewBatch(nil)
	}

	slog.Debug("query: scan complete", "rows", out.NumRows, "partitions_pruned", skipped)

	return out, nil
}

// projectBareColumns selects only the bare select columns (no group_by, no
// aggregates) straight from the scanned batch.
func projectBareColumns(b *columnar.Batch, sel []SelectItem) (*cache.Table, error) {
	columns := make([]string, len(sel))

	for i, item := range sel {
		if item.Kind != SelectColumn {
			return nil, fmt.Errorf("query: aggregate %s requires a group_by", item.Alias())
		}

		columns[i] = item.Column
	}

	t := cache.NewTable(columns)
	t.Rows = make([][]any, b.NumRows)

	cols := make([]*columnar.Column, len(columns))

	for i, name := range columns {
		c, ok := b.Columns[name]
		if !ok {
			return nil, fmt.Errorf("query: column %q not present", name)
		}

		cols[i] = c
	}

	for row := 0; row < b.NumRows; row++ {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = cellValue(c, row)
		}

		t.Rows[row] = vals
	}

	return t, nil
}

type accumulator struct {
	fn     AggFunc
	sum    float64
	count  int64
	isNull bool
}

// groupAndAggregate groups b by groupBy and computes every aggregate in sel
// (bare columns in sel must themselves be group_by keys), producing rows in
// group-discovery order and columns in select order.
func groupAndAggregate(b *columnar.Batch, groupBy []string, sel []SelectItem, interner *intern.Table) (*cache.Table, error) {
	groupCols := make([]*columnar.Column, len(groupBy))

	for i, name := range groupBy {
		c, ok := b.Columns[name]
		if !ok {
			return nil, fmt.Errorf("query: group_by column %q not present", name)
		}

		groupCols[i] = c
	}

	type aggSpec struct {
		fn  AggFunc
		col string
		src *columnar.Column
	}

	aggs := make([]aggSpec, 0)

	for _, item := range sel {
		if item.Kind != SelectAggregate {
			continue
		}

		var src *columnar.Column

		if item.Column != "*" {
			c, ok := b.Columns[item.Column]
			if !ok {
				return nil, fmt.Errorf("query: aggregate column %q not present", item.Column)
			}

			src = c
		}

		aggs = append(aggs, aggSpec{fn: item.Func, col: item.Column, src: src})
	}

	type groupState struct {
		key  []any
		accs []accumulator
	}

	order := make([]string, 0)
	groups := make(map[string]*groupState)

	for row := 0; row < b.NumRows; row++ {
		key := make([]any, len(groupCols))
		keyStr := ""

		for i, c := range groupCols {
			v := cellValue(c, row)
			if s, ok := v.(string); ok {
				v = interner.Intern(s)
			}

			key[i] = v
			keyStr += fmt.Sprintf("%v\x1f", v)
		}

		g, ok := groups[keyStr]
		if !ok {
			accs := make([]accumulator, len(aggs))
			for i, a := range aggs {
				accs[i].fn = a.fn
			}

			g = &groupState{key: key, accs: accs}
			groups[keyStr] = g
			order = append(order, keyStr)
		}

		for i, a := range aggs {
			accumulate(&g.accs[i], a.src, row)
		}
	}

	columns := make([]string, len(sel))
	for i, item := range sel {
		columns[i] = item.Alias()
	}

	t := cache.NewTable(columns)
	t.Rows = make([][]any, 0, len(order))

	for _, keyStr := range order {
		g := groups[keyStr]

		row := make([]any, len(sel))
		aggIdx := 0

		for i, item := range sel {
			if item.Kind == SelectColumn {
				row[i] = groupValue(groupBy, item.Column, g.key)
			} else {
				row[i] = finalizeAggregate(g.accs[aggIdx])
				aggIdx++
			}
		}

		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// groupValue looks up the value of a select-item bare column within a
// group's key tuple, by name rather than position, since select order and
// group_by order need not match.
func groupValue(groupBy []string, name string, key []any) any {
	for i, g := range groupBy {
		if g == name {
			return key[i]
		}
	}

	return nil
}

func accumulate(a *accumulator, src *columnar.Column, row int) {
	if src == nil {
		// COUNT(*): every row counts, null or not.
		a.count++

		return
	}

	if src.IsNull(row) {
		return
	}

	a.count++

	switch src.Meta.Type {
	case columnar.TypeFloat64:
		a.sum += src.Floats[row]
	case columnar.TypeInt64, columnar.TypeDate:
		a.sum += float64(src.Ints[row])
	}
}

func finalizeAggregate(a accumulator) any {
	switch a.fn {
	case COUNT:
		return a.count
	case SUM:
		return a.sum
	case AVG:
		if a.count == 0 {
			return nil
		}

		return a.sum / float64(a.count)
	default:
		return nil
	}
}
