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

	"github.com/wtsi-hgi/adquery/cache"
	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/rollup"
)

// executeRollup answers q from the named pre-computed rollup: filter,
// regroup if the rollup's grain is finer than requested, rename internal
// aggregate columns to the output convention, project in select order,
// then order_by.
func (e *Engine) executeRollup(name string, q Query) (*cache.Table, error) {
	switch name {
	case rollup.DailyRevenue:
		return e.queryDailyRevenue(q)
	case rollup.PublisherDayCountryRevenue:
		return e.queryPublisherRevenue(q)
	case rollup.CountryPurchases:
		return e.queryCountryPurchases(q)
	case rollup.AdvertiserTypeCounts:
		return e.queryAdvertiserType(q)
	case rollup.MinuteRevenue:
		return e.queryMinuteRevenue(q)
	default:
		return nil, fmt.Errorf("query: unknown rollup %q", name)
	}
}

func (e *Engine) queryDailyRevenue(q Query) (*cache.Table, error) {
	b, err := e.loadAggregate(rollup.DailyRevenue)
	if err != nil {
		return nil, err
	}

	t, err := projectRollup(b, q.Select, dailyRevenueSource)
	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

func dailyRevenueSource(item SelectItem) (string, error) {
	if item.Kind == SelectColumn {
		return item.Column, nil
	}

	if item.Func == SUM && item.Column == event.BidPrice {
		return "sum_bid_price", nil
	}

	return "", fmt.Errorf("query: unexpected select item %s for daily_revenue", item.Alias())
}

func (e *Engine) queryCountryPurchases(q Query) (*cache.Table, error) {
	b, err := e.loadAggregate(rollup.CountryPurchases)
	if err != nil {
		return nil, err
	}

	t, err := projectRollup(b, q.Select, func(item SelectItem) (string, error) {
		if item.Kind == SelectColumn {
			return item.Column, nil
		}

		if item.Func == AVG && item.Column == event.TotalPrice {
			return "avg_total_price", nil
		}

		return "", fmt.Errorf("query: unexpected select item %s for country_purchases", item.Alias())
	})
	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

func (e *Engine) queryAdvertiserType(q Query) (*cache.Table, error) {
	b, err := e.loadAggregate(rollup.AdvertiserTypeCounts)
	if err != nil {
		return nil, err
	}

	t, err := projectRollup(b, q.Select, func(item SelectItem) (string, error) {
		if item.Kind == SelectColumn {
			return item.Column, nil
		}

		if item.Func == COUNT && item.Column == "*" {
			return "count", nil
		}

		return "", fmt.Errorf("query: unexpected select item %s for advertiser_type_counts", item.Alias())
	})
	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

func (e *Engine) queryMinuteRevenue(q Query) (*cache.Table, error) {
	b, err := e.loadAggregate(rollup.MinuteRevenue)
	if err != nil {
		return nil, err
	}

	filtered, err := EvaluateWhere(b, q.Where)
	if err != nil {
		return nil, err
	}

	t, err := projectRollup(filtered, q.Select, func(item SelectItem) (string, error) {
		if item.Kind == SelectColumn {
			return item.Column, nil
		}

		if item.Func == SUM && item.Column == event.BidPrice {
			return "sum_bid_price", nil
		}

		return "", fmt.Errorf("query: unexpected select item %s for minute_revenue", item.Alias())
	})
	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

// queryPublisherRevenue is the one rollup route that may need to regroup:
// the rollup's grain is (publisher_id, day, country), finer than most
// queries that route here (typically just publisher_id).
func (e *Engine) queryPublisherRevenue(q Query) (*cache.Table, error) {
	b, err := e.loadAggregate(rollup.PublisherDayCountryRevenue)
	if err != nil {
		return nil, err
	}

	filtered, err := EvaluateWhere(b, q.Where)
	if err != nil {
		return nil, err
	}

	regrouped, err := groupAndSum(filtered, q.GroupBy, event.BidPrice)
	if err != nil {
		return nil, err
	}

	t, err := projectRollup(regrouped, q.Select, func(item SelectItem) (string, error) {
		if item.Kind == SelectColumn {
			return item.Column, nil
		}

		if item.Func == SUM && item.Column == event.BidPrice {
			return "sum_bid_price", nil
		}

		return "", fmt.Errorf("query: unexpected select item %s for publisher_day_country_revenue", item.Alias())
	})
	if err != nil {
		return nil, err
	}

	applyOrderBy(t, q.OrderBy)

	return t, nil
}

// groupAndSum groups b by groupBy and sums sumCol, producing a batch whose
// schema is groupBy... followed by "sum_<sumCol>".
func groupAndSum(b *columnar.Batch, groupBy []string, sumCol string) (*columnar.Batch, error) {
	groupCols := make([]*columnar.Column, len(groupBy))

	for i, name := range groupBy {
		c, ok := b.Columns[name]
		if !ok {
			return nil, fmt.Errorf("query: group_by column %q not present", name)
		}

		groupCols[i] = c
	}

	sumSrc, ok := b.Columns[sumCol]
	if !ok {
		return nil, fmt.Errorf("query: aggregate column %q not present", sumCol)
	}

	type groupState struct {
		key    []any
		sum    float64
		hasRow bool
	}

	order := make([]string, 0)
	groups := make(map[string]*groupState)

	for row := 0; row < b.NumRows; row++ {
		key := make([]any, len(groupCols))
		keyStr := ""

		for i, c := range groupCols {
			v := cellValue(c, row)
			key[i] = v
			keyStr += fmt.Sprintf("%v\x1f", v)
		}

		g, ok := groups[keyStr]
		if !ok {
			g = &groupState{key: key}
			groups[keyStr] = g
			order = append(order, keyStr)
		}

		if !sumSrc.IsNull(row) {
			g.sum += sumSrc.Floats[row]
		}

		g.hasRow = true
	}

	outSchema := make([]columnar.ColumnMeta, 0, len(groupBy)+1)
	for i, name := range groupBy {
		outSchema = append(outSchema, columnar.ColumnMeta{Name: name, Type: groupCols[i].Meta.Type})
	}

	outSchema = append(outSchema, columnar.ColumnMeta{Name: "sum_" + sumCol, Type: columnar.TypeFloat64})

	out := columnar.NewBatch(outSchema)

	for _, keyStr := range order {
		g := groups[keyStr]
		if !g.hasRow {
			continue
		}

		row := make([]any, 0, len(g.key)+1)
		row = append(row, g.key...)
		row = append(row, g.sum)

		appendTypedRow(out, outSchema, row)
	}

	return out, nil
}

// appendTypedRow appends one row of values, in schema order, converting
// from the cellValue representation (dates as ISO strings) back to each
// column's native storage.
func appendTypedRow(out *columnar.Batch, schema []columnar.ColumnMeta, values []any) {
	for i, meta := range schema {
		c := out.Columns[meta.Name]

		switch meta.Type {
		case columnar.TypeInt64:
			v, _ := values[i].(int64)
			c.Ints = append(c.Ints, v)
		case columnar.TypeDate:
			switch v := values[i].(type) {
			case string:
				days, _ := event.ParseDate(v)
				c.Ints = append(c.Ints, days)
			case int64:
				c.Ints = append(c.Ints, v)
			}
		case columnar.TypeFloat64:
			v, _ := values[i].(float64)
			c.Floats = append(c.Floats, v)
		case columnar.TypeString:
			v, _ := values[i].(string)
			c.Strs = append(c.Strs, v)
		}
	}

	out.NumRows++
}
