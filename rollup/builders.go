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

package rollup

import (
	"sort"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/event"
)

// buildDailyRevenue groups impressions by day, summing bid_price and
// counting rows. This is the one rollup required to be sorted, ascending
// by day.
func buildDailyRevenue(root string) (*columnar.Batch, error) {
	b, err := scanColumns(root, event.Impression, []string{event.Day, event.BidPrice})
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int64
	}

	groups := make(map[int64]*acc)

	days := b.Columns[event.Day]
	prices := b.Columns[event.BidPrice]

	for i := 0; i < b.NumRows; i++ {
		day := days.Ints[i]

		a, ok := groups[day]
		if !ok {
			a = &acc{}
			groups[day] = a
		}

		if !prices.IsNull(i) {
			a.sum += prices.Floats[i]
		}

		a.count++
	}

	sortedDays := make([]int64, 0, len(groups))
	for d := range groups {
		sortedDays = append(sortedDays, d)
	}

	sort.Slice(sortedDays, func(i, j int) bool { return sortedDays[i] < sortedDays[j] })

	out := newBatch(
		col(event.Day, columnar.TypeDate),
		col("sum_bid_price", columnar.TypeFloat64),
		col("count_impressions", columnar.TypeInt64),
	)

	for _, d := range sortedDays {
		a := groups[d]
		appendRow(out, d, a.sum, a.count)
	}

	return out, nil
}

// buildCountryRevenue groups impressions by country.
func buildCountryRevenue(root string) (*columnar.Batch, error) {
	b, err := scanColumns(root, event.Impression, []string{event.Country, event.BidPrice})
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int64
	}

	groups := make(map[string]*acc)

	countries := b.Columns[event.Country]
	prices := b.Columns[event.BidPrice]

	for i := 0; i < b.NumRows; i++ {
		c := countries.Strs[i]

		a, ok := groups[c]
		if !ok {
			a = &acc{}
			groups[c] = a
		}

		if !prices.IsNull(i) {
			a.sum += prices.Floats[i]
		}

		a.count++
	}

	out := newBatch(
		col(event.Country, columnar.TypeString),
		col("sum_bid_price", columnar.TypeFloat64),
		col("count_impressions", columnar.TypeInt64),
	)

	for c, a := range groups {
		appendRow(out, c, a.sum, a.count)
	}

	return out, nil
}

// buildCountryPurchases groups purchases by country.
func buildCountryPurchases(root string) (*columnar.Batch, error) {
	b, err := scanColumns(root, event.Purchase, []string{event.Country, event.TotalPrice})
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int64
	}

	groups := make(map[string]*acc)

	countries := b.Columns[event.Country]
	prices := b.Columns[event.TotalPrice]

	for i := 0; i < b.NumRows; i++ {
		c := countries.Strs[i]

		a, ok := groups[c]
		if !ok {
			a = &acc{}
			groups[c] = a
		}

		if !prices.IsNull(i) {
			a.sum += prices.Floats[i]
			a.count++
		}
	}

	out := newBatch(
		col(event.Country, columnar.TypeString),
		col("sum_total_price", columnar.TypeFloat64),
		col("avg_total_price", columnar.TypeFloat64),
		col("count_purchases", columnar.TypeInt64),
	)

	for c, a := range groups {
		avg := 0.0
		if a.count > 0 {
			avg = a.sum / float64(a.count)
		}

		appendRow(out, c, a.sum, avg, a.count)
	}

	return out, nil
}

// buildPublisherDayCountryRevenue groups impressions by
// (publisher_id, day, country).
func buildPublisherDayCountryRevenue(root string) (*columnar.Batch, error) {
	b, err := scanColumns(root, event.Impression,
		[]string{event.PublisherID, event.Day, event.Country, event.BidPrice})
	if err != nil {
		return nil, err
	}

	type key struct {
		publisherID int64
		day         int64
		country     string
	}

	groups := make(map[key]float64)

	publishers := b.Columns[event.PublisherID]
	days := b.Columns[event.Day]
	countries := b.Columns[event.Country]
	prices := b.Columns[event.BidPrice]

	for i := 0; i < b.NumRows; i++ {
		k := key{publishers.Ints[i], days.Ints[i], countries.Strs[i]}

		if !prices.IsNull(i) {
			groups[k] += prices.Floats[i]
		}
	}

	out := newBatch(
		col(event.PublisherID, columnar.TypeInt64),
		col(event.Day, columnar.TypeDate),
		col(event.Country, columnar.TypeString),
		col("sum_bid_price", columnar.TypeFloat64),
	)

	for k, sum := range groups {
		appendRow(out, k.publisherID, k.day, k.country, sum)
	}

	return out, nil
}

// buildAdvertiserTypeCounts groups every event row (all four types) by
// (advertiser_id, type).
func buildAdvertiserTypeCounts(root string) (*columnar.Batch, error) {
	b, err := scanColumnsForTypes(root, event.Types, []string{event.AdvertiserID, event.Type})
	if err != nil {
		return nil, err
	}

	type key struct {
		advertiserID int64
		eventType    string
	}

	groups := make(map[key]int64)

	advertisers := b.Columns[event.AdvertiserID]
	types := b.Columns[event.Type]

	for i := 0; i < b.NumRows; i++ {
		k := key{advertisers.Ints[i], types.Strs[i]}
		groups[k]++
	}

	out := newBatch(
		col(event.AdvertiserID, columnar.TypeInt64),
		col(event.Type, columnar.TypeString),
		col("count", columnar.TypeInt64),
	)

	for k, count := range groups {
		appendRow(out, k.advertiserID, k.eventType, count)
	}

	return out, nil
}

// buildMinuteRevenue groups impressions by (day, minute).
func buildMinuteRevenue(root string) (*columnar.Batch, error) {
	b, err := scanColumns(root, event.Impression, []string{event.Day, event.Minute, event.BidPrice})
	if err != nil {
		return nil, err
	}

	type key struct {
		day    int64
		minute string
	}

	groups := make(map[key]float64)

	days := b.Columns[event.Day]
	minutes := b.Columns[event.Minute]
	prices := b.Columns[event.BidPrice]

	for i := 0; i < b.NumRows; i++ {
		k := key{days.Ints[i], minutes.Strs[i]}

		if !prices.IsNull(i) {
			groups[k] += prices.Floats[i]
		}
	}

	out := newBatch(
		col(event.Day, columnar.TypeDate),
		col(event.Minute, columnar.TypeString),
		col("sum_bid_price", columnar.TypeFloat64),
	)

	for k, sum := range groups {
		appendRow(out, k.day, k.minute, sum)
	}

	return out, nil
}

func col(name string, t columnar.ColumnType) columnar.ColumnMeta {
	return columnar.ColumnMeta{Name: name, Type: t}
}

func newBatch(cols ...columnar.ColumnMeta) *columnar.Batch {
	return columnar.NewBatch(cols)
}

// appendRow appends one row of values, in schema order, to every column of
// out. values must match out.Schema in count and (int64|float64|string)
// kind per column type.
func appendRow(out *columnar.Batch, values ...any) {
	for i, meta := range out.Schema {
		c := out.Columns[meta.Name]

		switch v := values[i].(type) {
		case int64:
			c.Ints = append(c.Ints, v)
		case int:
			c.Ints = append(c.Ints, int64(v))
		case float64:
			c.Floats = append(c.Floats, v)
		case string:
			c.Strs = append(c.Strs, v)
		}
	}

	out.NumRows++
}
