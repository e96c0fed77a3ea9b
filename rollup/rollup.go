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
	"github.com/klauspost/compress/zstd"

	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/store"
)

// Canonical rollup names, matching the aggregates/<name>.cdb filenames.
const (
	DailyRevenue               = "daily_revenue"
	CountryRevenue             = "country_revenue"
	CountryPurchases           = "country_purchases"
	PublisherDayCountryRevenue = "publisher_day_country_revenue"
	AdvertiserTypeCounts       = "advertiser_type_counts"
	MinuteRevenue              = "minute_revenue"
)

// All lists every canonical rollup name, in build order.
var All = []string{
	DailyRevenue,
	CountryRevenue,
	CountryPurchases,
	PublisherDayCountryRevenue,
	AdvertiserTypeCounts,
	MinuteRevenue,
}

type builderFunc func(root string) (*columnar.Batch, error)

var builders = map[string]builderFunc{
	DailyRevenue:               buildDailyRevenue,
	CountryRevenue:             buildCountryRevenue,
	CountryPurchases:           buildCountryPurchases,
	PublisherDayCountryRevenue: buildPublisherDayCountryRevenue,
	AdvertiserTypeCounts:       buildAdvertiserTypeCounts,
	MinuteRevenue:              buildMinuteRevenue,
}

// BuildAll builds every rollup named in enabled (value true) from the
// merged partitions under root, writing each as a single file under
// aggregates/. Rollups run sequentially, one at a time, so peak memory is
// bounded by the single largest rollup rather than the sum of all six.
func BuildAll(root string, enabled map[string]bool, level zstd.EncoderLevel) error {
	if err := store.EnsureDir(store.AggregatesDir(root)); err != nil {
		return err
	}

	w := columnar.NewWriter(level)

	for _, name := range All {
		if !enabled[name] {
			continue
		}

		batch, err := builders[name](root)
		if err != nil {
			return err
		}

		path := store.AggregatePath(root, name)
		if err := w.Write(path, batch); err != nil {
			return err
		}
	}

	return nil
}
