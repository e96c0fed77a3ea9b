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

// Package event is the shared data model: the fixed set of column names and
// types that make up one event row, raw and derived. ingest, rollup and
// query all anchor on these constants rather than repeating string
// literals, so the schema has exactly one home.
package event

import "github.com/wtsi-hgi/adquery/columnar"

// Column names, raw and derived.
const (
	TS           = "ts"
	Type         = "type"
	AuctionID    = "auction_id"
	AdvertiserID = "advertiser_id"
	PublisherID  = "publisher_id"
	BidPrice     = "bid_price"
	UserID       = "user_id"
	TotalPrice   = "total_price"
	Country      = "country"
	Day          = "day"
	Week         = "week"
	Hour         = "hour"
	Minute       = "minute"
)

// Recognized values of the type column.
const (
	Serve      = "serve"
	Impression = "impression"
	Click      = "click"
	Purchase   = "purchase"
)

// Types lists every recognized event type, in the order they're checked
// when a query leaves the type axis unrestricted.
var Types = []string{Serve, Impression, Click, Purchase}

// DerivedColumns are the columns ingest computes from ts rather than
// reading from the input CSV.
var DerivedColumns = []string{Day, Week, Hour, Minute}

// Schema is the full column layout of a partition file.
func Schema() []columnar.ColumnMeta {
	return []columnar.ColumnMeta{
		{Name: TS, Type: columnar.TypeInt64},
		{Name: Type, Type: columnar.TypeString},
		{Name: AuctionID, Type: columnar.TypeString},
		{Name: AdvertiserID, Type: columnar.TypeInt64},
		{Name: PublisherID, Type: columnar.TypeInt64},
		{Name: BidPrice, Type: columnar.TypeFloat64, Nullable: true},
		{Name: UserID, Type: columnar.TypeInt64},
		{Name: TotalPrice, Type: columnar.TypeFloat64, Nullable: true},
		{Name: Country, Type: columnar.TypeString},
		{Name: Day, Type: columnar.TypeDate},
		{Name: Week, Type: columnar.TypeDate},
		{Name: Hour, Type: columnar.TypeInt64},
		{Name: Minute, Type: columnar.TypeString},
	}
}

// IsEventType reports whether s is one of the four recognized type values.
func IsEventType(s string) bool {
	for _, t := range Types {
		if t == s {
			return true
		}
	}

	return false
}
