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

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/wtsi-hgi/adquery/event"
)

const (
	csvTS = iota
	csvType
	csvAuctionID
	csvAdvertiserID
	csvPublisherID
	csvBidPrice
	csvUserID
	csvTotalPrice
	csvCountry
	csvColumnCount
)

// Row is one parsed event row, raw fields plus the four columns derived
// from ts.
type Row struct {
	TS             int64
	Type           string
	AuctionID      string
	AdvertiserID   int64
	PublisherID    int64
	BidPrice       float64
	BidPriceNull   bool
	UserID         int64
	TotalPrice     float64
	TotalPriceNull bool
	Country        string
	Day            int64
	Week           int64
	Hour           int64
	Minute         string
}

// RowParser scans a CSV shard row by row into a caller-supplied Row, so a
// caller can reuse one Row value across Scan calls and avoid an allocation
// per row.
type RowParser struct {
	r      *csv.Reader
	header bool
}

// NewRowParser returns a parser reading CSV records from r. The first
// record is assumed to be a header and is discarded.
func NewRowParser(r io.Reader) *RowParser {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	return &RowParser{r: cr}
}

// Scan reads the next data row into row, deriving the day/week/hour/minute
// columns from ts. It returns io.EOF once the shard is exhausted.
func (p *RowParser) Scan(row *Row) error {
	if !p.header {
		if _, err := p.r.Read(); err != nil {
			return fmt.Errorf("ingest: reading header: %w", err)
		}

		p.header = true
	}

	record, err := p.r.Read()
	if err != nil {
		return err
	}

	return ParseRow(record, row)
}

// ParseRow fills row from one CSV record under the fixed events schema
// (ts, type, auction_id, advertiser_id, publisher_id, bid_price, user_id,
// total_price, country), treating "" and "null" as null for the nullable
// numeric fields.
func ParseRow(record []string, row *Row) error {
	if len(record) != csvColumnCount {
		return fmt.Errorf("ingest: expected %d columns, got %d", csvColumnCount, len(record)) //nolint:err113
	}

	ts, err := strconv.ParseInt(record[csvTS], 10, 64)
	if err != nil {
		return fmt.Errorf("ingest: parsing ts: %w", err)
	}

	advertiserID, err := strconv.ParseInt(record[csvAdvertiserID], 10, 64)
	if err != nil {
		return fmt.Errorf("ingest: parsing advertiser_id: %w", err)
	}

	publisherID, err := strconv.ParseInt(record[csvPublisherID], 10, 64)
	if err != nil {
		return fmt.Errorf("ingest: parsing publisher_id: %w", err)
	}

	userID, err := strconv.ParseInt(record[csvUserID], 10, 64)
	if err != nil {
		return fmt.Errorf("ingest: parsing user_id: %w", err)
	}

	bidPrice, bidNull, err := parseNullableFloat(record[csvBidPrice])
	if err != nil {
		return fmt.Errorf("ingest: parsing bid_price: %w", err)
	}

	totalPrice, totalNull, err := parseNullableFloat(record[csvTotalPrice])
	if err != nil {
		return fmt.Errorf("ingest: parsing total_price: %w", err)
	}

	row.TS = ts
	row.Type = record[csvType]
	row.AuctionID = record[csvAuctionID]
	row.AdvertiserID = advertiserID
	row.PublisherID = publisherID
	row.BidPrice = bidPrice
	row.BidPriceNull = bidNull
	row.UserID = userID
	row.TotalPrice = totalPrice
	row.TotalPriceNull = totalNull
	row.Country = record[csvCountry]

	row.Day = event.DayFromTS(ts)
	row.Week = event.WeekFromTS(ts)
	row.Hour = event.HourFromTS(ts)
	row.Minute = event.MinuteFromTS(ts)

	return nil
}

// isNullToken reports whether s is one of the two values the source
// treats as a missing numeric: the empty string, or the literal "null".
func isNullToken(s string) bool {
	return s == "" || s == "null"
}

func parseNullableFloat(s string) (float64, bool, error) {
	if isNullToken(s) {
		return 0, true, nil
	}

	v, err := strconv.ParseFloat(s, 64)

	return v, false, err
}
