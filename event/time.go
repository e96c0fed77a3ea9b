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

package event

import (
	"fmt"
	"time"
)

const millisPerDay = 24 * 60 * 60 * 1000

// DayFromTS truncates ts (epoch milliseconds, UTC) down to the calendar
// date it falls on, expressed as days since the Unix epoch (the native
// representation of columnar.TypeDate).
func DayFromTS(tsMillis int64) int64 {
	return floorDiv(tsMillis, millisPerDay)
}

// WeekFromTS truncates ts to the Monday-aligned start of its week, in the
// same days-since-epoch representation as DayFromTS.
func WeekFromTS(tsMillis int64) int64 {
	day := DayFromTS(tsMillis)
	// The Unix epoch (1970-01-01) was a Thursday: weekday 3 counting
	// Monday as 0.
	weekday := floorMod(day+3, 7)

	return day - weekday
}

// HourFromTS truncates ts down to the start of its UTC hour, still in
// epoch milliseconds.
func HourFromTS(tsMillis int64) int64 {
	const millisPerHour = 60 * 60 * 1000

	return floorDiv(tsMillis, millisPerHour) * millisPerHour
}

// MinuteFromTS formats ts truncated to the minute as "YYYY-MM-DD HH:MM".
func MinuteFromTS(tsMillis int64) string {
	t := time.UnixMilli(tsMillis).UTC()

	return t.Format("2006-01-02 15:04")
}

// DateString renders a days-since-epoch value as an ISO "YYYY-MM-DD" date.
func DateString(days int64) string {
	t := time.Unix(days*24*60*60, 0).UTC()

	return t.Format("2006-01-02")
}

// ParseDate parses an ISO "YYYY-MM-DD" date into days-since-epoch, for
// coercing a query's string date literals against a TypeDate column.
func ParseDate(s string) (int64, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("event: invalid date %q: %w", s, err)
	}

	return t.Unix() / (24 * 60 * 60), nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
