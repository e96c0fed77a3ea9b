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

	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/rollup"
)

// PlanKind distinguishes a rollup-routed plan from a scan plan.
type PlanKind int

const (
	PlanRollup PlanKind = iota
	PlanScan
)

// QueryPlan is the result of planning a query: either a named rollup to
// read, or a pruned scan to run.
type QueryPlan struct {
	Kind       PlanKind
	RollupName string
	Scan       ScanPlan
}

// ScanPlan is a partition- and column-pruned scan: which type directories
// to enumerate, which days to restrict to (nil means every day), and which
// columns to project from each partition file.
type ScanPlan struct {
	Types   []string
	Days    []string // nil means unrestricted
	Columns []string
}

type shapeMatcher struct {
	name  string
	match func(Query) bool
}

// shapes is checked in order; the first match wins. Named directly after
// the pattern-matching methods this logic is grounded on.
var shapes = []shapeMatcher{
	{rollup.DailyRevenue, matchDailyRevenue},
	{rollup.PublisherDayCountryRevenue, matchPublisherRevenue},
	{rollup.CountryPurchases, matchCountryPurchases},
	{rollup.AdvertiserTypeCounts, matchAdvertiserType},
	{rollup.MinuteRevenue, matchMinuteRevenue},
}

// Plan decides how to execute q: a rollup shape match if one fits exactly,
// otherwise a partition- and column-pruned scan.
func Plan(q Query) QueryPlan {
	for _, s := range shapes {
		if s.match(q) {
			return QueryPlan{Kind: PlanRollup, RollupName: s.name}
		}
	}

	types, days := determinePartitions(q.Where)

	return QueryPlan{
		Kind: PlanScan,
		Scan: ScanPlan{
			Types:   types,
			Days:    days,
			Columns: determineColumns(q),
		},
	}
}

func matchDailyRevenue(q Query) bool {
	if !equalStringSlices(q.GroupBy, []string{event.Day}) {
		return false
	}

	if len(q.Select) != 2 {
		return false
	}

	if !HasColumn(q.Select, event.Day) {
		return false
	}

	if _, ok := FindAggregate(q.Select, SUM, event.BidPrice); !ok {
		return false
	}

	return len(q.Where) == 1 && HasFilter(q.Where, event.Type, OpEq, event.Impression)
}

func matchPublisherRevenue(q Query) bool {
	if !containsString(q.GroupBy, event.PublisherID) {
		return false
	}

	if !HasColumn(q.Select, event.PublisherID) {
		return false
	}

	if _, ok := FindAggregate(q.Select, SUM, event.BidPrice); !ok {
		return false
	}

	if !HasFilter(q.Where, event.Type, OpEq, event.Impression) {
		return false
	}

	for _, w := range q.Where {
		switch {
		case w.Col == event.Type && w.Op == OpEq:
		case w.Col == event.Country && w.Op == OpEq:
		case w.Col == event.Day && (w.Op == OpEq || w.Op == OpBetween):
		default:
			return false
		}
	}

	return true
}

func matchCountryPurchases(q Query) bool {
	if !equalStringSlices(q.GroupBy, []string{event.Country}) {
		return false
	}

	if !HasColumn(q.Select, event.Country) {
		return false
	}

	if _, ok := FindAggregate(q.Select, AVG, event.TotalPrice); !ok {
		return false
	}

	return len(q.Where) == 1 && HasFilter(q.Where, event.Type, OpEq, event.Purchase)
}

func matchAdvertiserType(q Query) bool {
	if !equalStringSets(q.GroupBy, []string{event.AdvertiserID, event.Type}) {
		return false
	}

	if !HasColumn(q.Select, event.AdvertiserID) || !HasColumn(q.Select, event.Type) {
		return false
	}

	if _, ok := FindAggregate(q.Select, COUNT, "*"); !ok {
		return false
	}

	return len(q.Where) == 0
}

func matchMinuteRevenue(q Query) bool {
	if !equalStringSlices(q.GroupBy, []string{event.Minute}) {
		return false
	}

	if !HasColumn(q.Select, event.Minute) {
		return false
	}

	if _, ok := FindAggregate(q.Select, SUM, event.BidPrice); !ok {
		return false
	}

	if !HasFilter(q.Where, event.Type, OpEq, event.Impression) {
		return false
	}

	for _, w := range q.Where {
		switch {
		case w.Col == event.Type && w.Op == OpEq:
		case w.Col == event.Day && w.Op == OpEq:
		default:
			return false
		}
	}

	return true
}

// determinePartitions derives the type and day restriction from where,
// per the planner's partition pruning rules. Notably, a "day between"
// filter does NOT expand into a day list here — the scan path stays
// correct but unpruned for that one case (documented open question).
func determinePartitions(where []Predicate) (types, days []string) {
	types = append([]string(nil), event.Types...)

	for _, w := range where {
		switch {
		case w.Col == event.Type && w.Op == OpEq:
			types = []string{fmt.Sprint(w.Val)}
		case w.Col == event.Type && w.Op == OpIn:
			types = toStringSlice(w.Val)
		case w.Col == event.Day && w.Op == OpEq:
			days = []string{fmt.Sprint(w.Val)}
		}
	}

	return types, days
}

// determineColumns is the union of every column referenced by select
// (aggregate arguments, excluding "*"), where, group_by and order_by
// (excluding aggregate alias names, which contain "(").
func determineColumns(q Query) []string {
	set := make(map[string]struct{})

	for _, s := range q.Select {
		if s.Kind == SelectColumn {
			set[s.Column] = struct{}{}
		} else if s.Column != "*" {
			set[s.Column] = struct{}{}
		}
	}

	for _, w := range q.Where {
		set[w.Col] = struct{}{}
	}

	for _, g := range q.GroupBy {
		set[g] = struct{}{}
	}

	for _, o := range q.OrderBy {
		if !strings.Contains(o.Col, "(") {
			set[o.Col] = struct{}{}
		}
	}

	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}

	sort.Strings(cols)

	return cols
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprint(item)
	}

	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}

	for _, s := range a {
		if _, ok := set[s]; !ok {
			return false
		}
	}

	return true
}
