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

// Package query implements the query planner and scan executor: it turns a
// structured query document into either a rollup read or a partition- and
// column-pruned scan, and runs it.
package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SelectKind distinguishes a bare column reference from an aggregate call
// in a query's select list.
type SelectKind int

const (
	SelectColumn SelectKind = iota
	SelectAggregate
)

// AggFunc is a recognized aggregate function name.
type AggFunc string

const (
	SUM   AggFunc = "SUM"
	AVG   AggFunc = "AVG"
	COUNT AggFunc = "COUNT"
)

// SelectItem is a select list element: the tagged variant
// Column(name) | Aggregate(func, col), parsed once from the query
// document's heterogeneous JSON (a bare string or a single-entry map) at
// query entry rather than re-inspected on every downstream use.
type SelectItem struct {
	Kind   SelectKind
	Column string
	Func   AggFunc
}

// Col builds a bare column select item.
func Col(name string) SelectItem {
	return SelectItem{Kind: SelectColumn, Column: name}
}

// Agg builds an aggregate select item.
func Agg(fn AggFunc, column string) SelectItem {
	return SelectItem{Kind: SelectAggregate, Func: fn, Column: column}
}

// Alias is the output column name: the bare column name, or
// "<func>(<col>)" in lower case for an aggregate (spec's output naming
// convention, e.g. "sum(bid_price)", "count(*)").
func (s SelectItem) Alias() string {
	if s.Kind == SelectColumn {
		return s.Column
	}

	return strings.ToLower(string(s.Func)) + "(" + s.Column + ")"
}

// UnmarshalJSON accepts either a bare string (a column reference) or a
// single-entry object mapping an aggregate function name to its argument
// column (e.g. {"SUM": "bid_price"}).
func (s *SelectItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Col(name)

		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("query: select item is neither a column name nor an aggregate object: %s", data)
	}

	if len(m) != 1 {
		return fmt.Errorf("query: select aggregate object must have exactly one key: %s", data)
	}

	for fn, col := range m {
		*s = Agg(AggFunc(strings.ToUpper(fn)), col)
	}

	return nil
}

// MarshalJSON round-trips a select item back to the shape it was parsed
// from, so a Query can be re-serialized (e.g. as part of a cache key)
// identically to how a caller would have written it.
func (s SelectItem) MarshalJSON() ([]byte, error) {
	if s.Kind == SelectColumn {
		return json.Marshal(s.Column)
	}

	return json.Marshal(map[string]string{string(s.Func): s.Column})
}

// Predicate is one where-clause entry. Val's concrete type depends on Op:
// a scalar for eq/neq, a slice for in/between.
type Predicate struct {
	Col string `json:"col"`
	Op  string `json:"op"`
	Val any    `json:"val"`
}

// Recognized predicate operators.
const (
	OpEq      = "eq"
	OpNeq     = "neq"
	OpIn      = "in"
	OpBetween = "between"
)

// OrderItem is one order-by entry.
type OrderItem struct {
	Col string `json:"col"`
	Dir string `json:"dir"`
}

// Descending reports whether this order item sorts in descending order;
// the default (empty or anything but "desc", case-insensitive) is
// ascending.
func (o OrderItem) Descending() bool {
	return strings.EqualFold(o.Dir, "desc")
}

// Query is a parsed query document.
type Query struct {
	Select  []SelectItem `json:"select"`
	From    string       `json:"from"`
	Where   []Predicate  `json:"where,omitempty"`
	GroupBy []string     `json:"group_by,omitempty"`
	OrderBy []OrderItem  `json:"order_by,omitempty"`
}

// ErrNotEvents is returned when from names anything other than the single
// logical table.
var ErrNotEvents = fmt.Errorf("query: from must be %q", eventsTable)

const eventsTable = "events"

// Validate checks the query's from clause; everything else is structurally
// guaranteed valid JSON by this point. Planning never fails: semantic
// problems (columns absent from the data, malformed predicate shapes) are
// reported as errors during execution.
func (q Query) Validate() error {
	if q.From != "" && q.From != eventsTable {
		return ErrNotEvents
	}

	return nil
}

// Parse decodes a query document from JSON.
func Parse(data []byte) (Query, error) {
	var q Query

	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, fmt.Errorf("query: malformed query document: %w", err)
	}

	if err := q.Validate(); err != nil {
		return Query{}, err
	}

	return q, nil
}

// HasFilter reports whether where contains a predicate matching col and op
// with the given value (used by the rollup shape matchers).
func HasFilter(where []Predicate, col, op string, val any) bool {
	for _, w := range where {
		if w.Col == col && w.Op == op && fmt.Sprint(w.Val) == fmt.Sprint(val) {
			return true
		}
	}

	return false
}

// HasFilterOp reports whether where contains any predicate on col with op,
// regardless of value.
func HasFilterOp(where []Predicate, col, op string) bool {
	for _, w := range where {
		if w.Col == col && w.Op == op {
			return true
		}
	}

	return false
}

// HasColumn reports whether name appears as a bare column select item.
func HasColumn(sel []SelectItem, name string) bool {
	for _, s := range sel {
		if s.Kind == SelectColumn && s.Column == name {
			return true
		}
	}

	return false
}

// FindAggregate returns the first select item matching fn/col (col "*"
// matches COUNT(*)).
func FindAggregate(sel []SelectItem, fn AggFunc, col string) (SelectItem, bool) {
	for _, s := range sel {
		if s.Kind == SelectAggregate && s.Func == fn && s.Column == col {
			return s, true
		}
	}

	return SelectItem{}, false
}
