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
	"time"

	"github.com/wtsi-hgi/adquery/cache"
	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/internal/intern"
	"github.com/wtsi-hgi/adquery/store"
)

// Engine is a query execution context bound to one optimized data
// directory. It owns the result cache, the loaded-rollup cache, and the
// interning table used to give equal category strings the same identity
// across partitions — all process-scoped state, carried as explicit
// fields rather than package-level globals so an Engine's lifetime is
// tied to its own lifetime, not the process's.
type Engine struct {
	root         string
	results      *cache.ResultCache
	aggregates   *cache.AggregateCache
	intern       *intern.Table
	cacheEnabled bool
}

// New returns an Engine reading from the optimized data directory at root,
// with the result cache enabled.
func New(root string) *Engine {
	return &Engine{
		root:         root,
		results:      cache.NewResultCache(),
		aggregates:   cache.NewAggregateCache(),
		intern:       intern.New(),
		cacheEnabled: true,
	}
}

// NewWithoutCache is New with the result cache disabled for this instance.
func NewWithoutCache(root string) *Engine {
	e := New(root)
	e.cacheEnabled = false

	return e
}

// Execute runs q and returns its result table and how long execution
// took, mirroring the source's (result, execution_time) contract so a
// caller can report per-query timings.
func (e *Engine) Execute(q Query) (*cache.Table, time.Duration, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, time.Since(start), err
	}

	var key string

	if e.cacheEnabled {
		key = cache.QueryHash(q)
		if t, ok := e.results.Get(key); ok {
			slog.Debug("query: result cache hit", "key", key)

			return t, time.Since(start), nil
		}
	}

	plan := Plan(q)
	slog.Debug("query: planned", "kind", plan.Kind, "rollup", plan.RollupName)

	var (
		table *cache.Table
		err   error
	)

	if plan.Kind == PlanRollup {
		table, err = e.executeRollup(plan.RollupName, q)
	} else {
		table, err = e.executeScan(plan.Scan, q)
	}

	if err != nil {
		return nil, time.Since(start), fmt.Errorf("query: execution failed: %w", err)
	}

	if e.cacheEnabled {
		e.results.Put(key, table)
	}

	return table, time.Since(start), nil
}

// loadAggregate returns the named rollup's data, decompressing it at most
// once per Engine lifetime.
func (e *Engine) loadAggregate(name string) (*columnar.Batch, error) {
	filename := name + store.Extension

	if b, ok := e.aggregates.Get(filename); ok {
		slog.Debug("query: aggregate cache hit", "rollup", name)

		return b, nil
	}

	slog.Debug("query: aggregate cache miss, reading from disk", "rollup", name)

	path := store.AggregatePath(e.root, name)

	r, err := columnar.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	e.aggregates.Put(filename, b)

	return b, nil
}
