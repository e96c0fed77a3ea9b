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

// Package cache holds the engine's two memoization layers: a ResultCache
// keyed by query hash, and an AggregateCache keyed by rollup filename. Both
// follow the RWMutex-guarded map pattern used elsewhere in this codebase
// for small in-process caches, and both return independent copies so a
// caller mutating a result can never corrupt the cached copy.
package cache

import (
	"crypto/md5" //nolint:gosec // not a security boundary, just a cache key
	"encoding/hex"
	"encoding/json"
	"sync"
)

// Table is a query result: a header row of column names plus data rows.
// Go's encoding/json already marshals struct fields in declaration order,
// so, unlike the source's json.dumps(sort_keys=True), no explicit key-sort
// step is needed to get a canonical hash input (see QueryHash).
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given column names.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}

	return len(t.Rows)
}

// Clone returns a deep copy: a caller mutating the clone cannot affect the
// original, and vice versa.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}

	clone := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}

	for i, row := range t.Rows {
		clone.Rows[i] = append([]any(nil), row...)
	}

	return clone
}

// QueryHash returns a deterministic cache key for any JSON-marshalable
// value. MD5 is acceptable here: the key is not a security boundary, only
// a memoization handle.
func QueryHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshaling a well-formed Query can't fail; if it somehow does,
		// degrade to a constant key rather than panicking the caller.
		b = []byte("invalid")
	}

	sum := md5.Sum(b) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// ResultCache memoizes whole query results by query hash.
type ResultCache struct {
	mu   sync.RWMutex
	data map[string]*Table
}

// NewResultCache returns an empty ResultCache.
func NewResultCache() *ResultCache {
	return &ResultCache{data: make(map[string]*Table)}
}

// Get returns an independent copy of the cached table for key, if present.
func (c *ResultCache) Get(key string) (*Table, bool) {
	c.mu.RLock()
	t, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return t.Clone(), true
}

// Put stores an independent copy of t under key.
func (c *ResultCache) Put(key string, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = t.Clone()
}

// Len reports how many results are currently cached.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
