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

package cache

import (
	"sync"

	"github.com/wtsi-hgi/adquery/columnar"
)

// AggregateCache memoizes rollup files by filename, so a rollup hit by
// many queries in the same process is only read and decompressed once.
type AggregateCache struct {
	mu   sync.RWMutex
	data map[string]*columnar.Batch
}

// NewAggregateCache returns an empty AggregateCache.
func NewAggregateCache() *AggregateCache {
	return &AggregateCache{data: make(map[string]*columnar.Batch)}
}

// Get returns an independent copy of the cached batch for filename, if
// present.
func (c *AggregateCache) Get(filename string) (*columnar.Batch, bool) {
	c.mu.RLock()
	b, ok := c.data[filename]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return b.Clone(), true
}

// Put stores an independent copy of b under filename.
func (c *AggregateCache) Put(filename string, b *columnar.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[filename] = b.Clone()
}
