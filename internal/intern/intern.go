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

// Package intern provides a small explicit string interning table.
//
// The engine uses this instead of a process-global string cache so that
// equal strings share identity across partitions for the lifetime of one
// Engine, without any state surviving outside it.
package intern

import "sync"

// Table is a concurrency-safe string interning table.
type Table struct {
	mu     sync.Mutex
	values map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{values: make(map[string]string)}
}

// Intern returns the canonical copy of s, recording s as canonical if this
// is the first time it has been seen.
func (t *Table) Intern(s string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v, ok := t.values[s]; ok {
		return v
	}

	t.values[s] = s

	return s
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.values)
}
