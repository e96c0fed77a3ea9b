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

// Package rollup builds the fixed set of pre-aggregated tables described by
// the data model, scanning only the type directories and only the columns
// each rollup needs.
package rollup

import (
	"github.com/wtsi-hgi/adquery/columnar"
	"github.com/wtsi-hgi/adquery/store"
)

// scanColumns lazily reads columns from every partition of eventType,
// concatenating them into one in-memory batch. Only one partition file's
// data is ever decompressed at a time.
func scanColumns(root, eventType string, columns []string) (*columnar.Batch, error) {
	days, err := store.ListPartitions(root, eventType)
	if err != nil {
		return nil, err
	}

	var out *columnar.Batch

	for _, day := range days {
		path := store.PartitionPath(root, eventType, day)

		r, err := columnar.Open(path)
		if err != nil {
			return nil, err
		}

		part, err := r.ReadColumns(columns)
		closeErr := r.Close()

		if err != nil {
			return nil, err
		}

		if closeErr != nil {
			return nil, closeErr
		}

		if out == nil {
			out = part
		} else {
			out.Concat(part)
		}
	}

	if out == nil {
		out = columnar.NewBatch(nil)
	}

	return out, nil
}

// scanColumnsForTypes is scanColumns over several event type directories.
func scanColumnsForTypes(root string, eventTypes, columns []string) (*columnar.Batch, error) {
	var out *columnar.Batch

	for _, t := range eventTypes {
		part, err := scanColumns(root, t, columns)
		if err != nil {
			return nil, err
		}

		if out == nil {
			out = part
		} else {
			out.Concat(part)
		}
	}

	if out == nil {
		out = columnar.NewBatch(nil)
	}

	return out, nil
}
