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

package columnar

import (
	"log/slog"
	"os"
	"syscall"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"
)

// Reader opens a columnar file read-only. The schema and per-column
// statistics are loaded eagerly (they are small); column data is
// decompressed lazily, only for the columns ReadColumns is asked for.
// Reads are never skipped on the strength of the statistics: Stats exposes
// them, but neither the planner nor the scan executor consults them.
//
// Mirrors the openBoltReadOnly idiom used for other on-disk stores in this
// codebase.
type Reader struct {
	db      *bolt.DB
	schema  []ColumnMeta
	byName  map[string]ColumnMeta
	stats   map[string]ColumnStats
	numRows int
}

// Open opens the columnar file at path for reading.
func Open(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrFileNotFound
	}

	db, err := bolt.Open(path, FileMode, &bolt.Options{
		ReadOnly:  true,
		MmapFlags: syscall.MAP_POPULATE,
	})
	if err != nil {
		return nil, err
	}

	r := &Reader{db: db, byName: make(map[string]ColumnMeta), stats: make(map[string]ColumnStats)}

	if err := r.loadMeta(); err != nil {
		db.Close()

		return nil, err
	}

	slog.Debug("columnar: opened", "path", path, "rows", r.numRows, "columns", len(r.schema))

	return r, nil
}

func (r *Reader) loadMeta() error {
	return r.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		if meta == nil {
			return ErrFileNotFound
		}

		decodeValue(meta.Get([]byte(keySchema)), &r.schema)
		decodeValue(meta.Get([]byte(keyRowCount)), &r.numRows)

		for _, m := range r.schema {
			r.byName[m.Name] = m
		}

		stats := tx.Bucket([]byte(bucketStats))
		if stats == nil {
			return nil
		}

		for _, m := range r.schema {
			raw := stats.Get([]byte(m.Name))
			if raw == nil {
				continue
			}

			var s ColumnStats

			decodeValue(raw, &s)
			r.stats[m.Name] = s
		}

		return nil
	})
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Schema returns the file's column schema.
func (r *Reader) Schema() []ColumnMeta {
	return r.schema
}

// NumRows returns the number of rows in the file, from metadata (no column
// data needs to be read to answer this).
func (r *Reader) NumRows() int {
	return r.numRows
}

// HasColumn reports whether the file's schema contains the named column.
func (r *Reader) HasColumn(name string) bool {
	_, ok := r.byName[name]

	return ok
}

// Stats returns the statistics for a column, if present.
func (r *Reader) Stats(name string) (ColumnStats, bool) {
	s, ok := r.stats[name]

	return s, ok
}

// ReadColumns decompresses and decodes only the requested columns, silently
// skipping any name absent from this file's schema (column pruning
// tolerates partitions with divergent schemas, per spec).
func (r *Reader) ReadColumns(names []string) (*Batch, error) {
	wanted := make([]ColumnMeta, 0, len(names))

	for _, name := range names {
		if m, ok := r.byName[name]; ok {
			wanted = append(wanted, m)
		}
	}

	batch := NewBatch(wanted)
	batch.NumRows = r.numRows

	if len(wanted) == 0 {
		return batch, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	err = r.db.View(func(tx *bolt.Tx) error {
		cols := tx.Bucket([]byte(bucketColumns))
		if cols == nil {
			return ErrFileNotFound
		}

		for _, m := range wanted {
			compressed := cols.Get([]byte(m.Name))
			if compressed == nil {
				continue
			}

			raw, err := dec.DecodeAll(compressed, nil)
			if err != nil {
				return err
			}

			col := batch.Columns[m.Name]
			decodeColumnValues(m.Type, raw, col)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// ReadAll reads every column in the schema.
func (r *Reader) ReadAll() (*Batch, error) {
	names := make([]string, len(r.schema))
	for i, m := range r.schema {
		names[i] = m.Name
	}

	return r.ReadColumns(names)
}

func decodeColumnValues(t ColumnType, raw []byte, col *Column) {
	switch t {
	case TypeInt64, TypeDate:
		var v rawInts

		decodeValue(raw, &v)
		col.Ints, col.Valid = v.Values, v.Valid
	case TypeFloat64:
		var v rawFloats

		decodeValue(raw, &v)
		col.Floats, col.Valid = v.Values, v.Valid
	case TypeString:
		var v rawStrs

		decodeValue(raw, &v)
		col.Strs, col.Valid = v.Values, v.Valid
	}
}
