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
	"os"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"
)

// Writer creates a new columnar file and commits a single Batch to it.
//
// Mirrors the openBoltWritable idiom used for other on-disk stores in this
// codebase: NoFreelistSync/NoGrowSync/FreelistMapType, since these files are
// written once and never updated in place.
type Writer struct {
	level zstd.EncoderLevel
}

// NewWriter returns a Writer that compresses column blocks at the given
// zstd level (spec's "compression level" knob; typical values are
// zstd.SpeedFastest through zstd.SpeedBestCompression).
func NewWriter(level zstd.EncoderLevel) *Writer {
	return &Writer{level: level}
}

// Write creates path (failing if it already exists) and writes batch to it.
func (w *Writer) Write(path string, batch *Batch) error {
	if _, err := os.Stat(path); err == nil {
		return ErrFileExists
	}

	db, err := bolt.Open(path, FileMode, &bolt.Options{
		NoFreelistSync: true,
		NoGrowSync:     true,
		FreelistType:   bolt.FreelistMapType,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		return w.writeTx(tx, batch)
	})
}

func (w *Writer) writeTx(tx *bolt.Tx, batch *Batch) error {
	meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
	if err != nil {
		return err
	}

	stats, err := tx.CreateBucketIfNotExists([]byte(bucketStats))
	if err != nil {
		return err
	}

	cols, err := tx.CreateBucketIfNotExists([]byte(bucketColumns))
	if err != nil {
		return err
	}

	if err := meta.Put([]byte(keySchema), encodeValue(batch.Schema)); err != nil {
		return err
	}

	if err := meta.Put([]byte(keyRowCount), encodeValue(batch.NumRows)); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(w.level))
	if err != nil {
		return err
	}
	defer enc.Close()

	for _, colMeta := range batch.Schema {
		column := batch.Columns[colMeta.Name]

		s := computeStats(column)
		if err := stats.Put([]byte(colMeta.Name), encodeValue(s)); err != nil {
			return err
		}

		raw := encodeColumnValues(column)
		compressed := enc.EncodeAll(raw, nil)

		if err := cols.Put([]byte(colMeta.Name), compressed); err != nil {
			return err
		}
	}

	return nil
}

// encodeColumnValues binc-encodes the column's data+validity into a flat
// byte slice, independent of compression.
func encodeColumnValues(c *Column) []byte {
	switch c.Meta.Type {
	case TypeInt64, TypeDate:
		return encodeValue(rawInts{Values: c.Ints, Valid: c.Valid})
	case TypeFloat64:
		return encodeValue(rawFloats{Values: c.Floats, Valid: c.Valid})
	case TypeString:
		return encodeValue(rawStrs{Values: c.Strs, Valid: c.Valid})
	default:
		return nil
	}
}

type rawInts struct {
	Values []int64
	Valid  []bool
}

type rawFloats struct {
	Values []float64
	Valid  []bool
}

type rawStrs struct {
	Values []string
	Valid  []bool
}
