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

// Package columnar implements the on-disk file format used for both
// partitions and rollups: a self-describing, compressed, columnar file with
// per-column min/max statistics.
//
// Each file is a bbolt database containing three buckets (meta, stats,
// columns), following the same dbSet-over-bolt.DB idiom used elsewhere in
// this codebase for other on-disk stores, with ugorji/go/codec (BincHandle)
// for binary encoding and klauspost/compress/zstd for per-column compression.
package columnar

import (
	"github.com/ugorji/go/codec"
)

const (
	bucketMeta    = "meta"
	bucketStats   = "stats"
	bucketColumns = "columns"

	keySchema   = "columns"
	keyRowCount = "rowcount"

	// FileMode is the permission used for newly created columnar files.
	FileMode = 0o600
)

// Error is the type of the constant Err* sentinel values in this package.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrFileExists     = Error("columnar: file already exists")
	ErrFileNotFound   = Error("columnar: file not found")
	ErrUnknownType    = Error("columnar: unknown column type")
	ErrColumnNotFound = Error("columnar: column not found")
)

// ColumnType identifies the physical representation of a column.
type ColumnType uint8

const (
	TypeInt64 ColumnType = iota
	TypeFloat64
	TypeString
	// TypeDate stores a calendar date as the number of days since the Unix
	// epoch (UTC), so min/max comparisons are plain integer comparisons.
	TypeDate
)

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeDate:
		return "date"
	default:
		return "unknown"
	}
}

// ColumnMeta describes one column's name, type and nullability.
type ColumnMeta struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// handle is the shared codec configuration for this package, matching the
// BincHandle used for binary encoding elsewhere in the codebase.
func handle() codec.Handle {
	return new(codec.BincHandle)
}

func encodeValue(v interface{}) []byte {
	var buf []byte

	enc := codec.NewEncoderBytes(&buf, handle())
	enc.MustEncode(v)

	return buf
}

func decodeValue(b []byte, v interface{}) {
	dec := codec.NewDecoderBytes(b, handle())
	dec.MustDecode(v)
}
