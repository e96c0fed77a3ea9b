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

// Column is one column's worth of in-memory data. Only the slice matching
// Meta.Type is populated. Valid is nil when the column was written with no
// null values at all; otherwise it has one entry per row.
type Column struct {
	Meta   ColumnMeta
	Ints   []int64
	Floats []float64
	Strs   []string
	Valid  []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Meta.Type {
	case TypeInt64, TypeDate:
		return len(c.Ints)
	case TypeFloat64:
		return len(c.Floats)
	case TypeString:
		return len(c.Strs)
	default:
		return 0
	}
}

// IsNull reports whether row i of this column is null.
func (c *Column) IsNull(i int) bool {
	if c.Valid == nil {
		return false
	}

	return !c.Valid[i]
}

// Batch is an in-memory column-major table: the unit that Writer writes and
// Reader reads.
type Batch struct {
	Schema  []ColumnMeta
	Columns map[string]*Column
	NumRows int
}

// NewBatch returns an empty Batch with the given schema.
func NewBatch(schema []ColumnMeta) *Batch {
	cols := make(map[string]*Column, len(schema))

	for _, m := range schema {
		cols[m.Name] = &Column{Meta: m}
	}

	return &Batch{Schema: schema, Columns: cols}
}

// Column looks up a column by name, returning (nil, false) if absent.
func (b *Batch) Column(name string) (*Column, bool) {
	c, ok := b.Columns[name]

	return c, ok
}

// Concat appends other's rows onto b in place, column by column. Both
// batches are expected to carry the same columns (by name and type). A
// column present only in other is added to b's schema, which is exact when
// b has no rows yet (such as the empty batch returned for a type with no
// partitions). Columns are not padded: when b already has rows, a column
// missing from either side ends up shorter than NumRows.
func (b *Batch) Concat(other *Batch) {
	for name, oc := range other.Columns {
		bc, ok := b.Columns[name]
		if !ok {
			bc = &Column{Meta: oc.Meta}
			b.Columns[name] = bc
			b.Schema = append(b.Schema, oc.Meta)
		}

		appendColumn(bc, oc, b.NumRows)
	}

	b.NumRows += other.NumRows
}

// appendColumn appends src's values onto dst, padding dst's null bitmap for
// any rows dst already had if src introduces nullability dst didn't have
// before (priorRows is how many rows dst had before this append).
func appendColumn(dst, src *Column, priorRows int) {
	if src.Valid != nil && dst.Valid == nil {
		dst.Valid = make([]bool, priorRows)
		for i := range dst.Valid {
			dst.Valid[i] = true
		}
	}

	switch dst.Meta.Type {
	case TypeInt64, TypeDate:
		dst.Ints = append(dst.Ints, src.Ints...)
	case TypeFloat64:
		dst.Floats = append(dst.Floats, src.Floats...)
	case TypeString:
		dst.Strs = append(dst.Strs, src.Strs...)
	}

	if dst.Valid != nil {
		if src.Valid != nil {
			dst.Valid = append(dst.Valid, src.Valid...)
		} else {
			for i := 0; i < src.Len(); i++ {
				dst.Valid = append(dst.Valid, true)
			}
		}
	}
}

// Clone returns a deep copy of the batch, so a caller can mutate the result
// without affecting any cached copy.
func (b *Batch) Clone() *Batch {
	clone := &Batch{
		Schema:  append([]ColumnMeta(nil), b.Schema...),
		Columns: make(map[string]*Column, len(b.Columns)),
		NumRows: b.NumRows,
	}

	for name, c := range b.Columns {
		nc := &Column{Meta: c.Meta}
		nc.Ints = append(nc.Ints, c.Ints...)
		nc.Floats = append(nc.Floats, c.Floats...)
		nc.Strs = append(nc.Strs, c.Strs...)

		if c.Valid != nil {
			nc.Valid = append(nc.Valid, c.Valid...)
		}

		clone.Columns[name] = nc
	}

	return clone
}
