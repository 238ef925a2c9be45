/*
 * Copyright 2024 EmberData, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package emberdb

import (
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Column is one named in-memory column. A nil element marks a missing value.
type Column struct {
	Name   string
	Values []any
}

// Row is one row of values in column order. A nil element marks a missing
// value.
type Row []any

// TableData is the tabular input to LoadTable. Exactly one of the three
// shapes is set, chosen by the constructor used.
type TableData struct {
	records []arrow.Record
	columns []Column
	rows    []Row
}

// FromArrow wraps Arrow record batches as load input. All records must share
// one schema.
func FromArrow(records ...arrow.Record) *TableData {
	return &TableData{records: records}
}

// FromColumns wraps named column vectors as load input. All columns must have
// the same length.
func FromColumns(columns ...Column) *TableData {
	return &TableData{columns: columns}
}

// FromRows wraps a bare sequence of rows as load input.
func FromRows(rows ...Row) *TableData {
	return &TableData{rows: rows}
}

// NumColumns returns the column count of the input.
func (d *TableData) NumColumns() int {
	switch {
	case d.records != nil:
		if len(d.records) == 0 {
			return 0
		}
		return int(d.records[0].NumCols())
	case d.columns != nil:
		return len(d.columns)
	default:
		if len(d.rows) == 0 {
			return 0
		}
		return len(d.rows[0])
	}
}

// NumRows returns the row count of the input.
func (d *TableData) NumRows() int64 {
	switch {
	case d.records != nil:
		var n int64
		for _, rec := range d.records {
			n += rec.NumRows()
		}
		return n
	case d.columns != nil:
		if len(d.columns) == 0 {
			return 0
		}
		return int64(len(d.columns[0].Values))
	default:
		return int64(len(d.rows))
	}
}

// asColumns returns the input in column form, transposing rows when needed.
// Column names for row input are taken from names, which must match the row
// width.
func (d *TableData) asColumns(names []string) ([]Column, error) {
	switch {
	case d.columns != nil:
		return d.columns, nil
	case d.rows != nil:
		if len(d.rows) > 0 && len(names) != len(d.rows[0]) {
			return nil, newError(KindSchemaMismatch,
				"row width %d does not match %d target columns", len(d.rows[0]), len(names))
		}
		cols := make([]Column, len(names))
		for i, name := range names {
			cols[i] = Column{Name: name, Values: make([]any, len(d.rows))}
		}
		for r, row := range d.rows {
			if len(row) != len(names) {
				return nil, newError(KindSchemaMismatch,
					"row %d has %d values, want %d", r, len(row), len(names))
			}
			for c, v := range row {
				cols[c].Values[r] = v
			}
		}
		return cols, nil
	default:
		return nil, newError(KindTypeMismatch, "arrow input cannot be loaded column-wise; use the arrow method")
	}
}

// asRows returns the input in row form, transposing columns when needed.
func (d *TableData) asRows() ([]Row, error) {
	switch {
	case d.rows != nil:
		return d.rows, nil
	case d.columns != nil:
		if len(d.columns) == 0 {
			return nil, nil
		}
		n := len(d.columns[0].Values)
		rows := make([]Row, n)
		for r := 0; r < n; r++ {
			row := make(Row, len(d.columns))
			for c, col := range d.columns {
				if len(col.Values) != n {
					return nil, newError(KindSchemaMismatch,
						"column %q has %d values, want %d", col.Name, len(col.Values), n)
				}
				row[c] = col.Values[r]
			}
			rows[r] = row
		}
		return rows, nil
	default:
		return nil, newError(KindTypeMismatch, "arrow input cannot be loaded row-wise; use the arrow method")
	}
}

// asArrow returns the input as Arrow record batches, building a record from
// column vectors when needed.
func (d *TableData) asArrow() ([]arrow.Record, error) {
	switch {
	case d.records != nil:
		return d.records, nil
	case d.columns != nil:
		rec, err := buildArrowRecord(d.columns)
		if err != nil {
			return nil, err
		}
		return []arrow.Record{rec}, nil
	default:
		return nil, newError(KindTypeMismatch, "row input cannot be loaded as arrow; use the rows method")
	}
}

// inferSchema derives a schema from the input, used for implicit table
// creation.
func (d *TableData) inferSchema() (Schema, error) {
	switch {
	case d.records != nil:
		if len(d.records) == 0 {
			return nil, newError(KindSchemaMismatch, "cannot infer schema from empty arrow input")
		}
		var schema Schema
		for _, f := range d.records[0].Schema().Fields() {
			cs, err := specFromArrowField(f)
			if err != nil {
				return nil, err
			}
			schema = append(schema, cs)
		}
		return schema, nil
	case d.columns != nil:
		var schema Schema
		for _, col := range d.columns {
			cs, err := inferSpec(col.Name, col.Values)
			if err != nil {
				return nil, err
			}
			schema = append(schema, cs)
		}
		return schema, nil
	default:
		return nil, newError(KindSchemaMismatch, "cannot infer a schema from bare rows; create the table first")
	}
}

// buildArrowRecord builds one Arrow record from column vectors, inferring the
// field types from the values.
func buildArrowRecord(columns []Column) (arrow.Record, error) {
	var fields []arrow.Field
	for _, col := range columns {
		cs, err := inferSpec(col.Name, col.Values)
		if err != nil {
			return nil, err
		}
		f, err := cs.arrowField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	for i, col := range columns {
		if err := appendColumnValues(b.Field(i), col); err != nil {
			return nil, err
		}
	}
	return b.NewRecord(), nil
}

func appendColumnValues(fb array.Builder, col Column) error {
	for _, v := range col.Values {
		if v == nil {
			fb.AppendNull()
			continue
		}
		switch b := fb.(type) {
		case *array.Int16Builder:
			n, ok := asInt64(v)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to smallint", col.Name, v)
			}
			b.Append(int16(n))
		case *array.Int32Builder:
			n, ok := asInt64(v)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to int", col.Name, v)
			}
			b.Append(int32(n))
		case *array.Int64Builder:
			n, ok := asInt64(v)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to bigint", col.Name, v)
			}
			b.Append(n)
		case *array.Float32Builder:
			f, ok := asFloat64(v)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to float", col.Name, v)
			}
			b.Append(float32(f))
		case *array.Float64Builder:
			f, ok := asFloat64(v)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to double", col.Name, v)
			}
			b.Append(f)
		case *array.BooleanBuilder:
			t, ok := v.(bool)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to boolean", col.Name, v)
			}
			b.Append(t)
		case *array.StringBuilder:
			s, ok := v.(string)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to text", col.Name, v)
			}
			b.Append(s)
		case *array.TimestampBuilder:
			t, ok := v.(time.Time)
			if !ok {
				return newError(KindTypeMismatch, "column %q: cannot coerce %T to timestamp", col.Name, v)
			}
			b.Append(arrow.Timestamp(t.UnixNano() / int64(time.Second)))
		default:
			return newError(KindTypeMismatch, "column %q: unsupported builder %T", col.Name, fb)
		}
	}
	return nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	default:
		return 0, false
	}
}
