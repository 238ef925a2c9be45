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
	"fmt"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
)

// DataType is the logical type of a column.
type DataType string

const (
	// SmallIntDataType is a 16-bit integer data type.
	SmallIntDataType DataType = "smallint"
	// IntDataType is a 32-bit integer data type.
	IntDataType DataType = "int"
	// BigIntDataType is a 64-bit integer data type.
	BigIntDataType DataType = "bigint"
	// FloatDataType is a 32-bit floating point data type.
	FloatDataType DataType = "float"
	// DoubleDataType is a 64-bit floating point data type.
	DoubleDataType DataType = "double"
	// DecimalDataType is a fixed-precision decimal data type, carried on the
	// wire as a scaled 64-bit integer.
	DecimalDataType DataType = "decimal"
	// BooleanDataType is a bool data type.
	BooleanDataType DataType = "boolean"
	// TextDataType is a string data type, usually dictionary encoded.
	TextDataType DataType = "text"
	// TimestampDataType is a timestamp data type at the column's declared
	// precision.
	TimestampDataType DataType = "timestamp"
	// DateDataType is a date data type, carried as days since the epoch.
	DateDataType DataType = "date"
	// TimeDataType is a time-of-day data type, carried as seconds since
	// midnight.
	TimeDataType DataType = "time"
)

// Encoding is the wire encoding of a column's value buffer.
type Encoding string

const (
	// NoneEncoding carries values at the type's natural width.
	NoneEncoding Encoding = "none"
	// DictEncoding carries text values as 32-bit dictionary codes.
	DictEncoding Encoding = "dict"
	// FixedEncoding carries integer values narrowed to CompParam bits.
	FixedEncoding Encoding = "fixed"
)

// ColumnSpec is the server-declared metadata for one table column. It is
// immutable for the duration of one load or fetch call.
type ColumnSpec struct {
	Name      string   `json:"name"`
	Type      DataType `json:"type"`
	Nullable  bool     `json:"nullable"`
	Precision int      `json:"precision"`
	Scale     int      `json:"scale"`
	Encoding  Encoding `json:"encoding"`
	// CompParam parameterizes the encoding: dictionary id width for DICT
	// columns, bit width for FIXED columns.
	CompParam int `json:"comp_param"`
}

// Schema describes the columns of a table or query result.
type Schema []ColumnSpec

// valueWidth returns the wire width in bytes of one value of the column.
func (cs ColumnSpec) valueWidth() int {
	switch cs.Type {
	case SmallIntDataType:
		return 2
	case IntDataType, FloatDataType:
		return 4
	case BigIntDataType, DoubleDataType, DecimalDataType, TimestampDataType:
		return 8
	case BooleanDataType:
		return 1
	case DateDataType, TimeDataType:
		return 8
	case TextDataType:
		if cs.Encoding == DictEncoding {
			return 4
		}
		// Non-dictionary text has no fixed width; the planner uses the
		// measured buffer size instead.
		return 0
	default:
		return 0
	}
}

// timestampUnit maps the column's declared precision to the epoch unit.
func (cs ColumnSpec) timestampUnit() time.Duration {
	switch cs.Precision {
	case 3:
		return time.Millisecond
	case 6:
		return time.Microsecond
	case 9:
		return time.Nanosecond
	default:
		return time.Second
	}
}

// arrowField maps the column spec to the equivalent Arrow field.
func (cs ColumnSpec) arrowField() (arrow.Field, error) {
	var typ arrow.DataType
	switch cs.Type {
	case SmallIntDataType:
		typ = arrow.PrimitiveTypes.Int16
	case IntDataType:
		typ = arrow.PrimitiveTypes.Int32
	case BigIntDataType, DecimalDataType:
		typ = arrow.PrimitiveTypes.Int64
	case FloatDataType:
		typ = arrow.PrimitiveTypes.Float32
	case DoubleDataType:
		typ = arrow.PrimitiveTypes.Float64
	case BooleanDataType:
		typ = arrow.FixedWidthTypes.Boolean
	case TextDataType:
		typ = arrow.BinaryTypes.String
	case TimestampDataType:
		switch cs.timestampUnit() {
		case time.Millisecond:
			typ = arrow.FixedWidthTypes.Timestamp_ms
		case time.Microsecond:
			typ = arrow.FixedWidthTypes.Timestamp_us
		case time.Nanosecond:
			typ = arrow.FixedWidthTypes.Timestamp_ns
		default:
			typ = arrow.FixedWidthTypes.Timestamp_s
		}
	case DateDataType:
		typ = arrow.FixedWidthTypes.Date64
	case TimeDataType:
		typ = arrow.FixedWidthTypes.Time64us
	default:
		return arrow.Field{}, newError(KindTypeMismatch, "no arrow mapping for type %q", cs.Type)
	}
	return arrow.Field{Name: cs.Name, Type: typ, Nullable: cs.Nullable}, nil
}

// arrowSchema maps a full schema to the equivalent Arrow schema.
func (s Schema) arrowSchema() (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(s))
	for _, cs := range s {
		f, err := cs.arrowField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return arrow.NewSchema(fields, nil), nil
}

// inferSpec derives a column spec from in-memory values. The first non-nil
// value decides the type; all-nil columns default to text.
func inferSpec(name string, values []any) (ColumnSpec, error) {
	spec := ColumnSpec{Name: name, Nullable: true, Encoding: NoneEncoding}
	for _, v := range values {
		if v == nil {
			continue
		}
		switch v.(type) {
		case int16:
			spec.Type = SmallIntDataType
		case int32:
			spec.Type = IntDataType
		case int, int64:
			spec.Type = BigIntDataType
		case float32:
			spec.Type = FloatDataType
		case float64:
			spec.Type = DoubleDataType
		case bool:
			spec.Type = BooleanDataType
		case string:
			spec.Type = TextDataType
			spec.Encoding = DictEncoding
			spec.CompParam = 32
		case time.Time:
			spec.Type = TimestampDataType
		default:
			return ColumnSpec{}, newError(KindTypeMismatch, "cannot infer column type from %T", v)
		}
		return spec, nil
	}
	spec.Type = TextDataType
	spec.Encoding = DictEncoding
	spec.CompParam = 32
	return spec, nil
}

// specFromArrowField derives a column spec from an Arrow field, used when a
// table is created implicitly from Arrow input.
func specFromArrowField(f arrow.Field) (ColumnSpec, error) {
	spec := ColumnSpec{Name: f.Name, Nullable: f.Nullable, Encoding: NoneEncoding}
	switch typ := f.Type.(type) {
	case *arrow.Int16Type:
		spec.Type = SmallIntDataType
	case *arrow.Int32Type:
		spec.Type = IntDataType
	case *arrow.Int64Type:
		spec.Type = BigIntDataType
	case *arrow.Float32Type:
		spec.Type = FloatDataType
	case *arrow.Float64Type:
		spec.Type = DoubleDataType
	case *arrow.BooleanType:
		spec.Type = BooleanDataType
	case *arrow.StringType:
		spec.Type = TextDataType
		spec.Encoding = DictEncoding
		spec.CompParam = 32
	case *arrow.TimestampType:
		spec.Type = TimestampDataType
		switch typ.Unit {
		case arrow.Millisecond:
			spec.Precision = 3
		case arrow.Microsecond:
			spec.Precision = 6
		case arrow.Nanosecond:
			spec.Precision = 9
		}
	case *arrow.Date32Type, *arrow.Date64Type:
		spec.Type = DateDataType
	case *arrow.Time32Type, *arrow.Time64Type:
		spec.Type = TimeDataType
	default:
		return ColumnSpec{}, newError(KindTypeMismatch, "unsupported arrow type %s for column %q", f.Type, f.Name)
	}
	return spec, nil
}

func (s Schema) columnNames() []string {
	names := make([]string, len(s))
	for i, cs := range s {
		names[i] = cs.Name
	}
	return names
}

func (cs ColumnSpec) String() string {
	return fmt.Sprintf("%s %s(nullable=%t, precision=%d, scale=%d, encoding=%s, comp=%d)",
		cs.Name, cs.Type, cs.Nullable, cs.Precision, cs.Scale, cs.Encoding, cs.CompParam)
}
