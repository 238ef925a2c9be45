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
	"encoding/binary"
	"math"
	"time"
)

// EncodedColumn is one column in the binary-columnar wire layout: a null
// bitmap (one bit per row, LSB-first, 1 = null) followed by a packed
// little-endian value buffer at the spec's declared width. Dictionary-encoded
// text carries 32-bit codes plus the dictionary itself.
type EncodedColumn struct {
	Spec       ColumnSpec
	NumRows    int
	Nulls      []byte
	Values     []byte
	Dictionary []string
}

// byteSize is the serialized size of the column, used by the chunk planner.
func (ec *EncodedColumn) byteSize() int {
	size := len(ec.Nulls) + len(ec.Values)
	for _, s := range ec.Dictionary {
		size += len(s)
	}
	return size
}

// encodeColumn converts one column of in-memory values into its wire
// representation per the spec. Null slots still occupy a fixed-width zero
// value so the buffer can be sliced at row boundaries.
func encodeColumn(spec ColumnSpec, values []any) (*EncodedColumn, error) {
	ec := &EncodedColumn{
		Spec:    spec,
		NumRows: len(values),
		Nulls:   newBitmap(len(values)),
	}

	width := spec.valueWidth()
	if spec.Encoding == FixedEncoding && spec.CompParam > 0 {
		width = spec.CompParam / 8
	}
	ec.Values = make([]byte, 0, len(values)*width)

	var dictCodes map[string]int32
	if spec.Type == TextDataType && spec.Encoding == DictEncoding {
		dictCodes = make(map[string]int32)
	}

	for i, v := range values {
		if v == nil {
			setBit(ec.Nulls, i)
			ec.Values = appendZero(ec.Values, width)
			continue
		}

		switch spec.Type {
		case SmallIntDataType, IntDataType, BigIntDataType:
			n, ok := asInt64(v)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to %s", spec.Name, v, spec.Type)
			}
			ec.Values = appendInt(ec.Values, n, width)
		case FloatDataType:
			f, ok := asFloat64(v)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to float", spec.Name, v)
			}
			ec.Values = binary.LittleEndian.AppendUint32(ec.Values, math.Float32bits(float32(f)))
		case DoubleDataType:
			f, ok := asFloat64(v)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to double", spec.Name, v)
			}
			ec.Values = binary.LittleEndian.AppendUint64(ec.Values, math.Float64bits(f))
		case DecimalDataType:
			f, ok := asFloat64(v)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to decimal", spec.Name, v)
			}
			scaled := int64(math.Round(f * math.Pow10(spec.Scale)))
			ec.Values = appendInt(ec.Values, scaled, width)
		case BooleanDataType:
			t, ok := v.(bool)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to boolean", spec.Name, v)
			}
			if t {
				ec.Values = append(ec.Values, 1)
			} else {
				ec.Values = append(ec.Values, 0)
			}
		case TextDataType:
			s, ok := v.(string)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to text", spec.Name, v)
			}
			if dictCodes == nil {
				return nil, newError(KindTypeMismatch,
					"column %q: non-dictionary text has no columnar wire form; use the arrow or rows method", spec.Name)
			}
			code, seen := dictCodes[s]
			if !seen {
				code = int32(len(ec.Dictionary))
				dictCodes[s] = code
				ec.Dictionary = append(ec.Dictionary, s)
			}
			ec.Values = appendInt(ec.Values, int64(code), 4)
		case TimestampDataType:
			t, ok := v.(time.Time)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to timestamp", spec.Name, v)
			}
			epoch := t.UnixNano() / int64(spec.timestampUnit())
			ec.Values = appendInt(ec.Values, epoch, width)
		case DateDataType:
			t, ok := v.(time.Time)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to date", spec.Name, v)
			}
			days := t.Unix() / 86400
			ec.Values = appendInt(ec.Values, days, width)
		case TimeDataType:
			t, ok := v.(time.Time)
			if !ok {
				return nil, newError(KindTypeMismatch,
					"column %q: cannot coerce %T to time", spec.Name, v)
			}
			secs := int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
			ec.Values = appendInt(ec.Values, secs, width)
		default:
			return nil, newError(KindTypeMismatch, "column %q: unsupported type %q", spec.Name, spec.Type)
		}
	}
	return ec, nil
}

// encodeColumns encodes a full column set against the target schema, in
// schema order.
func encodeColumns(schema Schema, columns []Column) ([]*EncodedColumn, error) {
	if len(schema) != len(columns) {
		return nil, newError(KindSchemaMismatch,
			"input has %d columns, table has %d", len(columns), len(schema))
	}
	encoded := make([]*EncodedColumn, len(columns))
	for i, col := range columns {
		ec, err := encodeColumn(schema[i], col.Values)
		if err != nil {
			return nil, err
		}
		encoded[i] = ec
	}
	return encoded, nil
}

func appendInt(b []byte, v int64, width int) []byte {
	switch width {
	case 1:
		return append(b, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(b, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(b, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(b, uint64(v))
	}
}

func appendZero(b []byte, width int) []byte {
	for i := 0; i < width; i++ {
		b = append(b, 0)
	}
	return b
}

// newBitmap allocates a zeroed bitmap covering n rows.
func newBitmap(n int) []byte {
	return make([]byte, (n+7)/8)
}

func setBit(bm []byte, i int) {
	bm[i/8] |= 1 << (i % 8)
}

func getBit(bm []byte, i int) bool {
	return bm[i/8]&(1<<(i%8)) != 0
}

// sliceBitmap copies bits [start, start+n) of bm into a fresh bitmap. Slices
// rarely land on byte boundaries, so this shifts bit by bit.
func sliceBitmap(bm []byte, start, n int) []byte {
	out := newBitmap(n)
	for i := 0; i < n; i++ {
		if getBit(bm, start+i) {
			setBit(out, i)
		}
	}
	return out
}
