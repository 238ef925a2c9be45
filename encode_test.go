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
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/stretchr/testify/require"
)

func TestEncodeBigIntColumn(t *testing.T) {
	spec := ColumnSpec{Name: "a", Type: BigIntDataType, Nullable: true}
	ec, err := encodeColumn(spec, []any{int64(1), nil, int64(-3)})
	require.NoError(t, err)

	require.Equal(t, 3, ec.NumRows)
	require.Len(t, ec.Values, 24)
	require.Equal(t, uint64(1), binary.LittleEndian.Uint64(ec.Values[0:8]))
	require.Equal(t, uint64(0), binary.LittleEndian.Uint64(ec.Values[8:16]))
	require.Equal(t, int64(-3), int64(binary.LittleEndian.Uint64(ec.Values[16:24])))

	require.False(t, getBit(ec.Nulls, 0))
	require.True(t, getBit(ec.Nulls, 1))
	require.False(t, getBit(ec.Nulls, 2))
}

func TestEncodeSmallIntWidth(t *testing.T) {
	spec := ColumnSpec{Name: "a", Type: SmallIntDataType}
	ec, err := encodeColumn(spec, []any{int16(7), int16(-7)})
	require.NoError(t, err)
	require.Len(t, ec.Values, 4)
	require.Equal(t, uint16(7), binary.LittleEndian.Uint16(ec.Values[0:2]))
}

func TestEncodeDictText(t *testing.T) {
	spec := ColumnSpec{Name: "s", Type: TextDataType, Encoding: DictEncoding, CompParam: 32}
	ec, err := encodeColumn(spec, []any{"x", "y", "x", nil, "z"})
	require.NoError(t, err)

	require.Equal(t, []string{"x", "y", "z"}, ec.Dictionary)
	require.Len(t, ec.Values, 20)

	codes := make([]int32, 5)
	for i := range codes {
		codes[i] = int32(binary.LittleEndian.Uint32(ec.Values[i*4 : i*4+4]))
	}
	require.Equal(t, []int32{0, 1, 0, 0, 2}, codes)
	require.True(t, getBit(ec.Nulls, 3))
}

func TestEncodeBoolean(t *testing.T) {
	spec := ColumnSpec{Name: "b", Type: BooleanDataType}
	ec, err := encodeColumn(spec, []any{true, false, nil, true})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 1}, ec.Values)
	require.True(t, getBit(ec.Nulls, 2))
}

func TestEncodeTimestampPrecision(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 500_000_000, time.UTC)

	secs := ColumnSpec{Name: "ts", Type: TimestampDataType, Precision: 0}
	ec, err := encodeColumn(secs, []any{at})
	require.NoError(t, err)
	require.Equal(t, at.Unix(), int64(binary.LittleEndian.Uint64(ec.Values)))

	millis := ColumnSpec{Name: "ts", Type: TimestampDataType, Precision: 3}
	ec, err = encodeColumn(millis, []any{at})
	require.NoError(t, err)
	require.Equal(t, at.UnixMilli(), int64(binary.LittleEndian.Uint64(ec.Values)))

	nanos := ColumnSpec{Name: "ts", Type: TimestampDataType, Precision: 9}
	ec, err = encodeColumn(nanos, []any{at})
	require.NoError(t, err)
	require.Equal(t, at.UnixNano(), int64(binary.LittleEndian.Uint64(ec.Values)))
}

func TestEncodeDecimalScaling(t *testing.T) {
	spec := ColumnSpec{Name: "d", Type: DecimalDataType, Precision: 10, Scale: 2}
	ec, err := encodeColumn(spec, []any{12.34, -0.5})
	require.NoError(t, err)
	require.Equal(t, int64(1234), int64(binary.LittleEndian.Uint64(ec.Values[0:8])))
	require.Equal(t, int64(-50), int64(binary.LittleEndian.Uint64(ec.Values[8:16])))
}

func TestEncodeDate(t *testing.T) {
	spec := ColumnSpec{Name: "d", Type: DateDataType}
	ec, err := encodeColumn(spec, []any{time.Date(1970, 1, 11, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, int64(10), int64(binary.LittleEndian.Uint64(ec.Values)))
}

func TestEncodeTypeMismatch(t *testing.T) {
	spec := ColumnSpec{Name: "a", Type: BigIntDataType}
	_, err := encodeColumn(spec, []any{int64(1), "oops"})
	require.Error(t, err)
	require.Equal(t, KindTypeMismatch, KindOf(err))
}

func TestEncodeColumnsSchemaMismatch(t *testing.T) {
	schema := Schema{
		{Name: "a", Type: BigIntDataType},
		{Name: "b", Type: TextDataType, Encoding: DictEncoding},
	}
	_, err := encodeColumns(schema, []Column{{Name: "a", Values: []any{int64(1)}}})
	require.Equal(t, KindSchemaMismatch, KindOf(err))
}

// Round-trip through the Arrow stream path: encoding a column set and
// decoding it again must reproduce values and null positions exactly.
func TestArrowStreamRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cols := []Column{
		{Name: "i", Values: []any{int64(1), nil, int64(3)}},
		{Name: "f", Values: []any{1.5, 2.5, nil}},
		{Name: "s", Values: []any{"a", nil, "c"}},
		{Name: "b", Values: []any{true, false, nil}},
		{Name: "ts", Values: []any{at, nil, at.Add(time.Hour)}},
	}

	rec, err := buildArrowRecord(cols)
	require.NoError(t, err)
	defer rec.Release()

	payload, err := encodeArrowStream([]arrow.Record{rec})
	require.NoError(t, err)

	decoded, err := decodeArrowStream(payload)
	require.NoError(t, err)

	table := newResultTable(decoded, nil)
	defer table.Close()

	values, err := table.ToValues()
	require.NoError(t, err)
	require.Len(t, values, 3)

	require.Equal(t, []any{int64(1), 1.5, "a", true}, values[0][:4])
	require.Equal(t, []any{nil, 2.5, nil, false, nil}, values[1])
	require.Equal(t, []any{int64(3), nil, "c", nil}, values[2][:4])

	ts0, ok := values[0][4].(time.Time)
	require.True(t, ok)
	require.True(t, ts0.Equal(at))
	ts2, ok := values[2][4].(time.Time)
	require.True(t, ok)
	require.True(t, ts2.Equal(at.Add(time.Hour)))
}

func TestBitmapSlice(t *testing.T) {
	bm := newBitmap(20)
	for _, i := range []int{0, 3, 9, 17} {
		setBit(bm, i)
	}

	s := sliceBitmap(bm, 2, 10)
	require.True(t, getBit(s, 1))  // original bit 3
	require.True(t, getBit(s, 7))  // original bit 9
	require.False(t, getBit(s, 0)) // original bit 2
	require.False(t, getBit(s, 9))
}
