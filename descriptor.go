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
	"sync"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/google/uuid"
)

// DeviceKind is the device class a result table lives on.
type DeviceKind string

const (
	// DeviceCPU places the result in host memory.
	DeviceCPU DeviceKind = "cpu"
	// DeviceGPU places the result in GPU memory.
	DeviceGPU DeviceKind = "gpu"
)

// TransportMode is the retrieval method for a query result.
type TransportMode string

const (
	// TransportInline returns the result bytes inline with the query
	// response.
	TransportInline TransportMode = "inline"
	// TransportSharedSegment exports the result as a memory segment the
	// client attaches by key. The descriptor's DeviceKind decides whether the
	// segment is host shared memory or GPU memory.
	TransportSharedSegment TransportMode = "shared_segment"
)

// ResultDescriptor is the server-issued handle for a pending query result. It
// identifies the server-side buffer holding the result and how to reach its
// bytes. The server keeps the buffer alive until the descriptor is released
// or the session ends.
type ResultDescriptor struct {
	ID        uuid.UUID
	NumRows   int64
	NumCols   int64
	Device    DeviceKind
	DeviceID  int
	Transport TransportMode

	// Payload holds the result bytes for the inline transport.
	Payload []byte
	// SegmentKey and SegmentSize name the memory segment for the shared
	// segment transport.
	SegmentKey  int64
	SegmentSize int64

	mu       sync.Mutex
	released bool
}

// ResultTable is a decoded in-memory query result. It is owned exclusively by
// the caller; the originating descriptor is carried as an unexported tag so
// the server-side buffer can later be released through ReleaseResult. The tag
// lives in the pointed-to struct, so it survives copies of the handle.
type ResultTable struct {
	records []arrow.Record
	desc    *ResultDescriptor
}

func newResultTable(records []arrow.Record, desc *ResultDescriptor) *ResultTable {
	return &ResultTable{records: records, desc: desc}
}

// Records returns the result as Arrow record batches.
func (t *ResultTable) Records() []arrow.Record {
	return t.records
}

// Schema returns the Arrow schema of the result, or nil for an empty result.
func (t *ResultTable) Schema() *arrow.Schema {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[0].Schema()
}

// NumRows returns the total row count across all record batches.
func (t *ResultTable) NumRows() int64 {
	var n int64
	for _, rec := range t.records {
		n += rec.NumRows()
	}
	return n
}

// Close releases the local Arrow buffers. It does not touch the server-side
// resource; use Connection.ReleaseResult for that.
func (t *ResultTable) Close() {
	for _, rec := range t.records {
		rec.Release()
	}
	t.records = nil
}

// ToValues reads the result and returns the rows as value lists, converting
// Arrow cells to plain Go values.
func (t *ResultTable) ToValues() ([][]any, error) {
	var out [][]any
	for _, rec := range t.records {
		n := int(rec.NumRows())
		for r := 0; r < n; r++ {
			row := make([]any, rec.NumCols())
			for c := 0; c < int(rec.NumCols()); c++ {
				v, err := arrowValue(rec.Column(c), r)
				if err != nil {
					return nil, err
				}
				row[c] = v
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func arrowValue(col arrow.Array, i int) (any, error) {
	if col.IsNull(i) {
		return nil, nil
	}
	switch a := col.(type) {
	case *array.Int16:
		return a.Value(i), nil
	case *array.Int32:
		return a.Value(i), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Float32:
		return a.Value(i), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.Timestamp:
		typ := a.DataType().(*arrow.TimestampType)
		return a.Value(i).ToTime(typ.Unit), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Dictionary:
		if dict, ok := a.Dictionary().(*array.String); ok {
			return dict.Value(a.GetValueIndex(i)), nil
		}
		return nil, newError(KindTypeMismatch, "unsupported dictionary value type %s", a.Dictionary().DataType())
	default:
		return nil, newError(KindTypeMismatch, "unsupported result column type %s", col.DataType())
	}
}
