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

// planBatches partitions a full set of encoded columns into row-bounded
// batches whose serialized size stays within budget bytes. A budget of zero
// means no splitting: the whole set forms a single batch.
//
// The planner derives an average per-row byte cost from the encoded buffers
// and slices all columns at the same row boundaries, so row order is
// preserved and no row is duplicated or dropped. A single row whose own cost
// exceeds the budget still forms its own batch; data is never dropped to
// satisfy the budget. Dictionary-encoded columns carry their whole dictionary
// in every batch, which can push a batch past the budget by the dictionary's
// size.
func planBatches(encoded []*EncodedColumn, budget int64) [][]*EncodedColumn {
	if len(encoded) == 0 {
		return nil
	}
	numRows := encoded[0].NumRows
	if budget <= 0 || numRows == 0 {
		return [][]*EncodedColumn{encoded}
	}

	var totalBytes int64
	for _, ec := range encoded {
		totalBytes += int64(ec.byteSize())
	}
	perRow := float64(totalBytes) / float64(numRows)

	rowsPerBatch := numRows
	if perRow > 0 {
		rowsPerBatch = int(float64(budget) / perRow)
	}
	if rowsPerBatch < 1 {
		rowsPerBatch = 1
	}
	if rowsPerBatch >= numRows {
		return [][]*EncodedColumn{encoded}
	}

	var batches [][]*EncodedColumn
	for start := 0; start < numRows; start += rowsPerBatch {
		end := start + rowsPerBatch
		if end > numRows {
			end = numRows
		}
		batch := make([]*EncodedColumn, len(encoded))
		for i, ec := range encoded {
			batch[i] = ec.slice(start, end)
		}
		batches = append(batches, batch)
	}
	return batches
}

// slice cuts rows [start, end) out of the column. The value buffer is
// fixed-width per row, so the cut is exact; the dictionary is carried whole
// because the codes in the slice still refer to it.
func (ec *EncodedColumn) slice(start, end int) *EncodedColumn {
	n := end - start
	width := 0
	if ec.NumRows > 0 {
		width = len(ec.Values) / ec.NumRows
	}
	return &EncodedColumn{
		Spec:       ec.Spec,
		NumRows:    n,
		Nulls:      sliceBitmap(ec.Nulls, start, n),
		Values:     ec.Values[start*width : end*width],
		Dictionary: ec.Dictionary,
	}
}
