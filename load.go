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
	"context"
	"time"

	"go.uber.org/zap"
)

// LoadMethod selects the transfer strategy for LoadTable.
type LoadMethod string

const (
	// LoadMethodInfer picks the strategy from the input shape: Arrow input
	// loads as an Arrow stream, column vectors load columnar, bare rows load
	// row-wise.
	LoadMethodInfer LoadMethod = "infer"
	// LoadMethodArrow serializes the whole input into one Arrow IPC stream
	// and loads it with a single call.
	LoadMethodArrow LoadMethod = "arrow"
	// LoadMethodColumnar encodes the input into the binary-columnar wire
	// format and loads it in size-bounded batches.
	LoadMethodColumnar LoadMethod = "columnar"
	// LoadMethodRows sends the input as row value lists in one call.
	LoadMethodRows LoadMethod = "rows"
)

// CreateMode controls implicit table creation before a load.
type CreateMode string

const (
	// CreateInfer queries the table list and creates the table only if it is
	// absent.
	CreateInfer CreateMode = "infer"
	// CreateAlways attempts creation unconditionally; the load fails with a
	// TableExists error if the server rejects it.
	CreateAlways CreateMode = "always"
	// CreateNever skips creation.
	CreateNever CreateMode = "never"
)

// LoadOptions tunes a LoadTable call. The zero value infers both the
// strategy and the creation policy.
type LoadOptions struct {
	Method LoadMethod
	Create CreateMode
	// ColumnNames names the target columns the load applies to. Empty means
	// all columns in table order.
	ColumnNames []string
	// ColumnNamesFromSchema matches input columns to the target table's
	// schema by position and takes the names from the schema, for inputs
	// whose own column names do not line up.
	ColumnNamesFromSchema bool
	// ChunkSizeBytes bounds the serialized size of each columnar load
	// request. Zero means no chunking: the whole input goes in one request.
	ChunkSizeBytes int64
}

// LoadTable loads tabular data into a table.
//
// A load that fails after some batches were accepted is NOT rolled back: the
// table is left partially loaded and the error is terminal. Callers must
// treat the table state as indeterminate on failure and verify row counts
// before retrying.
func (conn *Connection) LoadTable(ctx context.Context, tableName string, data *TableData, opts *LoadOptions) error {
	if opts == nil {
		opts = &LoadOptions{}
	}

	// Validate literals before touching the network.
	method, err := resolveLoadMethod(opts.Method, data)
	if err != nil {
		return err
	}
	create := opts.Create
	if create == "" {
		create = CreateInfer
	}
	switch create {
	case CreateInfer, CreateAlways, CreateNever:
	default:
		return newError(KindInvalidMethod,
			"unexpected create mode %q; want one of infer, always, never", create)
	}

	if create == CreateInfer {
		tables, err := conn.getTables(ctx)
		if err != nil {
			return err
		}
		create = CreateAlways
		for _, t := range tables {
			if t == tableName {
				create = CreateNever
				break
			}
		}
	}
	if create == CreateAlways {
		schema, err := data.inferSchema()
		if err != nil {
			return err
		}
		if err := conn.createTable(ctx, tableName, schema); err != nil {
			return err
		}
	}

	switch method {
	case LoadMethodArrow:
		return conn.loadArrow(ctx, tableName, data, opts)
	case LoadMethodColumnar:
		return conn.loadColumnar(ctx, tableName, data, opts)
	default:
		return conn.loadRows(ctx, tableName, data, opts)
	}
}

// resolveLoadMethod maps the requested method literal and the input shape to
// one concrete strategy. It runs exactly once at call entry; nothing later in
// the pipeline inspects the input shape again.
func resolveLoadMethod(m LoadMethod, data *TableData) (LoadMethod, error) {
	switch m {
	case "", LoadMethodInfer:
		switch {
		case data.records != nil:
			return LoadMethodArrow, nil
		case data.columns != nil:
			return LoadMethodColumnar, nil
		default:
			return LoadMethodRows, nil
		}
	case LoadMethodArrow, LoadMethodColumnar, LoadMethodRows:
		return m, nil
	default:
		return "", newError(KindInvalidMethod,
			"unexpected load method %q; want one of infer, arrow, columnar, rows", m)
	}
}

// loadColumnar encodes the input against the table's current schema and
// issues one binary-columnar load per planned batch, sequentially and in row
// order.
func (conn *Connection) loadColumnar(ctx context.Context, tableName string, data *TableData, opts *LoadOptions) error {
	schema, err := conn.getTableSchema(ctx, tableName)
	if err != nil {
		return err
	}
	if len(schema) != data.NumColumns() {
		return newError(KindSchemaMismatch,
			"input has %d columns but table %q has %d", data.NumColumns(), tableName, len(schema))
	}

	cols, err := data.asColumns(schema.columnNames())
	if err != nil {
		return err
	}
	if opts.ColumnNamesFromSchema {
		for i := range cols {
			cols[i].Name = schema[i].Name
		}
	}

	encoded, err := encodeColumns(schema, cols)
	if err != nil {
		return err
	}

	batches := planBatches(encoded, opts.ChunkSizeBytes)
	start := time.Now()
	for i, batch := range batches {
		if err := conn.loadColumnarBinary(ctx, tableName, batch, opts.ColumnNames); err != nil {
			// No rollback: earlier batches stay loaded.
			return err
		}
		conn.logger.Debug("loaded columnar batch",
			zap.String("table", tableName),
			zap.Int("batch", i+1),
			zap.Int("batches", len(batches)),
			zap.Int("rows", batch[0].NumRows))
	}
	conn.logger.Debug("columnar load finished",
		zap.String("table", tableName),
		zap.Int64("rows", data.NumRows()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// loadArrow serializes the whole input into one self-describing IPC stream
// and loads it with a single call; the stream format carries its own framing,
// so there is no chunking.
func (conn *Connection) loadArrow(ctx context.Context, tableName string, data *TableData, opts *LoadOptions) error {
	records, err := data.asArrow()
	if err != nil {
		return err
	}
	payload, err := encodeRecordBatches(records)
	if err != nil {
		return err
	}
	return conn.loadArrowBinary(ctx, tableName, payload, opts.ColumnNames)
}

// loadRows converts the input to row value lists and loads them in one call.
func (conn *Connection) loadRows(ctx context.Context, tableName string, data *TableData, opts *LoadOptions) error {
	rows, err := data.asRows()
	if err != nil {
		return err
	}
	wire := make([]wireRow, len(rows))
	for i, row := range rows {
		wire[i] = toWireRow(row)
	}
	return conn.loadRowWise(ctx, tableName, wire, opts.ColumnNames)
}
