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

	"go.uber.org/zap"
)

// Connection is one logical session with an EmberDB server. It is not safe
// for concurrent use: one session serves one logical caller at a time.
// Separate connections are fully independent.
type Connection struct {
	config *Config
	http   HTTPClient
	logger *zap.Logger

	cpuAttacher SegmentAttacher
	gpuAttacher SegmentAttacher
}

// Open creates a new connection.
func Open(config *Config) *Connection {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cpuAttacher := config.SharedMemoryAttacher
	if cpuAttacher == nil {
		cpuAttacher = defaultSharedMemoryAttacher()
	}
	return &Connection{
		config:      config,
		http:        NewHTTPClient(config),
		logger:      logger,
		cpuAttacher: cpuAttacher,
		gpuAttacher: config.GPUMemoryAttacher,
	}
}

// Close closes the database connection.
//
// You don't typically need to call this as the garbage collector will release
// the resources when the connection is no longer referenced. However, it can
// be useful to call this if you want to release the resources immediately.
func (conn *Connection) Close() {}

// GetTables lists all the tables in the database.
func (conn *Connection) GetTables(ctx context.Context) ([]string, error) {
	return conn.getTables(ctx)
}

// GetTableSchema returns the column specs of the given table: name, logical
// type, nullability, precision, scale and encoding per column.
func (conn *Connection) GetTableSchema(ctx context.Context, table string) (Schema, error) {
	return conn.getTableSchema(ctx, table)
}

// CreateTable creates a table whose schema is derived from the given tabular
// data: column order and names from the input, types inferred from the
// values.
func (conn *Connection) CreateTable(ctx context.Context, table string, data *TableData) error {
	schema, err := data.inferSchema()
	if err != nil {
		return err
	}
	return conn.createTable(ctx, table, schema)
}

// CreateTableWithSchema creates a table with the given columns.
func (conn *Connection) CreateTableWithSchema(ctx context.Context, table string, schema Schema) error {
	return conn.createTable(ctx, table, schema)
}
