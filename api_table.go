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
	"io"
	"net/url"

	json "github.com/goccy/go-json"
)

// tableAPI defines interfaces under /v1/tables.
type tableAPI interface {
	// getTables lists the table names in the session's database.
	getTables(ctx context.Context) ([]string, error)
	// getTableSchema returns the column specs of the given table.
	getTableSchema(ctx context.Context, table string) (Schema, error)
	// createTable creates a table with the given columns.
	createTable(ctx context.Context, table string, schema Schema) error
}

var _ tableAPI = (*Connection)(nil)

type getTablesResponse struct {
	Tables []string `json:"tables"`
}

type getTableSchemaResponse struct {
	Columns []ColumnSpec `json:"columns"`
}

type createTableRequest struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

func (conn *Connection) getTables(ctx context.Context) ([]string, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/tables")
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Get(ctx, req)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "get tables")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData getTablesResponse
	err = json.Unmarshal(data, &respData)
	return respData.Tables, err
}

func (conn *Connection) getTableSchema(ctx context.Context, table string) (Schema, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/tables/" + url.PathEscape(table) + "/schema")
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Get(ctx, req)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "get table schema")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData getTableSchemaResponse
	err = json.Unmarshal(data, &respData)
	return Schema(respData.Columns), err
}

func (conn *Connection) createTable(ctx context.Context, table string, schema Schema) error {
	req, err := url.Parse(conn.config.Endpoint + "/v1/tables")
	if err != nil {
		return err
	}

	body, err := json.Marshal(&createTableRequest{
		Name:    table,
		Columns: schema,
	})
	if err != nil {
		return err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return wrapError(KindTransportFailure, err, "create table")
	}
	defer sneakyBodyClose(resp.Body)
	return checkStatusCodeOK(resp)
}
