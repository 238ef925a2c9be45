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
	"net/url"
	"time"

	json "github.com/goccy/go-json"
)

// loadAPI defines interfaces under /v1/tables/{table}/load.
type loadAPI interface {
	// loadColumnarBinary loads one batch of encoded columns.
	loadColumnarBinary(ctx context.Context, table string, columns []*EncodedColumn, columnNames []string) error
	// loadArrowBinary loads a base64 encoded Arrow IPC stream.
	loadArrowBinary(ctx context.Context, table string, payload []byte, columnNames []string) error
	// loadRowWise loads row value lists.
	loadRowWise(ctx context.Context, table string, rows []wireRow, columnNames []string) error
}

var _ loadAPI = (*Connection)(nil)

// wireColumn is the JSON envelope of one encoded column. Nulls and Values
// marshal as base64.
type wireColumn struct {
	Name       string   `json:"name"`
	NumRows    int      `json:"num_rows"`
	Nulls      []byte   `json:"nulls"`
	Values     []byte   `json:"values"`
	Dictionary []string `json:"dictionary,omitempty"`
}

type columnarLoadRequest struct {
	Columns     []wireColumn `json:"columns"`
	ColumnNames []string     `json:"column_names,omitempty"`
}

type arrowLoadRequest struct {
	// Rows is a base64 encoded Arrow IPC stream: a schema message followed
	// by record batch messages.
	Rows        string   `json:"rows"`
	ColumnNames []string `json:"column_names,omitempty"`
}

// wireRow is one row of the row-wise load request.
type wireRow []any

type rowWiseLoadRequest struct {
	Rows        []wireRow `json:"rows"`
	ColumnNames []string  `json:"column_names,omitempty"`
}

// toWireRow converts row values to their JSON wire form.
func toWireRow(row Row) wireRow {
	out := make(wireRow, len(row))
	for i, v := range row {
		if t, ok := v.(time.Time); ok {
			out[i] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[i] = v
	}
	return out
}

func (conn *Connection) loadColumnarBinary(ctx context.Context, table string, columns []*EncodedColumn, columnNames []string) error {
	request := &columnarLoadRequest{
		Columns:     make([]wireColumn, len(columns)),
		ColumnNames: columnNames,
	}
	for i, ec := range columns {
		request.Columns[i] = wireColumn{
			Name:       ec.Spec.Name,
			NumRows:    ec.NumRows,
			Nulls:      ec.Nulls,
			Values:     ec.Values,
			Dictionary: ec.Dictionary,
		}
	}
	return conn.postLoad(ctx, table, "columnar", request)
}

func (conn *Connection) loadArrowBinary(ctx context.Context, table string, payload []byte, columnNames []string) error {
	return conn.postLoad(ctx, table, "arrow", &arrowLoadRequest{
		Rows:        string(payload),
		ColumnNames: columnNames,
	})
}

func (conn *Connection) loadRowWise(ctx context.Context, table string, rows []wireRow, columnNames []string) error {
	return conn.postLoad(ctx, table, "rows", &rowWiseLoadRequest{
		Rows:        rows,
		ColumnNames: columnNames,
	})
}

func (conn *Connection) postLoad(ctx context.Context, table, strategy string, request any) error {
	req, err := url.Parse(conn.config.Endpoint + "/v1/tables/" + url.PathEscape(table) + "/load/" + strategy)
	if err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return wrapError(KindTransportFailure, err, "load "+strategy)
	}
	defer sneakyBodyClose(resp.Body)
	return checkStatusCodeOK(resp)
}
