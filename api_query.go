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
	"encoding/base64"
	"io"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// queryAPI defines interfaces under /v1/queries and /v1/results.
type queryAPI interface {
	// executeQueryForResult executes a SELECT and returns the descriptor of
	// its pending result. For the inline transport the result bytes ride
	// along in the descriptor.
	executeQueryForResult(ctx context.Context, req *queryRequest) (*ResultDescriptor, error)
	// deallocateResult frees the server-side buffer named by the descriptor.
	deallocateResult(ctx context.Context, desc *ResultDescriptor, device DeviceKind, deviceID int) error
}

var _ queryAPI = (*Connection)(nil)

type queryRequest struct {
	Query     string        `json:"query"`
	Device    DeviceKind    `json:"device"`
	DeviceID  int           `json:"device_id"`
	RowLimit  int64         `json:"row_limit"`
	Transport TransportMode `json:"transport"`
}

type queryResponse struct {
	ResultID  uuid.UUID     `json:"result_id"`
	NumRows   int64         `json:"num_rows"`
	NumCols   int64         `json:"num_cols"`
	Device    DeviceKind    `json:"device"`
	DeviceID  int           `json:"device_id"`
	Transport TransportMode `json:"transport"`
	// Payload is the base64 encoded result stream for the inline transport.
	Payload string `json:"payload,omitempty"`
	// SegmentKey and SegmentSize name the exported segment for the shared
	// segment transport.
	SegmentKey  int64 `json:"segment_key,omitempty"`
	SegmentSize int64 `json:"segment_size,omitempty"`
}

func (r *queryResponse) toDescriptor() (*ResultDescriptor, error) {
	desc := &ResultDescriptor{
		ID:          r.ResultID,
		NumRows:     r.NumRows,
		NumCols:     r.NumCols,
		Device:      r.Device,
		DeviceID:    r.DeviceID,
		Transport:   r.Transport,
		SegmentKey:  r.SegmentKey,
		SegmentSize: r.SegmentSize,
	}
	if r.Payload != "" {
		payload, err := base64.StdEncoding.DecodeString(r.Payload)
		if err != nil {
			return nil, wrapError(KindTransportFailure, err, "decode inline payload")
		}
		desc.Payload = payload
	}
	return desc, nil
}

type deallocateRequest struct {
	Device   DeviceKind `json:"device"`
	DeviceID int        `json:"device_id"`
}

func (conn *Connection) executeQueryForResult(ctx context.Context, request *queryRequest) (*ResultDescriptor, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/queries")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "execute query")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData queryResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, err
	}
	return respData.toDescriptor()
}

func (conn *Connection) deallocateResult(ctx context.Context, desc *ResultDescriptor, device DeviceKind, deviceID int) error {
	req, err := url.Parse(conn.config.Endpoint + "/v1/results/" + desc.ID.String() + "/release")
	if err != nil {
		return err
	}

	body, err := json.Marshal(&deallocateRequest{
		Device:   device,
		DeviceID: deviceID,
	})
	if err != nil {
		return err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return wrapError(KindTransportFailure, err, "release result")
	}
	defer sneakyBodyClose(resp.Body)
	return checkStatusCodeOK(resp)
}
