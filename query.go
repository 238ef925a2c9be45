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
	"strings"
)

// QueryParams tunes a Query call.
type QueryParams struct {
	// RowLimit caps the number of rows returned. Zero or negative means no
	// limit.
	RowLimit int64
	// Transport selects how the result bytes travel back. Defaults to
	// TransportInline.
	Transport TransportMode
	// DeviceID selects the device for segment transports. Ignored for the
	// inline transport.
	DeviceID int
	// KeepResult skips the automatic server-side release performed after a
	// segment-transport result has been decoded. Callers that keep the
	// server buffer alive must call ReleaseResult themselves.
	KeepResult bool
}

// Query executes a SELECT and fetches its result into host memory.
//
// With the default inline transport the result bytes come back with the
// query response. With TransportSharedSegment the server exports the result
// as a shared memory segment on its own machine; the SDK attaches it, decodes
// it, and detaches, so this requires the client to run on the same machine as
// the server. Segment-backed results are released server-side right after
// decoding unless QueryParams.KeepResult is set.
func (conn *Connection) Query(ctx context.Context, sql string, params *QueryParams) (*ResultTable, error) {
	if params == nil {
		params = &QueryParams{}
	}
	transport := params.Transport
	if transport == "" {
		transport = TransportInline
	}
	return conn.queryForResult(ctx, sql, DeviceCPU, params.DeviceID, params.RowLimit, transport, params.KeepResult)
}

// QueryGPU executes a SELECT and fetches its result into GPU memory on the
// given device. A GPU segment attacher must be supplied in Config. The result
// is released server-side right after decoding unless keepResult is set.
func (conn *Connection) QueryGPU(ctx context.Context, sql string, deviceID int, rowLimit int64, keepResult bool) (*ResultTable, error) {
	return conn.queryForResult(ctx, sql, DeviceGPU, deviceID, rowLimit, TransportSharedSegment, keepResult)
}

func (conn *Connection) queryForResult(
	ctx context.Context,
	sql string,
	device DeviceKind,
	deviceID int,
	rowLimit int64,
	transport TransportMode,
	keepResult bool,
) (*ResultTable, error) {
	if transport != TransportInline && transport != TransportSharedSegment {
		return nil, newError(KindUnsupportedTransport, "unknown transport mode %q", transport)
	}
	if rowLimit <= 0 {
		rowLimit = -1
	}

	desc, err := conn.executeQueryForResult(ctx, &queryRequest{
		Query:     strings.TrimSpace(sql),
		Device:    device,
		DeviceID:  deviceID,
		RowLimit:  rowLimit,
		Transport: transport,
	})
	if err != nil {
		return nil, err
	}

	table, err := conn.resolveTransport(desc)
	if err != nil {
		return nil, err
	}

	if desc.Transport == TransportSharedSegment && !keepResult {
		if err := conn.ReleaseResult(ctx, table, nil); err != nil {
			return nil, err
		}
	}
	return table, nil
}
