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
)

// ReleaseOptions tunes a ReleaseResult call.
type ReleaseOptions struct {
	// DeviceID overrides the device the deallocation is addressed to.
	// Defaults to the device id recorded in the result's descriptor.
	DeviceID *int
}

// ReleaseResult asks the server to free the buffer backing the given result
// table. Segment-backed results are released automatically after decoding
// unless the query kept them; everything else keeps its server-side buffer
// alive until released here or the session ends. Garbage collection never
// releases a result.
//
// Releasing a table that was not produced by a query fails with a
// NoDescriptor error. Releasing the same result twice fails with an
// AlreadyReleased error; the first successful release wins. This holds for
// CPU and GPU results alike.
func (conn *Connection) ReleaseResult(ctx context.Context, table *ResultTable, opts *ReleaseOptions) error {
	if table == nil || table.desc == nil {
		return newError(KindNoDescriptor, "table was not produced by a query; nothing to release")
	}
	desc := table.desc

	desc.mu.Lock()
	defer desc.mu.Unlock()
	if desc.released {
		return newError(KindAlreadyReleased, "result %s already released", desc.ID)
	}

	deviceID := desc.DeviceID
	if opts != nil && opts.DeviceID != nil {
		deviceID = *opts.DeviceID
	}

	if err := conn.deallocateResult(ctx, desc, desc.Device, deviceID); err != nil {
		return err
	}
	desc.released = true
	return nil
}
