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
	"go.uber.org/zap"
)

// resolveTransport obtains and decodes the result bytes named by the
// descriptor and returns the decoded table, tagged with the descriptor for
// later release.
//
// For the shared segment transport the local attachment is scoped strictly to
// the decode: the segment is detached on every exit path, success or failure.
// A detach failure is logged and swallowed since the decoded result, if
// obtained, is already copied out of the segment.
func (conn *Connection) resolveTransport(desc *ResultDescriptor) (*ResultTable, error) {
	switch desc.Transport {
	case TransportInline:
		records, err := decodeArrowStream(desc.Payload)
		if err != nil {
			return nil, wrapError(KindTransportFailure, err, "decode inline result stream")
		}
		return newResultTable(records, desc), nil

	case TransportSharedSegment:
		attacher := conn.attacherFor(desc.Device)
		if attacher == nil {
			return nil, newError(KindUnsupportedTransport,
				"no segment attacher for device %q; supply one in Config", desc.Device)
		}

		seg, err := attacher.Attach(desc.SegmentKey, desc.SegmentSize)
		if err != nil {
			return nil, wrapError(KindTransportFailure, err, "attach result segment")
		}
		defer func() {
			if derr := seg.Detach(); derr != nil {
				conn.logger.Warn("failed to detach result segment",
					zap.Int64("segment_key", desc.SegmentKey),
					zap.String("device", string(desc.Device)),
					zap.Error(derr))
			}
		}()

		// The IPC reader copies into its own buffers, so the records stay
		// valid after detach.
		records, err := decodeArrowStream(seg.Bytes())
		if err != nil {
			return nil, wrapError(KindTransportFailure, err, "decode result segment stream")
		}
		return newResultTable(records, desc), nil

	default:
		return nil, newError(KindUnsupportedTransport, "unknown transport mode %q", desc.Transport)
	}
}

func (conn *Connection) attacherFor(device DeviceKind) SegmentAttacher {
	switch device {
	case DeviceGPU:
		return conn.gpuAttacher
	default:
		return conn.cpuAttacher
	}
}
