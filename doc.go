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

/*
Package emberdb provides a client for moving tabular data in and out of an
EmberDB server.

# Connection

Use Open to create a connection. This is the entrance to everything else:

	conn := emberdb.Open(&emberdb.Config{
		Endpoint: "http://<emberdb-host>:<emberdb-port>",
	})

# Loading Data

LoadTable moves tabular data into a table, creating it first when needed.
The input can be Arrow record batches, named column vectors, or bare rows;
the transfer strategy is inferred from the input shape unless pinned with
LoadOptions.Method:

	err := conn.LoadTable(ctx, "stocks", emberdb.FromRows(
		emberdb.Row{int64(1), "a"},
		emberdb.Row{int64(2), "b"},
	), nil)

Columnar loads can be chunked to keep individual requests under a byte
budget:

	err := conn.LoadTable(ctx, "stocks", emberdb.FromColumns(cols...),
		&emberdb.LoadOptions{
			Method:         emberdb.LoadMethodColumnar,
			ChunkSizeBytes: 16 << 20,
		})

A multi-batch load that fails midway is not rolled back; the table is left
partially loaded and callers must reconcile its state themselves.

# Querying Data

Query executes a SELECT and decodes the result into Arrow record batches:

	result, err := conn.Query(ctx, "SELECT ts, v FROM stocks", nil)
	if err != nil {
		return err
	}
	defer result.Close()
	values, err := result.ToValues()

With TransportSharedSegment the server exports the result as a shared memory
segment instead of sending the bytes inline; the SDK attaches the segment,
decodes it and detaches again. Segment-backed results are freed on the server
right after decoding unless QueryParams.KeepResult is set, in which case the
caller must free them with ReleaseResult. Releasing the same result twice
fails with an AlreadyReleased error.
*/
package emberdb
