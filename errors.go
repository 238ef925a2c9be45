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
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// ErrorKind classifies errors returned by the SDK.
type ErrorKind string

const (
	// KindTypeMismatch indicates an input value cannot be coerced to the
	// column's declared type.
	KindTypeMismatch ErrorKind = "type_mismatch"
	// KindSchemaMismatch indicates the input column count differs from the
	// target table's schema.
	KindSchemaMismatch ErrorKind = "schema_mismatch"
	// KindInvalidMethod indicates an unknown load method literal.
	KindInvalidMethod ErrorKind = "invalid_method"
	// KindTableExists indicates the server rejected a table creation because
	// the table already exists.
	KindTableExists ErrorKind = "table_exists"
	// KindUnsupportedTransport indicates an unknown or unavailable result
	// transport mode.
	KindUnsupportedTransport ErrorKind = "unsupported_transport"
	// KindNoDescriptor indicates a release was attempted on a table that was
	// not produced by a query.
	KindNoDescriptor ErrorKind = "no_descriptor"
	// KindAlreadyReleased indicates a second release of the same result.
	KindAlreadyReleased ErrorKind = "already_released"
	// KindTransportFailure indicates an RPC-layer or server-reported failure,
	// surfaced verbatim.
	KindTransportFailure ErrorKind = "transport_failure"
)

// Error is a structured SDK error carrying its classification and, when the
// server produced it, the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the ErrorKind of err, or an empty kind if err was not
// produced by this SDK.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// serverError is the error body the EmberDB server responds with.
type serverError struct {
	Message string `json:"message"`
}

func (e *serverError) Error() string {
	return e.Message
}

func checkStatusCodeOK(resp *http.Response) error {
	return checkStatusCode(resp, 200)
}

func checkStatusCode(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	msg := string(data)
	if err != nil {
		return newError(KindTransportFailure, "%d: %s", resp.StatusCode, msg)
	}
	var errResp serverError
	if err := json.Unmarshal(data, &errResp); err != nil || errResp.Message == "" {
		return newError(KindTransportFailure, "%d: %s", resp.StatusCode, msg)
	}
	if resp.StatusCode == http.StatusConflict {
		return wrapError(KindTableExists, &errResp, "server rejected creation")
	}
	return wrapError(KindTransportFailure, &errResp, "server error")
}

// sneakyBodyClose closes the body and ignores the error.
// This is useful to close the HTTP response body when we don't care about the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
