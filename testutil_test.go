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
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/lucasepe/codename"
	"github.com/stretchr/testify/require"
)

// fakeServer is an in-memory stand-in for an EmberDB server. It records every
// load request so tests can assert on the exact wire traffic.
type fakeServer struct {
	t *testing.T

	mu        sync.Mutex
	tables    map[string]Schema
	rowCounts map[string]int

	columnarLoads []columnarLoadRequest
	arrowLoads    []arrowLoadRequest
	rowLoads      []rowWiseLoadRequest

	queryResp     *queryResponse
	releases      []deallocateRequest
	releaseStatus int

	dashboards  map[int64]*Dashboard
	nextDashID  int64
	renderImage []byte

	srv *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{
		t:             t,
		tables:        make(map[string]Schema),
		rowCounts:     make(map[string]int),
		releaseStatus: http.StatusOK,
		dashboards:    make(map[int64]*Dashboard),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tables", f.handleGetTables)
	mux.HandleFunc("POST /v1/tables", f.handleCreateTable)
	mux.HandleFunc("GET /v1/tables/{table}/schema", f.handleGetSchema)
	mux.HandleFunc("POST /v1/tables/{table}/load/{strategy}", f.handleLoad)
	mux.HandleFunc("POST /v1/queries", f.handleQuery)
	mux.HandleFunc("POST /v1/results/{id}/release", f.handleRelease)
	mux.HandleFunc("GET /v1/dashboards", f.handleGetDashboards)
	mux.HandleFunc("GET /v1/dashboards/{id}", f.handleGetDashboard)
	mux.HandleFunc("POST /v1/dashboards", f.handleCreateDashboard)
	mux.HandleFunc("POST /v1/render", f.handleRender)

	f.srv = httptest.NewServer(mux)
	return f
}

func (f *fakeServer) Close() {
	http.DefaultClient.CloseIdleConnections()
	f.srv.CloseClientConnections()
	f.srv.Close()
}

func (f *fakeServer) Open(config *Config) *Connection {
	if config == nil {
		config = &Config{}
	}
	config.Endpoint = f.srv.URL
	return Open(config)
}

func (f *fakeServer) setTable(name string, schema Schema) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = schema
}

func (f *fakeServer) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	require.NoError(f.t, err)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (f *fakeServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(&serverError{Message: message})
	_, _ = w.Write(data)
}

func (f *fakeServer) handleGetTables(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	f.writeJSON(w, &getTablesResponse{Tables: names})
}

func (f *fakeServer) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	f.readJSON(r, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tables[req.Name]; ok {
		f.writeError(w, http.StatusConflict, "table "+req.Name+" already exists")
		return
	}
	f.tables[req.Name] = Schema(req.Columns)
	f.writeJSON(w, struct{}{})
}

func (f *fakeServer) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schema, ok := f.tables[r.PathValue("table")]
	if !ok {
		f.writeError(w, http.StatusNotFound, "no such table")
		return
	}
	f.writeJSON(w, &getTableSchemaResponse{Columns: schema})
}

func (f *fakeServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.PathValue("strategy") {
	case "columnar":
		var req columnarLoadRequest
		f.readJSON(r, &req)
		f.columnarLoads = append(f.columnarLoads, req)
		if len(req.Columns) > 0 {
			f.rowCounts[table] += req.Columns[0].NumRows
		}
	case "arrow":
		var req arrowLoadRequest
		f.readJSON(r, &req)
		f.arrowLoads = append(f.arrowLoads, req)
		records, err := decodeRecordBatches([]byte(req.Rows))
		require.NoError(f.t, err)
		for _, rec := range records {
			f.rowCounts[table] += int(rec.NumRows())
			rec.Release()
		}
	case "rows":
		var req rowWiseLoadRequest
		f.readJSON(r, &req)
		f.rowLoads = append(f.rowLoads, req)
		f.rowCounts[table] += len(req.Rows)
	default:
		f.writeError(w, http.StatusBadRequest, "unknown strategy")
		return
	}
	f.writeJSON(w, struct{}{})
}

func (f *fakeServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	f.readJSON(r, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryResp == nil {
		f.writeError(w, http.StatusBadRequest, "no query response configured")
		return
	}
	resp := *f.queryResp
	resp.Device = req.Device
	resp.DeviceID = req.DeviceID
	resp.Transport = req.Transport
	f.writeJSON(w, &resp)
}

func (f *fakeServer) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req deallocateRequest
	f.readJSON(r, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseStatus != http.StatusOK {
		f.writeError(w, f.releaseStatus, "release failed")
		return
	}
	f.releases = append(f.releases, req)
	f.writeJSON(w, struct{}{})
}

func (f *fakeServer) handleGetDashboards(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Dashboard, 0, len(f.dashboards))
	for _, d := range f.dashboards {
		out = append(out, d)
	}
	f.writeJSON(w, out)
}

func (f *fakeServer) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	require.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dashboards[id]
	if !ok {
		f.writeError(w, http.StatusNotFound, "no such dashboard")
		return
	}
	f.writeJSON(w, d)
}

func (f *fakeServer) handleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var d Dashboard
	f.readJSON(r, &d)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextDashID++
	d.ID = f.nextDashID
	f.dashboards[d.ID] = &d
	f.writeJSON(w, &createDashboardResponse{ID: d.ID})
}

func (f *fakeServer) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	f.readJSON(r, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeJSON(w, &renderResponse{
		Image: base64.StdEncoding.EncodeToString(f.renderImage),
	})
}

func (f *fakeServer) readJSON(r *http.Request, v any) {
	data, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)
	require.NoError(f.t, json.Unmarshal(data, v))
}

// inlinePayload base64 encodes a raw IPC stream the way the server carries it
// in a query response.
func inlinePayload(t *testing.T, raw []byte) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(raw)
}

// randomTableName generates a readable random table name.
func randomTableName(t *testing.T) string {
	t.Helper()
	rng, err := codename.DefaultRNG()
	require.NoError(t, err)
	return strings.ReplaceAll(codename.Generate(rng, 10), "-", "_")
}

// fakeAttacher hands out in-memory segments and counts attach/detach pairs.
type fakeAttacher struct {
	mu        sync.Mutex
	segments  map[int64][]byte
	attached  int
	detached  int
	detachErr error
}

func newFakeAttacher() *fakeAttacher {
	return &fakeAttacher{segments: make(map[int64][]byte)}
}

func (a *fakeAttacher) put(key int64, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments[key] = data
}

func (a *fakeAttacher) Attach(key int64, size int64) (Segment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.segments[key]
	if !ok {
		return nil, newError(KindTransportFailure, "no segment with key %d", key)
	}
	if size < int64(len(data)) {
		data = data[:size]
	}
	a.attached++
	return &fakeSegment{attacher: a, data: data}, nil
}

func (a *fakeAttacher) balanced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attached == a.detached
}

type fakeSegment struct {
	attacher *fakeAttacher
	data     []byte
}

func (s *fakeSegment) Bytes() []byte {
	return s.data
}

func (s *fakeSegment) Detach() error {
	s.attacher.mu.Lock()
	defer s.attacher.mu.Unlock()
	s.attacher.detached++
	return s.attacher.detachErr
}
