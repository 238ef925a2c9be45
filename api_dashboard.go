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
	"strconv"

	json "github.com/goccy/go-json"
)

// dashboardAPI defines interfaces under /v1/dashboards and /v1/render.
type dashboardAPI interface {
	getDashboards(ctx context.Context) ([]*Dashboard, error)
	getDashboard(ctx context.Context, id int64) (*Dashboard, error)
	createDashboard(ctx context.Context, d *Dashboard) (int64, error)
	renderChart(ctx context.Context, req *renderRequest) ([]byte, error)
}

var _ dashboardAPI = (*Connection)(nil)

// Dashboard is the stored metadata of one dashboard. State is a base64
// encoded JSON blob the server treats as opaque.
type Dashboard struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	State     string `json:"state"`
	ImageHash string `json:"image_hash,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
	Owner     string `json:"owner,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GetDashboards lists all dashboards visible to the session.
func (conn *Connection) GetDashboards(ctx context.Context) ([]*Dashboard, error) {
	return conn.getDashboards(ctx)
}

// GetDashboard returns one dashboard by id.
func (conn *Connection) GetDashboard(ctx context.Context, id int64) (*Dashboard, error) {
	return conn.getDashboard(ctx, id)
}

// CreateDashboard creates a new dashboard and returns its id.
func (conn *Connection) CreateDashboard(ctx context.Context, d *Dashboard) (int64, error) {
	return conn.createDashboard(ctx, d)
}

// DuplicateDashboard copies an existing dashboard, optionally renaming it and
// remapping the table names referenced by its state, and returns the new
// dashboard's id.
func (conn *Connection) DuplicateDashboard(ctx context.Context, id int64, newName string, remap map[string]string) (int64, error) {
	d, err := conn.getDashboard(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(remap) > 0 {
		remapped, err := ChangeDashboardSources(d, remap)
		if err != nil {
			return 0, err
		}
		d = remapped
	}
	if newName != "" {
		d.Name = newName
	} else {
		d.Name = d.Name + " (Copy)"
	}
	d.ID = 0
	return conn.createDashboard(ctx, d)
}

// ChangeDashboardSources rewrites the table names referenced by a dashboard's
// state blob, returning a new dashboard with the remapped state. Keys of
// remap are old table names, values the replacements. The input dashboard is
// not modified.
func ChangeDashboardSources(d *Dashboard, remap map[string]string) (*Dashboard, error) {
	raw, err := base64.StdEncoding.DecodeString(d.State)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "decode dashboard state")
	}
	var state any
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, wrapError(KindTransportFailure, err, "parse dashboard state")
	}

	remapTables(state, remap)

	out, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	copied := *d
	copied.State = base64.StdEncoding.EncodeToString(out)
	return &copied, nil
}

// remapTables walks the state tree and rewrites string values under table
// reference keys.
func remapTables(node any, remap map[string]string) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if s, ok := v.(string); ok && (k == "table" || k == "dataSource") {
				if replacement, hit := remap[s]; hit {
					n[k] = replacement
					continue
				}
			}
			remapTables(v, remap)
		}
	case []any:
		for _, v := range n {
			remapTables(v, remap)
		}
	}
}

type createDashboardResponse struct {
	ID int64 `json:"id"`
}

type renderRequest struct {
	// Spec is the chart specification to render, as JSON.
	Spec json.RawMessage `json:"spec"`
	// CompressionLevel is the PNG compression level, 0 (fast) to 9 (small).
	CompressionLevel int `json:"compression_level"`
}

type renderResponse struct {
	// Image is the base64 encoded PNG.
	Image string `json:"image"`
}

// RenderChart renders a chart specification on the server and returns the
// image as PNG bytes.
func (conn *Connection) RenderChart(ctx context.Context, spec []byte, compressionLevel int) ([]byte, error) {
	return conn.renderChart(ctx, &renderRequest{
		Spec:             json.RawMessage(spec),
		CompressionLevel: compressionLevel,
	})
}

func (conn *Connection) getDashboards(ctx context.Context) ([]*Dashboard, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/dashboards")
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Get(ctx, req)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "get dashboards")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData []*Dashboard
	err = json.Unmarshal(data, &respData)
	return respData, err
}

func (conn *Connection) getDashboard(ctx context.Context, id int64) (*Dashboard, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/dashboards/" + strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Get(ctx, req)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "get dashboard")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData Dashboard
	err = json.Unmarshal(data, &respData)
	return &respData, err
}

func (conn *Connection) createDashboard(ctx context.Context, d *Dashboard) (int64, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/dashboards")
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(d)
	if err != nil {
		return 0, err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return 0, wrapError(KindTransportFailure, err, "create dashboard")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var respData createDashboardResponse
	err = json.Unmarshal(data, &respData)
	return respData.ID, err
}

func (conn *Connection) renderChart(ctx context.Context, request *renderRequest) ([]byte, error) {
	req, err := url.Parse(conn.config.Endpoint + "/v1/render")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	resp, err := conn.http.Post(ctx, req, body)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "render chart")
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData renderResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(respData.Image)
}
