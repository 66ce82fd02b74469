// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/metrics"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

func init() {
	logger.InitDevelopmentLogger()
}

type fakeInspector struct {
	statuses []pipeline.Status
}

func (f *fakeInspector) Pipelines() []pipeline.Status {
	return f.statuses
}

func newTestServer(collector *metrics.PrometheusCollector) *Server {
	return NewServer(&Config{Address: "127.0.0.1:0", Collector: collector})
}

func performRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(nil)

	w := performRequest(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegistryEndpoint(t *testing.T) {
	s := newTestServer(nil)
	s.AddInspector(&fakeInspector{statuses: []pipeline.Status{
		{
			ChannelID: "chan-1",
			State:     "active",
			Epoch:     3,
			Handlers: []pipeline.Registration{
				{
					Handle:     pipeline.Handle(2),
					Label:      "decoder",
					Descriptor: pipeline.NewDescriptor("app.decoder", "codec", "decodes frames"),
					Direction:  pipeline.DirectionInbound,
				},
			},
		},
	}})

	w := performRequest(s, http.MethodGet, "/pipeline/registry")
	require.Equal(t, http.StatusOK, w.Code)

	var statuses []pipeline.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "chan-1", statuses[0].ChannelID)
	assert.Equal(t, uint64(3), statuses[0].Epoch)
	require.Len(t, statuses[0].Handlers, 1)
	assert.Equal(t, "decoder", statuses[0].Handlers[0].Label)

	// direction is rendered as its name
	assert.Contains(t, w.Body.String(), `"direction":"inbound"`)
}

func TestRegistryEndpointEmpty(t *testing.T) {
	s := newTestServer(nil)

	w := performRequest(s, http.MethodGet, "/pipeline/registry")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestEpochEndpointAggregatesInspectors(t *testing.T) {
	s := newTestServer(nil)
	s.AddInspector(&fakeInspector{statuses: []pipeline.Status{{ChannelID: "a", Epoch: 1}}})
	s.AddInspector(&fakeInspector{statuses: []pipeline.Status{{ChannelID: "b", Epoch: 7}}})

	w := performRequest(s, http.MethodGet, "/pipeline/epoch")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":1,"b":7}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewPrometheusCollector(nil)
	collector.IncrementCounter("admin_test_total", nil)
	s := newTestServer(collector)

	w := performRequest(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "meshpipe_admin_test_total")
}

func TestMetricsEndpointAbsentWithoutCollector(t *testing.T) {
	s := newTestServer(nil)

	w := performRequest(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerStartStop(t *testing.T) {
	s := newTestServer(nil)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "admin", s.GetName())
	assert.NotEqual(t, "127.0.0.1:0", s.GetAddress())

	resp, err := http.Get("http://" + s.GetAddress() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
