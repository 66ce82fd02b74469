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

package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceDiscovery(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{name: "valid address", address: "127.0.0.1:8500"},
		{name: "localhost address", address: "localhost:8500"},
		{name: "empty address uses client default", address: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, err := NewServiceDiscovery(tt.address)
			assert.NoError(t, err)
			require.NotNil(t, sd)
			assert.NotNil(t, sd.client)
			assert.Equal(t, 0, sd.roundRobinIndex)
		})
	}
}

// fakeConsul serves just enough of the Consul HTTP API for the client calls
// under test.
func fakeConsul(t *testing.T, healthJSON string) *ServiceDiscovery {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/v1/agent/service/register"):
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/v1/agent/service/deregister"):
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/v1/health/service/"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(healthJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	sd, err := NewServiceDiscovery(strings.TrimPrefix(server.URL, "http://"))
	require.NoError(t, err)
	return sd
}

const twoInstancesJSON = `[
	{"Service": {"Service": "meshpipe", "Address": "10.0.0.1", "Port": 7000}},
	{"Service": {"Service": "meshpipe", "Address": "10.0.0.2", "Port": 7000}}
]`

func TestRegisterAndDeregisterNode(t *testing.T) {
	sd := fakeConsul(t, "[]")

	require.NoError(t, sd.RegisterNode("meshpipe", "10.0.0.1", 7000, "10.0.0.1:8081"))
	require.NoError(t, sd.RegisterNode("meshpipe", "10.0.0.1", 7001, ""))
	require.NoError(t, sd.DeregisterNode("meshpipe", "10.0.0.1", 7000))
}

func TestDiscoverInstances(t *testing.T) {
	sd := fakeConsul(t, twoInstancesJSON)

	instances, err := sd.DiscoverInstances(context.Background(), "meshpipe")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7000"}, instances)
}

func TestDiscoverInstancesEmpty(t *testing.T) {
	sd := fakeConsul(t, "[]")

	instances, err := sd.DiscoverInstances(context.Background(), "meshpipe")
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestPickInstanceRoundRobin(t *testing.T) {
	sd := fakeConsul(t, twoInstancesJSON)

	first, err := sd.PickInstance(context.Background(), "meshpipe")
	require.NoError(t, err)
	second, err := sd.PickInstance(context.Background(), "meshpipe")
	require.NoError(t, err)
	third, err := sd.PickInstance(context.Background(), "meshpipe")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, first, third)
}

func TestPickInstanceNoneHealthy(t *testing.T) {
	sd := fakeConsul(t, "[]")

	_, err := sd.PickInstance(context.Background(), "meshpipe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no healthy instances")
}

func TestNodeID(t *testing.T) {
	assert.Equal(t, "meshpipe-10.0.0.1-7000", nodeID("meshpipe", "10.0.0.1", 7000))
}
