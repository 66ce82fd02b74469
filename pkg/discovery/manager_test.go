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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetManagerIsSingleton(t *testing.T) {
	assert.Same(t, GetManager(), GetManager())
}

func TestManagerCachesClientPerAddress(t *testing.T) {
	m := GetManager()
	defer m.Close()

	first, err := m.GetServiceDiscovery("127.0.0.1:8500")
	require.NoError(t, err)
	second, err := m.GetServiceDiscovery("127.0.0.1:8500")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := m.GetServiceDiscovery("127.0.0.1:8501")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestManagerConcurrentAccessYieldsOneClient(t *testing.T) {
	m := GetManager()
	defer m.Close()

	const goroutines = 16
	clients := make([]*ServiceDiscovery, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(slot int) {
			defer wg.Done()
			sd, err := m.GetServiceDiscovery("127.0.0.1:8500")
			assert.NoError(t, err)
			clients[slot] = sd
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, clients[0], clients[i])
	}
}

func TestManagerCloseDropsCachedClients(t *testing.T) {
	m := GetManager()

	first, err := m.GetServiceDiscovery("127.0.0.1:8500")
	require.NoError(t, err)

	m.Close()

	second, err := m.GetServiceDiscovery("127.0.0.1:8500")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
