// Copyright © 2023 jackelyj <dreamerlyj@gmail.com>
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

package discovery

import (
	"sync"
)

// Manager caches one ServiceDiscovery client per Consul address so every
// component talking to the same agent shares a client.
type Manager struct {
	instances map[string]*ServiceDiscovery
	mu        sync.RWMutex
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{
			instances: make(map[string]*ServiceDiscovery),
		}
	})
	return manager
}

// GetServiceDiscovery returns the client for the given Consul address,
// creating it on first use.
func (m *Manager) GetServiceDiscovery(address string) (*ServiceDiscovery, error) {
	m.mu.RLock()
	if sd, exists := m.instances[address]; exists {
		m.mu.RUnlock()
		return sd, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if sd, exists := m.instances[address]; exists {
		return sd, nil
	}

	sd, err := NewServiceDiscovery(address)
	if err != nil {
		return nil, err
	}

	m.instances[address] = sd
	return sd, nil
}

// Close drops all cached clients.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for address := range m.instances {
		delete(m.instances, address)
	}
}
