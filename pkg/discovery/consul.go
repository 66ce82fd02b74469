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

// Package discovery registers pipeline nodes with Consul and resolves peer
// addresses for handlers that route between nodes.
package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/consul/api"
)

// ServiceDiscovery handles node registration and lookup using Consul.
type ServiceDiscovery struct {
	client          *api.Client
	mu              sync.Mutex
	roundRobinIndex int
}

// NewServiceDiscovery creates a discovery client. An empty address keeps the
// Consul client's default.
func NewServiceDiscovery(address string) (*ServiceDiscovery, error) {
	config := api.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ServiceDiscovery{client: client}, nil
}

// RegisterNode announces a pipeline node under the given service name. The
// health check probes the node's admin endpoint, so nodes whose admin plane
// dies fall out of discovery.
func (sd *ServiceDiscovery) RegisterNode(service, address string, port int, adminAddr string) error {
	registration := &api.AgentServiceRegistration{
		ID:      nodeID(service, address, port),
		Name:    service,
		Address: address,
		Port:    port,
	}
	if adminAddr != "" {
		registration.Check = &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s/health", adminAddr),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}
	return sd.client.Agent().ServiceRegister(registration)
}

// DeregisterNode removes a pipeline node from the registry.
func (sd *ServiceDiscovery) DeregisterNode(service, address string, port int) error {
	return sd.client.Agent().ServiceDeregister(nodeID(service, address, port))
}

// DiscoverInstances returns "host:port" addresses of the healthy instances of
// a service. It satisfies the pipeline's Discovery interface.
func (sd *ServiceDiscovery) DiscoverInstances(ctx context.Context, service string) ([]string, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	services, _, err := sd.client.Health().Service(service, "", true, opts)
	if err != nil {
		return nil, err
	}

	instances := make([]string, 0, len(services))
	for _, entry := range services {
		instances = append(instances, fmt.Sprintf("%s:%d", entry.Service.Address, entry.Service.Port))
	}
	return instances, nil
}

// PickInstance returns one healthy instance address, rotating through the
// instances across calls.
func (sd *ServiceDiscovery) PickInstance(ctx context.Context, service string) (string, error) {
	instances, err := sd.DiscoverInstances(ctx, service)
	if err != nil {
		return "", err
	}
	if len(instances) == 0 {
		return "", fmt.Errorf("no healthy instances found: %s", service)
	}

	sd.mu.Lock()
	idx := sd.roundRobinIndex % len(instances)
	sd.roundRobinIndex++
	sd.mu.Unlock()

	return instances[idx], nil
}

func nodeID(service, address string, port int) string {
	return fmt.Sprintf("%s-%s-%d", service, address, port)
}
