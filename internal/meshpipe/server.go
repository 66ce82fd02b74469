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

// Package meshpipe assembles the node: TCP transport, admin surface,
// pipeline middleware and optional Consul registration, driven by the
// node configuration.
package meshpipe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/internal/meshpipe/config"
	"github.com/meshpipe/meshpipe/pkg/admin"
	"github.com/meshpipe/meshpipe/pkg/discovery"
	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/metrics"
	"github.com/meshpipe/meshpipe/pkg/middleware"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
	"github.com/meshpipe/meshpipe/pkg/transport"
)

// Server wires the transports and supporting services of one node and
// manages their lifecycle as a unit.
type Server struct {
	config      *config.NodeConfig
	collector   *metrics.PrometheusCollector
	executor    *pipeline.PoolExecutor
	services    *pipeline.Services
	tcp         *transport.TCPTransport
	admin       *admin.Server
	coordinator *transport.Coordinator
	sd          *discovery.ServiceDiscovery
}

// NewServer builds a fully wired node from the given configuration.
func NewServer(cfg *config.NodeConfig) (*Server, error) {
	s := &Server{
		config:    cfg,
		collector: metrics.NewPrometheusCollector(nil),
		executor:  pipeline.NewPoolExecutor(cfg.Executor.Workers, cfg.Executor.QueueSize),
	}

	var disc pipeline.Discovery
	if cfg.ServiceDiscovery.Address != "" {
		sd, err := discovery.GetManager().GetServiceDiscovery(cfg.ServiceDiscovery.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to service discovery: %w", err)
		}
		s.sd = sd
		disc = sd
	}

	s.services = pipeline.NewServices(pipeline.Services{
		Executor:  s.executor,
		Metrics:   s.collector,
		Logger:    logger.GetLogger(),
		Tracer:    otel.Tracer("github.com/meshpipe/meshpipe"),
		Discovery: disc,
	})

	s.tcp = transport.NewTCPTransport(&transport.TCPTransportConfig{
		Address:   cfg.Server.Address,
		Services:  s.services,
		Configure: s.configurePipeline,
	})

	s.admin = admin.NewServer(&admin.Config{
		Address:   cfg.Admin.Address,
		Collector: s.collector,
	})
	s.admin.AddInspector(s.tcp)

	s.coordinator = transport.NewCoordinator()
	s.coordinator.Register(s.tcp)
	s.coordinator.Register(s.admin)

	return s, nil
}

// configurePipeline installs the standard middleware chain and the echo
// terminal handler on every accepted connection.
func (s *Server) configurePipeline(ctrl *pipeline.Controller) error {
	if err := ctrl.InstallMiddleware(middleware.NewLogging()); err != nil {
		return err
	}
	if err := ctrl.InstallMiddleware(middleware.NewMetrics()); err != nil {
		return err
	}
	if s.config.RateLimit.Enabled {
		rl := middleware.NewRateLimit(middleware.RateLimitConfig{
			Capacity:   s.config.RateLimit.Capacity,
			RefillRate: s.config.RateLimit.RefillRate,
		})
		if err := ctrl.InstallMiddleware(rl); err != nil {
			return err
		}
	}
	ctrl.RegisterInboundHandler("echo", &echoHandler{})
	return nil
}

// Start brings up all transports and, when configured, registers the
// node with Consul.
func (s *Server) Start(ctx context.Context) error {
	if err := s.coordinator.Start(ctx); err != nil {
		return err
	}
	if s.sd != nil {
		host, port, err := splitAddress(s.tcp.GetAddress())
		if err != nil {
			return err
		}
		adminAddr := s.admin.GetAddress()
		if err := s.sd.RegisterNode(s.config.Server.Name, host, port, adminAddr); err != nil {
			return fmt.Errorf("failed to register with service discovery: %w", err)
		}
		logger.Logger.Info("Registered with service discovery",
			zap.String("service", s.config.Server.Name),
			zap.String("address", host),
			zap.Int("port", port))
	}
	logger.Logger.Info("Server started",
		zap.String("address", s.tcp.GetAddress()),
		zap.String("admin", s.admin.GetAddress()))
	return nil
}

// Stop deregisters from discovery, drains the transports and shuts down
// the shared executor.
func (s *Server) Stop(timeout time.Duration) error {
	if s.sd != nil {
		host, port, err := splitAddress(s.tcp.GetAddress())
		if err == nil {
			if derr := s.sd.DeregisterNode(s.config.Server.Name, host, port); derr != nil {
				logger.Logger.Error("Failed to deregister from service discovery", zap.Error(derr))
			}
		}
	}
	err := s.coordinator.Stop(timeout)
	s.executor.Shutdown()
	return err
}

// Address returns the bound address of the TCP transport.
func (s *Server) Address() string {
	return s.tcp.GetAddress()
}

// AdminAddress returns the bound address of the admin HTTP server.
func (s *Server) AdminAddress() string {
	return s.admin.GetAddress()
}

func splitAddress(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}
	if host == "" || host == "::" {
		host = "127.0.0.1"
	}
	return host, port, nil
}
