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

// Package admin serves the HTTP admin plane: health, live pipeline
// introspection, and Prometheus metrics.
package admin

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/metrics"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// Inspector exposes the live pipelines of one traffic source.
type Inspector interface {
	// Pipelines returns a status snapshot per live channel.
	Pipelines() []pipeline.Status
}

// Config holds the admin server settings.
type Config struct {
	// Address is the listen address, e.g. ":8081".
	Address string
	// Collector, when set, is served at /metrics.
	Collector *metrics.PrometheusCollector
}

// Server is the admin HTTP server.
type Server struct {
	config     *Config
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	mu         sync.RWMutex
	inspectors []Inspector
}

// NewServer builds the server and its routes.
func NewServer(config *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config: config,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

// AddInspector registers a traffic source for the introspection endpoints.
func (s *Server) AddInspector(inspector Inspector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspectors = append(s.inspectors, inspector)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/pipeline/registry", s.handleRegistry)
	s.router.GET("/pipeline/epoch", s.handleEpoch)
	if s.config.Collector != nil {
		s.router.GET("/metrics", gin.WrapH(s.config.Collector.Handler()))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegistry(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) handleEpoch(c *gin.Context) {
	epochs := make(map[string]uint64)
	for _, status := range s.snapshot() {
		epochs[status.ChannelID] = status.Epoch
	}
	c.JSON(http.StatusOK, epochs)
}

func (s *Server) snapshot() []pipeline.Status {
	s.mu.RLock()
	inspectors := make([]Inspector, len(s.inspectors))
	copy(inspectors, s.inspectors)
	s.mu.RUnlock()

	statuses := make([]pipeline.Status, 0)
	for _, inspector := range inspectors {
		statuses = append(statuses, inspector.Pipelines()...)
	}
	return statuses
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.router}

	logger.Logger.Info("Admin server listening",
		zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("Admin server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logger.Logger.Info("Stopping admin server")
	return s.httpServer.Shutdown(ctx)
}

// GetName returns the transport name used by the coordinator.
func (s *Server) GetName() string { return "admin" }

// GetAddress returns the actual listen address once started.
func (s *Server) GetAddress() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
