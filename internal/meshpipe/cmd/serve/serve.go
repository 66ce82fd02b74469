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

package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/internal/meshpipe"
	"github.com/meshpipe/meshpipe/internal/meshpipe/config"
	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/transport"
)

// NewServeCmd creates a new serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the meshpipe node",
		Long: `Start the meshpipe node with:
- TCP transport feeding hot-swappable handler pipelines
- Admin HTTP surface for pipeline inspection and metrics
- Optional Consul registration for discovery`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitLogger()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	return cmd
}

func runServer() error {
	logger.Logger.Info("Starting meshpipe node...")

	srv, err := meshpipe.NewServer(config.GetConfig())
	if err != nil {
		logger.Logger.Error("Failed to create server", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Logger.Info("Shutdown signal received, stopping server...")
		cancel()

		if err := srv.Stop(10 * time.Second); err != nil {
			reportStopFailure(err)
			return err
		}

		logger.Logger.Info("Server shutdown complete")
	case err := <-serverErr:
		logger.Logger.Error("Server error", zap.Error(err))
		return err
	}

	return nil
}

// reportStopFailure logs shutdown errors, one line per failed transport when
// the error carries per-transport detail.
func reportStopFailure(err error) {
	if transport.IsStopError(err) {
		for _, stopErr := range transport.ExtractStopErrors(err) {
			logger.Logger.Error("Transport failed to stop",
				zap.String("transport", stopErr.TransportName),
				zap.Error(stopErr.Err))
		}
	}
	logger.Logger.Error("Error during server shutdown", zap.Error(err))
}
