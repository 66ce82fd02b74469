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

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// TCPTransportConfig holds the knobs for a TCP listener.
type TCPTransportConfig struct {
	// Address is the listen address, e.g. ":7000".
	Address string
	// Services is the collaborator bundle shared by every connection's
	// controller.
	Services *pipeline.Services
	// Configure installs handlers on each new connection's pipeline.
	Configure Configurator
	// ReadBufferSize caps one read from the socket. Defaults to 32 KiB.
	ReadBufferSize int
}

// TCPTransport accepts TCP connections and runs one pipeline per connection.
type TCPTransport struct {
	config   *TCPTransportConfig
	listener net.Listener
	mu       sync.Mutex
	conns    map[string]*tcpConn
	wg       sync.WaitGroup
	stopping chan struct{}
}

type tcpConn struct {
	channel *connChannel
	ctrl    *pipeline.Controller
}

// NewTCPTransport creates a TCP transport from the config.
func NewTCPTransport(config *TCPTransportConfig) *TCPTransport {
	if config.Services == nil {
		config.Services = pipeline.NewServices(pipeline.Services{})
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = 32 * 1024
	}
	return &TCPTransport{
		config:   config,
		conns:    make(map[string]*tcpConn),
		stopping: make(chan struct{}),
	}
}

// GetName returns the transport name
func (t *TCPTransport) GetName() string { return "tcp" }

// GetAddress returns the actual listening address once started.
func (t *TCPTransport) GetAddress() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.config.Address
}

// Start binds the listener and begins accepting connections.
func (t *TCPTransport) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", t.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.config.Address, err)
	}

	t.mu.Lock()
	t.listener = listener
	t.mu.Unlock()

	logger.Logger.Info("TCP transport listening",
		zap.String("address", listener.Addr().String()))

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

// Stop closes the listener and every live connection, then waits for the
// per-connection goroutines to drain.
func (t *TCPTransport) Stop(ctx context.Context) error {
	select {
	case <-t.stopping:
		return nil
	default:
		close(t.stopping)
	}

	t.mu.Lock()
	if t.listener != nil {
		_ = t.listener.Close()
	}
	channels := make([]*connChannel, 0, len(t.conns))
	for _, c := range t.conns {
		channels = append(channels, c.channel)
	}
	t.mu.Unlock()

	for _, ch := range channels {
		_ = ch.Close()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Logger.Info("TCP transport stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("tcp transport shutdown timed out: %w", ctx.Err())
	}
}

func (t *TCPTransport) acceptLoop() {
	defer t.wg.Done()
	var delay time.Duration
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.stopping:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient accept failures (ECONNABORTED, EMFILE) must not
			// kill the listener. Back off and retry.
			delay = nextAcceptDelay(delay)
			logger.Logger.Warn("Accept failed, retrying",
				zap.Duration("backoff", delay),
				zap.Error(err))
			time.Sleep(delay)
			continue
		}

		delay = 0
		t.wg.Add(1)
		go t.serveConn(conn)
	}
}

// nextAcceptDelay doubles the accept retry backoff, starting at 5ms and
// capping at one second.
func nextAcceptDelay(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	current *= 2
	if current > time.Second {
		current = time.Second
	}
	return current
}

func (t *TCPTransport) serveConn(conn net.Conn) {
	defer t.wg.Done()

	channel := newConnChannel(conn)
	ctrl := pipeline.NewController(channel, t.config.Services, context.Background())

	t.mu.Lock()
	t.conns[channel.ID()] = &tcpConn{channel: channel, ctrl: ctrl}
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.conns, channel.ID())
		t.mu.Unlock()
	}()

	if t.config.Configure != nil {
		if err := t.config.Configure(ctrl); err != nil {
			logger.Logger.Error("Pipeline configuration failed, dropping connection",
				zap.String("channel", channel.ID()),
				zap.Error(err))
			_ = channel.Close()
			return
		}
	}

	logger.Logger.Info("Connection accepted",
		zap.String("channel", channel.ID()),
		zap.String("remote", conn.RemoteAddr().String()))

	ctrl.EmitChannelActivated()
	readPump(channel, ctrl, t.config.Services.BufferPool, t.config.ReadBufferSize)
	ctrl.EmitChannelDeactivated()
	_ = channel.Close()

	logger.Logger.Info("Connection closed",
		zap.String("channel", channel.ID()))
}

// readPump feeds socket reads into the pipeline until the connection ends.
func readPump(channel *connChannel, ctrl *pipeline.Controller, pool buffer.Pool, readSize int) {
	for {
		buf := pool.Get(readSize)
		buf = buf[:readSize]
		n, err := channel.conn.Read(buf)
		if n > 0 {
			// The message copies out of the pooled buffer so the pool can
			// take it back immediately.
			payload := make([]byte, n)
			copy(payload, buf[:n])
			ctrl.EmitRead(buffer.NewMessage(payload))
			ctrl.EmitReadComplete()
		}
		pool.Put(buf)

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				ctrl.EmitException(err)
			}
			return
		}
	}
}

// ConnectionCount reports the number of live connections.
func (t *TCPTransport) ConnectionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// Pipelines reports the status of every live connection's pipeline.
func (t *TCPTransport) Pipelines() []pipeline.Status {
	t.mu.Lock()
	conns := make([]*tcpConn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	statuses := make([]pipeline.Status, 0, len(conns))
	for _, c := range conns {
		statuses = append(statuses, c.ctrl.Status())
	}
	return statuses
}

// Dial connects to a remote pipeline node and returns a channel plus its
// controller, configured the same way accepted connections are.
func Dial(ctx context.Context, address string, services *pipeline.Services, configure Configurator) (pipeline.Channel, *pipeline.Controller, error) {
	if services == nil {
		services = pipeline.NewServices(pipeline.Services{})
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}

	channel := newConnChannel(conn)
	ctrl := pipeline.NewController(channel, services, ctx)
	if configure != nil {
		if err := configure(ctrl); err != nil {
			_ = channel.Close()
			return nil, nil, err
		}
	}
	ctrl.EmitChannelActivated()
	go func() {
		readPump(channel, ctrl, services.BufferPool, 32*1024)
		ctrl.EmitChannelDeactivated()
		_ = channel.Close()
	}()
	return channel, ctrl, nil
}
