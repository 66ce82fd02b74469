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
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// connChannel adapts a net.Conn to the pipeline's channel contract. Writes go
// through a bufio writer; a write that leaves the buffer above the flush
// watermark is flushed eagerly and reported as flushed.
type connChannel struct {
	id     string
	conn   net.Conn
	writer *bufio.Writer

	mu     sync.Mutex
	state  pipeline.ChannelState
	closed chan struct{}
}

const flushWatermark = 32 * 1024

func newConnChannel(conn net.Conn) *connChannel {
	return &connChannel{
		id:     uuid.NewString(),
		conn:   conn,
		writer: bufio.NewWriterSize(conn, 64*1024),
		state:  pipeline.ChannelActive,
		closed: make(chan struct{}),
	}
}

func (c *connChannel) ID() string { return c.id }

func (c *connChannel) State() pipeline.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *connChannel) IsWritable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == pipeline.ChannelActive
}

func (c *connChannel) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *connChannel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *connChannel) Write(msg buffer.Message) (pipeline.WriteSignal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == pipeline.ChannelClosed {
		return pipeline.WriteFlowControlApplied, net.ErrClosed
	}
	if _, err := c.writer.Write(msg.Bytes()); err != nil {
		return pipeline.WriteFlowControlApplied, err
	}
	if c.writer.Buffered() >= flushWatermark {
		if err := c.writer.Flush(); err != nil {
			return pipeline.WriteFlowControlApplied, err
		}
		return pipeline.WriteAcceptedAndFlushed, nil
	}
	return pipeline.WriteAccepted, nil
}

func (c *connChannel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == pipeline.ChannelClosed {
		return net.ErrClosed
	}
	return c.writer.Flush()
}

// CloseGraceful flushes pending writes, then closes the connection. The
// deadline bounds the final flush.
func (c *connChannel) CloseGraceful(deadline time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == pipeline.ChannelClosed {
		return nil
	}
	c.state = pipeline.ChannelDraining

	if deadline > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(deadline))
	}
	flushErr := c.writer.Flush()
	closeErr := c.closeLocked()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (c *connChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *connChannel) closeLocked() error {
	if c.state == pipeline.ChannelClosed {
		return nil
	}
	c.state = pipeline.ChannelClosed
	close(c.closed)
	return c.conn.Close()
}

func (c *connChannel) Closed() <-chan struct{} { return c.closed }
