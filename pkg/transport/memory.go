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
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// MemoryChannel is an in-process channel. Writes land in an outbox the test
// or embedding application drains; inbound traffic is injected with Feed.
type MemoryChannel struct {
	id   string
	ctrl *pipeline.Controller

	mu      sync.Mutex
	state   pipeline.ChannelState
	outbox  []buffer.Message
	flushes int
	closed  chan struct{}
}

// NewMemoryChannel builds a channel plus a controller bound to it. A nil
// services bundle gets defaults.
func NewMemoryChannel(services *pipeline.Services) (*MemoryChannel, *pipeline.Controller) {
	if services == nil {
		services = pipeline.NewServices(pipeline.Services{})
	}
	ch := &MemoryChannel{
		id:     uuid.NewString(),
		state:  pipeline.ChannelActive,
		closed: make(chan struct{}),
	}
	ch.ctrl = pipeline.NewController(ch, services, context.Background())
	return ch, ch.ctrl
}

func (m *MemoryChannel) ID() string { return m.id }

func (m *MemoryChannel) State() pipeline.ChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MemoryChannel) IsWritable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == pipeline.ChannelActive
}

func (m *MemoryChannel) LocalAddr() net.Addr  { return nil }
func (m *MemoryChannel) RemoteAddr() net.Addr { return nil }

func (m *MemoryChannel) Write(msg buffer.Message) (pipeline.WriteSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == pipeline.ChannelClosed {
		return pipeline.WriteFlowControlApplied, net.ErrClosed
	}
	m.outbox = append(m.outbox, msg)
	return pipeline.WriteAccepted, nil
}

func (m *MemoryChannel) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *MemoryChannel) CloseGraceful(time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == pipeline.ChannelClosed {
		return nil
	}
	m.state = pipeline.ChannelDraining
	return m.closeLocked()
}

func (m *MemoryChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *MemoryChannel) closeLocked() error {
	if m.state == pipeline.ChannelClosed {
		return nil
	}
	m.state = pipeline.ChannelClosed
	close(m.closed)
	return nil
}

func (m *MemoryChannel) Closed() <-chan struct{} { return m.closed }

// Feed injects an inbound message as if it arrived from a peer.
func (m *MemoryChannel) Feed(payload []byte) {
	m.ctrl.EmitRead(buffer.NewMessage(payload))
	m.ctrl.EmitReadComplete()
}

// Outbox returns the messages written to the channel so far.
func (m *MemoryChannel) Outbox() []buffer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]buffer.Message, len(m.outbox))
	copy(out, m.outbox)
	return out
}

// FlushCount reports how many flushes reached the channel.
func (m *MemoryChannel) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}
