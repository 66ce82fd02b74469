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

package pipeline

import (
	"net"
	"time"

	"github.com/meshpipe/meshpipe/pkg/buffer"
)

// Channel abstracts one I/O connection for the handler chain. Concrete
// implementations live in pkg/transport; the controller only relies on this
// boundary.
type Channel interface {
	// ID returns a stable identifier for log correlation.
	ID() string
	// State returns the current lifecycle state.
	State() ChannelState
	// IsWritable reports whether writes are currently accepted without
	// triggering flow control.
	IsWritable() bool
	// LocalAddr returns the local endpoint address, or nil if not applicable.
	LocalAddr() net.Addr
	// RemoteAddr returns the peer address, or nil if not applicable.
	RemoteAddr() net.Addr
	// Write queues one message and reports the backpressure signal.
	Write(msg buffer.Message) (WriteSignal, error)
	// Flush pushes buffered writes to the wire.
	Flush() error
	// CloseGraceful starts a graceful shutdown, allowing pending writes to
	// drain within the deadline. A zero deadline means implementation default.
	CloseGraceful(deadline time.Duration) error
	// Close terminates the connection immediately.
	Close() error
	// Closed is closed once the channel has fully shut down.
	Closed() <-chan struct{}
}
