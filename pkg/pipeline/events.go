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

// UserEvent is an application-defined event broadcast through the inbound
// chain. The value is shared across all recipients of one broadcast, so the
// payload must be safe for concurrent reads and cheap to hand around.
type UserEvent struct {
	// Kind names the event, ideally vendor.event style.
	Kind string
	// Payload carries the event body; may be nil.
	Payload interface{}
}

// ChannelState is the lifecycle state machine shared by all channel
// implementations.
type ChannelState int

const (
	// ChannelInitialized means resources are allocated but I/O has not started.
	ChannelInitialized ChannelState = iota
	// ChannelActive means the channel is open for full-duplex I/O.
	ChannelActive
	// ChannelDraining means a graceful close is in progress; pending writes
	// may still be flushed.
	ChannelDraining
	// ChannelClosed is terminal; all further events are ignored.
	ChannelClosed
)

// String returns the state name.
func (s ChannelState) String() string {
	switch s {
	case ChannelInitialized:
		return "initialized"
	case ChannelActive:
		return "active"
	case ChannelDraining:
		return "draining"
	case ChannelClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WriteSignal is the backpressure feedback returned by write operations.
type WriteSignal int

const (
	// WriteAccepted means the message was buffered but not yet flushed.
	WriteAccepted WriteSignal = iota
	// WriteAcceptedAndFlushed means the message was written out.
	WriteAcceptedAndFlushed
	// WriteFlowControlApplied means the receiver cannot keep up; the caller
	// should slow down or retry.
	WriteFlowControlApplied
)

// String returns the signal name.
func (s WriteSignal) String() string {
	switch s {
	case WriteAccepted:
		return "accepted"
	case WriteAcceptedAndFlushed:
		return "accepted-and-flushed"
	case WriteFlowControlApplied:
		return "flow-control-applied"
	default:
		return "unknown"
	}
}
