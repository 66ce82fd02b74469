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
	"fmt"
	"time"

	"github.com/meshpipe/meshpipe/pkg/buffer"
)

// Descriptor carries static handler metadata used for registry snapshots and
// observability labels.
type Descriptor struct {
	// Name is the stable identifier, ideally vendor.component style.
	Name string `json:"name"`
	// Category groups handlers for introspection (codec, security, routing ...).
	Category string `json:"category"`
	// Summary is a human-readable description.
	Summary string `json:"summary"`
}

// NewDescriptor builds a descriptor from its three parts.
func NewDescriptor(name, category, summary string) Descriptor {
	return Descriptor{Name: name, Category: category, Summary: summary}
}

// AnonymousDescriptor returns a placeholder descriptor for handlers that do
// not override Describe, typically tests and prototypes.
func AnonymousDescriptor(stage string) Descriptor {
	return Descriptor{
		Name:     fmt.Sprintf("anonymous.%s", stage),
		Category: "unspecified",
		Summary:  fmt.Sprintf("auto-generated descriptor for %s", stage),
	}
}

// InboundHandler processes events flowing from the transport toward the
// application. All callbacks run synchronously on the dispatching goroutine;
// long work belongs on ctx.Executor().
type InboundHandler interface {
	// Describe returns static handler metadata.
	Describe() Descriptor
	// OnChannelActive fires when the channel becomes active.
	OnChannelActive(ctx Context)
	// OnRead handles one inbound message.
	OnRead(ctx Context, msg buffer.Message)
	// OnReadComplete fires after a batch of reads has been delivered.
	OnReadComplete(ctx Context)
	// OnWritabilityChanged reports writability transitions of the channel.
	OnWritabilityChanged(ctx Context, writable bool)
	// OnUserEvent delivers an application-defined event.
	OnUserEvent(ctx Context, event UserEvent)
	// OnExceptionCaught delivers an error raised on the channel.
	OnExceptionCaught(ctx Context, err error)
	// OnChannelInactive fires when the channel stops being active.
	OnChannelInactive(ctx Context)
}

// OutboundHandler processes events flowing from the application toward the
// transport.
type OutboundHandler interface {
	// Describe returns static handler metadata.
	Describe() Descriptor
	// OnWrite handles one outbound message and reports the backpressure signal.
	OnWrite(ctx Context, msg buffer.Message) (WriteSignal, error)
	// OnFlush flushes any buffered writes.
	OnFlush(ctx Context) error
	// OnCloseGraceful asks the handler to wind down within the deadline.
	OnCloseGraceful(ctx Context, deadline time.Duration) error
}

// DuplexHandler handles both directions, sharing state between them.
type DuplexHandler interface {
	InboundHandler
	OutboundHandler
}

// BaseInboundHandler is a no-op InboundHandler intended for embedding, so
// handlers only spell out the callbacks they care about.
type BaseInboundHandler struct{}

// Describe returns an anonymous descriptor.
func (BaseInboundHandler) Describe() Descriptor { return AnonymousDescriptor("inbound-handler") }

// OnChannelActive is a no-op.
func (BaseInboundHandler) OnChannelActive(Context) {}

// OnRead is a no-op; the message is not forwarded.
func (BaseInboundHandler) OnRead(Context, buffer.Message) {}

// OnReadComplete is a no-op.
func (BaseInboundHandler) OnReadComplete(Context) {}

// OnWritabilityChanged is a no-op.
func (BaseInboundHandler) OnWritabilityChanged(Context, bool) {}

// OnUserEvent is a no-op.
func (BaseInboundHandler) OnUserEvent(Context, UserEvent) {}

// OnExceptionCaught is a no-op.
func (BaseInboundHandler) OnExceptionCaught(Context, error) {}

// OnChannelInactive is a no-op.
func (BaseInboundHandler) OnChannelInactive(Context) {}

// BaseOutboundHandler is a pass-through OutboundHandler for embedding.
type BaseOutboundHandler struct{}

// Describe returns an anonymous descriptor.
func (BaseOutboundHandler) Describe() Descriptor { return AnonymousDescriptor("outbound-handler") }

// OnWrite forwards the message toward the transport unchanged.
func (BaseOutboundHandler) OnWrite(ctx Context, msg buffer.Message) (WriteSignal, error) {
	return ctx.ForwardWrite(msg)
}

// OnFlush is a no-op.
func (BaseOutboundHandler) OnFlush(Context) error { return nil }

// OnCloseGraceful is a no-op.
func (BaseOutboundHandler) OnCloseGraceful(Context, time.Duration) error { return nil }

// Handler is the polymorphic capability wrapper the hot-swap interfaces
// accept. Implementations report their primary direction and hand out the
// concrete callbacks they support.
//
// Contract: if Direction reports DirectionInbound, Inbound must return a
// non-nil handler, and symmetrically for DirectionOutbound. A handler may
// support both directions.
type Handler interface {
	// Direction returns the handler's primary direction.
	Direction() Direction
	// Descriptor returns static metadata for registry snapshots.
	Descriptor() Descriptor
	// Inbound returns the inbound callback, or nil if unsupported.
	Inbound() InboundHandler
	// Outbound returns the outbound callback, or nil if unsupported.
	Outbound() OutboundHandler
}

type inboundSlot struct {
	inner InboundHandler
}

func (s inboundSlot) Direction() Direction      { return DirectionInbound }
func (s inboundSlot) Descriptor() Descriptor    { return s.inner.Describe() }
func (s inboundSlot) Inbound() InboundHandler   { return s.inner }
func (s inboundSlot) Outbound() OutboundHandler { return nil }

type outboundSlot struct {
	inner OutboundHandler
}

func (s outboundSlot) Direction() Direction      { return DirectionOutbound }
func (s outboundSlot) Descriptor() Descriptor    { return s.inner.Describe() }
func (s outboundSlot) Inbound() InboundHandler   { return nil }
func (s outboundSlot) Outbound() OutboundHandler { return s.inner }

type duplexSlot struct {
	inner DuplexHandler
}

func (s duplexSlot) Direction() Direction      { return DirectionInbound }
func (s duplexSlot) Descriptor() Descriptor    { return s.inner.Describe() }
func (s duplexSlot) Inbound() InboundHandler   { return s.inner }
func (s duplexSlot) Outbound() OutboundHandler { return s.inner }

// FromInbound wraps an inbound-only handler into the capability interface.
func FromInbound(h InboundHandler) Handler {
	return inboundSlot{inner: h}
}

// FromOutbound wraps an outbound-only handler into the capability interface.
func FromOutbound(h OutboundHandler) Handler {
	return outboundSlot{inner: h}
}

// FromDuplex wraps a duplex handler. Its primary direction is inbound, which
// governs anchor-relative placement; both callbacks remain reachable.
func FromDuplex(h DuplexHandler) Handler {
	return duplexSlot{inner: h}
}
