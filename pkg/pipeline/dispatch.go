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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meshpipe/meshpipe/pkg/buffer"
)

// EmitChannelActivated broadcasts channel activation to every inbound-capable
// handler, in chain order.
func (c *Controller) EmitChannelActivated() {
	c.notifyInbound(func(h InboundHandler, ctx Context) {
		h.OnChannelActive(ctx)
	})
}

// EmitRead delivers one message to the first inbound-capable handler. A chain
// with no inbound handler drops the message; callers are expected to have
// installed at least a terminal handler.
func (c *Controller) EmitRead(msg buffer.Message) {
	state := c.chain.load()
	c.dispatchInboundFrom(state, 0, msg)
}

// EmitReadComplete broadcasts the end of a read batch.
func (c *Controller) EmitReadComplete() {
	c.notifyInbound(func(h InboundHandler, ctx Context) {
		h.OnReadComplete(ctx)
	})
}

// EmitWritabilityChanged broadcasts a writability transition.
func (c *Controller) EmitWritabilityChanged(writable bool) {
	c.notifyInbound(func(h InboundHandler, ctx Context) {
		h.OnWritabilityChanged(ctx, writable)
	})
}

// EmitUserEvent broadcasts an application-defined event. The event value is
// shared across recipients.
func (c *Controller) EmitUserEvent(event UserEvent) {
	c.notifyInbound(func(h InboundHandler, ctx Context) {
		h.OnUserEvent(ctx, event)
	})
}

// EmitException delivers an error to the first inbound-capable handler only.
// That handler owns the decision whether and how error handling continues;
// there is no automatic propagation to later handlers.
func (c *Controller) EmitException(err error) {
	state := c.chain.load()
	idx := findNextInbound(state.entries, 0)
	if idx < 0 {
		return
	}
	ctx := c.buildContext(state, idx, c.rootSpanContext())
	state.entries[idx].inbound.OnExceptionCaught(ctx, err)
}

// EmitChannelDeactivated broadcasts channel deactivation.
func (c *Controller) EmitChannelDeactivated() {
	c.notifyInbound(func(h InboundHandler, ctx Context) {
		h.OnChannelInactive(ctx)
	})
}

// EmitWrite sends a message down the outbound chain, tail to head, ending at
// the channel once no outbound handler remains.
func (c *Controller) EmitWrite(msg buffer.Message) (WriteSignal, error) {
	state := c.chain.load()
	return c.dispatchOutboundFrom(state, len(state.entries)-1, msg)
}

// EmitFlush asks every outbound-capable handler, tail to head, to flush, then
// flushes the channel. The first handler error is reported after the sweep
// completes.
func (c *Controller) EmitFlush() error {
	state := c.chain.load()
	var firstErr error
	for i := len(state.entries) - 1; i >= 0; i-- {
		if state.entries[i].outbound == nil {
			continue
		}
		ctx := c.buildContext(state, i, c.rootSpanContext())
		if err := state.entries[i].outbound.OnFlush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.channel != nil {
		if err := c.channel.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EmitCloseGraceful walks the outbound chain tail to head giving each handler
// a chance to wind down, then closes the channel gracefully.
func (c *Controller) EmitCloseGraceful(deadline time.Duration) error {
	state := c.chain.load()
	var firstErr error
	for i := len(state.entries) - 1; i >= 0; i-- {
		if state.entries[i].outbound == nil {
			continue
		}
		ctx := c.buildContext(state, i, c.rootSpanContext())
		if err := state.entries[i].outbound.OnCloseGraceful(ctx, deadline); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.channel != nil {
		if err := c.channel.CloseGraceful(deadline); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// dispatchInboundFrom finds the next inbound-capable entry at or after start
// in the pinned state and invokes it with a context bound to that same state.
// This is shared by EmitRead and ForwardRead so one logical traversal always
// walks one chain value, no matter how many mutations commit meanwhile.
func (c *Controller) dispatchInboundFrom(state *chainState, start int, msg buffer.Message) {
	idx := findNextInbound(state.entries, start)
	if idx < 0 {
		return
	}

	entry := state.entries[idx]
	spanCtx := c.rootSpanContext()
	if c.services.Tracer != nil {
		_, span := c.services.Tracer.Start(c.callCtx, "pipeline.read "+entry.label,
			trace.WithAttributes(
				attribute.String("pipeline.handler", entry.label),
				attribute.String("pipeline.channel", c.channelID()),
			))
		spanCtx = span.SpanContext()
		defer span.End()
	}

	ctx := c.buildContext(state, idx, spanCtx)
	entry.inbound.OnRead(ctx, msg)
}

// dispatchOutboundFrom finds the previous outbound-capable entry at or before
// start and invokes it; past the head the message goes to the channel.
func (c *Controller) dispatchOutboundFrom(state *chainState, start int, msg buffer.Message) (WriteSignal, error) {
	idx := findPrevOutbound(state.entries, start)
	if idx < 0 {
		if c.channel == nil {
			return WriteAccepted, nil
		}
		return c.channel.Write(msg)
	}

	ctx := c.buildContext(state, idx, c.rootSpanContext())
	return state.entries[idx].outbound.OnWrite(ctx, msg)
}

// notifyInbound loads one snapshot and invokes callback for every
// inbound-capable entry, in order, each with its own context.
func (c *Controller) notifyInbound(callback func(h InboundHandler, ctx Context)) {
	state := c.chain.load()
	spanCtx := c.rootSpanContext()
	for i, entry := range state.entries {
		if entry.inbound == nil {
			continue
		}
		ctx := c.buildContext(state, i, spanCtx)
		callback(entry.inbound, ctx)
	}
}

func (c *Controller) rootSpanContext() trace.SpanContext {
	return trace.SpanContextFromContext(c.callCtx)
}

func (c *Controller) channelID() string {
	if c.channel == nil {
		return ""
	}
	return c.channel.ID()
}

func findNextInbound(entries []*handlerEntry, start int) int {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(entries); i++ {
		if entries[i].inbound != nil {
			return i
		}
	}
	return -1
}

func findPrevOutbound(entries []*handlerEntry, start int) int {
	if start >= len(entries) {
		start = len(entries) - 1
	}
	for i := start; i >= 0; i-- {
		if entries[i].outbound != nil {
			return i
		}
	}
	return -1
}
