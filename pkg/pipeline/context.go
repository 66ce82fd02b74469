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
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/metrics"
)

// Context is the per-invocation view a handler receives. It exposes the
// ambient services of the pipeline, the channel the event belongs to, and the
// two continuation primitives ForwardRead and ForwardWrite.
//
// A Context is valid only for the duration of the callback it was passed to
// and must not be retained.
type Context interface {
	// Channel returns the channel this dispatch belongs to.
	Channel() Channel

	// Controller returns the owning controller, for handlers that mutate the
	// chain they run on.
	Controller() *Controller

	// Executor runs background work off the dispatch path.
	Executor() Executor

	// Clock is the pipeline's time source.
	Clock() Clock

	// BufferPool returns the shared byte buffer pool.
	BufferPool() buffer.Pool

	// Metrics returns the pipeline's metrics collector.
	Metrics() metrics.Collector

	// Logger returns the pipeline logger.
	Logger() *zap.Logger

	// TraceContext carries the span identity of the current dispatch, or an
	// invalid span context when tracing is disabled.
	TraceContext() trace.SpanContext

	// CallContext is the request-scoped context.Context the dispatch was
	// started under.
	CallContext() context.Context

	// ForwardRead passes a message to the next inbound handler after the
	// current position. Each context forwards at most once per position;
	// repeated calls continue down the chain rather than re-invoking the
	// same handler.
	ForwardRead(msg buffer.Message)

	// ForwardWrite passes a message to the previous outbound handler, or to
	// the channel once the outbound chain is exhausted.
	ForwardWrite(msg buffer.Message) (WriteSignal, error)

	// Write hands a message directly to the channel, bypassing the
	// outbound chain. Use Controller().EmitWrite to traverse outbound
	// handlers.
	Write(msg buffer.Message) (WriteSignal, error)

	// Flush flushes the channel directly.
	Flush() error

	// CloseGraceful closes the channel directly after the given drain
	// deadline.
	CloseGraceful(deadline time.Duration) error

	// Closed is closed when the underlying channel terminates.
	Closed() <-chan struct{}
}

// dispatchContext binds one handler invocation to the chain state the
// dispatch started on. Cursors advance through that pinned state, so a
// traversal never mixes entries from different chain versions.
type dispatchContext struct {
	controller *Controller
	state      *chainState
	position   int
	nextIn     atomic.Int64
	nextOut    atomic.Int64
	spanCtx    trace.SpanContext
}

func (c *Controller) buildContext(state *chainState, position int, spanCtx trace.SpanContext) *dispatchContext {
	ctx := &dispatchContext{
		controller: c,
		state:      state,
		position:   position,
		spanCtx:    spanCtx,
	}
	ctx.nextIn.Store(int64(position) + 1)
	ctx.nextOut.Store(int64(position) - 1)
	return ctx
}

func (d *dispatchContext) Channel() Channel             { return d.controller.channel }
func (d *dispatchContext) Controller() *Controller      { return d.controller }
func (d *dispatchContext) Executor() Executor           { return d.controller.services.Executor }
func (d *dispatchContext) Clock() Clock                 { return d.controller.services.Clock }
func (d *dispatchContext) BufferPool() buffer.Pool      { return d.controller.services.BufferPool }
func (d *dispatchContext) Metrics() metrics.Collector   { return d.controller.services.Metrics }
func (d *dispatchContext) Logger() *zap.Logger          { return d.controller.services.Logger }
func (d *dispatchContext) TraceContext() trace.SpanContext { return d.spanCtx }
func (d *dispatchContext) CallContext() context.Context { return d.controller.callCtx }

func (d *dispatchContext) ForwardRead(msg buffer.Message) {
	// Consume the cursor atomically so concurrent forwards from the same
	// context each take distinct positions.
	idx := int(d.nextIn.Add(1) - 1)
	d.controller.dispatchInboundFrom(d.state, idx, msg)
}

func (d *dispatchContext) ForwardWrite(msg buffer.Message) (WriteSignal, error) {
	idx := int(d.nextOut.Add(-1) + 1)
	return d.controller.dispatchOutboundFrom(d.state, idx, msg)
}

func (d *dispatchContext) Write(msg buffer.Message) (WriteSignal, error) {
	if d.controller.channel == nil {
		return WriteAccepted, nil
	}
	return d.controller.channel.Write(msg)
}

func (d *dispatchContext) Flush() error {
	if d.controller.channel == nil {
		return nil
	}
	return d.controller.channel.Flush()
}

func (d *dispatchContext) CloseGraceful(deadline time.Duration) error {
	if d.controller.channel == nil {
		return nil
	}
	return d.controller.channel.CloseGraceful(deadline)
}

func (d *dispatchContext) Closed() <-chan struct{} {
	if d.controller.channel == nil {
		return nil
	}
	return d.controller.channel.Closed()
}
