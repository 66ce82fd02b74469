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

package middleware

import (
	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

const (
	metricMessagesTotal = "pipeline_messages_total"
	metricBytesTotal    = "pipeline_bytes_total"
)

// Metrics counts messages and payload bytes in both directions.
type Metrics struct{}

// NewMetrics creates the middleware.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Descriptor identifies the middleware.
func (m *Metrics) Descriptor() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.metrics", "observability", "message and byte counters")
}

// Configure installs the counting handlers.
func (m *Metrics) Configure(chain pipeline.ChainBuilder, services *pipeline.Services) error {
	chain.RegisterInbound("metrics-in", &metricsInbound{})
	chain.RegisterOutbound("metrics-out", &metricsOutbound{})
	return nil
}

type metricsInbound struct {
	pipeline.BaseInboundHandler
}

func (h *metricsInbound) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.metrics.inbound", "observability", "counts inbound traffic")
}

func (h *metricsInbound) OnRead(ctx pipeline.Context, msg buffer.Message) {
	labels := map[string]string{"direction": "inbound"}
	ctx.Metrics().IncrementCounter(metricMessagesTotal, labels)
	ctx.Metrics().AddToCounter(metricBytesTotal, float64(msg.Len()), labels)
	ctx.ForwardRead(msg)
}

type metricsOutbound struct {
	pipeline.BaseOutboundHandler
}

func (h *metricsOutbound) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.metrics.outbound", "observability", "counts outbound traffic")
}

func (h *metricsOutbound) OnWrite(ctx pipeline.Context, msg buffer.Message) (pipeline.WriteSignal, error) {
	labels := map[string]string{"direction": "outbound"}
	ctx.Metrics().IncrementCounter(metricMessagesTotal, labels)
	ctx.Metrics().AddToCounter(metricBytesTotal, float64(msg.Len()), labels)
	return ctx.ForwardWrite(msg)
}
