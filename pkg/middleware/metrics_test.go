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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/metrics"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
	"github.com/meshpipe/meshpipe/pkg/transport"
)

func gather(t *testing.T, collector *metrics.PrometheusCollector, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := collector.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metric:
		for _, m := range family.GetMetric() {
			for key, want := range labels {
				for _, pair := range m.GetLabel() {
					if pair.GetName() == key && pair.GetValue() != want {
						continue metric
					}
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetricsMiddlewareCountsBothDirections(t *testing.T) {
	collector := metrics.NewPrometheusCollector(&metrics.PrometheusConfig{Namespace: "meshpipe", Subsystem: "mwtest"})
	services := pipeline.NewServices(pipeline.Services{Metrics: collector})
	ch, ctrl := transport.NewMemoryChannel(services)

	require.NoError(t, ctrl.InstallMiddleware(NewMetrics()))
	echo := &echoInbound{}
	ctrl.RegisterInboundHandler("echo", echo)

	ch.Feed([]byte("abcde"))

	metricName := "meshpipe_mwtest_" + metricMessagesTotal
	bytesName := "meshpipe_mwtest_" + metricBytesTotal

	assert.Equal(t, float64(1), gather(t, collector, metricName, map[string]string{"direction": "inbound"}))
	assert.Equal(t, float64(5), gather(t, collector, bytesName, map[string]string{"direction": "inbound"}))
	assert.Equal(t, float64(1), gather(t, collector, metricName, map[string]string{"direction": "outbound"}))
	assert.Equal(t, float64(5), gather(t, collector, bytesName, map[string]string{"direction": "outbound"}))

	outbox := ch.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, "abcde", outbox[0].String())
}

// echoInbound writes every read back out unchanged.
type echoInbound struct {
	pipeline.BaseInboundHandler
}

func (echoInbound) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("test.echo", "test", "echoes reads")
}

func (echoInbound) OnRead(ctx pipeline.Context, msg buffer.Message) {
	_, _ = ctx.Controller().EmitWrite(msg)
}
