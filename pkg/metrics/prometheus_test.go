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

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/logger"
)

func init() {
	// Initialize logger for tests
	logger.Logger, _ = zap.NewDevelopment()
}

func gatherValue(t *testing.T, pc *PrometheusCollector, name string) float64 {
	t.Helper()

	families, err := pc.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestPrometheusCollectorCounter(t *testing.T) {
	pc := NewPrometheusCollector(nil)
	labels := map[string]string{"op": "add"}

	pc.IncrementCounter("mutations_total", labels)
	pc.AddToCounter("mutations_total", 2, labels)

	assert.Equal(t, float64(3), gatherValue(t, pc, "meshpipe_mutations_total"))
}

func TestPrometheusCollectorGauge(t *testing.T) {
	pc := NewPrometheusCollector(&PrometheusConfig{Namespace: "test"})
	labels := map[string]string{"channel": "c1"}

	pc.SetGauge("pipeline_epoch", 7, labels)
	pc.SetGauge("pipeline_epoch", 9, labels)

	assert.Equal(t, float64(9), gatherValue(t, pc, "test_pipeline_epoch"))
}

func TestPrometheusCollectorHistogram(t *testing.T) {
	pc := NewPrometheusCollector(nil)

	pc.ObserveHistogram("dispatch_seconds", 0.25, map[string]string{"event": "read"})

	families, err := pc.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	hist := families[0].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.InDelta(t, 0.25, hist.GetSampleSum(), 1e-9)
}

func TestPrometheusCollectorLabelSchemaConflict(t *testing.T) {
	pc := NewPrometheusCollector(nil)

	pc.IncrementCounter("events_total", map[string]string{"kind": "read"})
	// Same metric with a different label key set must not panic; the
	// observation is dropped and logged instead.
	assert.NotPanics(t, func() {
		pc.IncrementCounter("events_total", map[string]string{"other": "x"})
	})
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	assert.NotPanics(t, func() {
		c.IncrementCounter("x", nil)
		c.AddToCounter("x", 1, nil)
		c.SetGauge("y", 2, nil)
		c.ObserveHistogram("z", 3, nil)
	})
}
