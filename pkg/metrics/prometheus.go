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
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/logger"
)

// PrometheusConfig configures the Prometheus-backed collector.
type PrometheusConfig struct {
	Namespace string
	Subsystem string
	Buckets   []float64
}

// DefaultPrometheusConfig returns the configuration used when none is given.
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace: "meshpipe",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
	}
}

// PrometheusCollector implements Collector using the Prometheus client.
// Metric vectors are created lazily on first use, keyed by metric name; the
// label key set of the first observation fixes the vector's label schema.
type PrometheusCollector struct {
	config     *PrometheusConfig
	registry   *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	mu         sync.RWMutex
}

// NewPrometheusCollector creates a new Prometheus-backed metrics collector.
func NewPrometheusCollector(config *PrometheusConfig) *PrometheusCollector {
	if config == nil {
		config = DefaultPrometheusConfig()
	}

	return &PrometheusCollector{
		config:     config,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// IncrementCounter increments a counter metric by 1
func (pc *PrometheusCollector) IncrementCounter(name string, labels map[string]string) {
	pc.AddToCounter(name, 1, labels)
}

// AddToCounter adds a value to a counter metric
func (pc *PrometheusCollector) AddToCounter(name string, value float64, labels map[string]string) {
	counter, err := pc.getOrCreateCounter(name, labels)
	if err == nil {
		var child prometheus.Counter
		if child, err = counter.GetMetricWith(prometheus.Labels(labels)); err == nil {
			child.Add(value)
			return
		}
	}
	logger.GetLogger().Error("Failed to record counter",
		zap.String("metric", name), zap.Error(err))
}

// SetGauge sets a gauge metric to a specific value
func (pc *PrometheusCollector) SetGauge(name string, value float64, labels map[string]string) {
	gauge, err := pc.getOrCreateGauge(name, labels)
	if err == nil {
		var child prometheus.Gauge
		if child, err = gauge.GetMetricWith(prometheus.Labels(labels)); err == nil {
			child.Set(value)
			return
		}
	}
	logger.GetLogger().Error("Failed to record gauge",
		zap.String("metric", name), zap.Error(err))
}

// ObserveHistogram adds an observation to a histogram metric
func (pc *PrometheusCollector) ObserveHistogram(name string, value float64, labels map[string]string) {
	histogram, err := pc.getOrCreateHistogram(name, labels)
	if err == nil {
		var child prometheus.Observer
		if child, err = histogram.GetMetricWith(prometheus.Labels(labels)); err == nil {
			child.Observe(value)
			return
		}
	}
	logger.GetLogger().Error("Failed to record histogram",
		zap.String("metric", name), zap.Error(err))
}

// Registry exposes the underlying registry so hosts can register their own
// collectors alongside the framework's.
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (pc *PrometheusCollector) getOrCreateCounter(name string, labels map[string]string) (*prometheus.CounterVec, error) {
	pc.mu.RLock()
	counter, exists := pc.counters[name]
	pc.mu.RUnlock()
	if exists {
		return counter, nil
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if counter, exists = pc.counters[name]; exists {
		return counter, nil
	}

	counter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: pc.config.Namespace,
		Subsystem: pc.config.Subsystem,
		Name:      name,
	}, labelKeys(labels))
	if err := pc.registry.Register(counter); err != nil {
		return nil, err
	}
	pc.counters[name] = counter
	return counter, nil
}

func (pc *PrometheusCollector) getOrCreateGauge(name string, labels map[string]string) (*prometheus.GaugeVec, error) {
	pc.mu.RLock()
	gauge, exists := pc.gauges[name]
	pc.mu.RUnlock()
	if exists {
		return gauge, nil
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if gauge, exists = pc.gauges[name]; exists {
		return gauge, nil
	}

	gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: pc.config.Namespace,
		Subsystem: pc.config.Subsystem,
		Name:      name,
	}, labelKeys(labels))
	if err := pc.registry.Register(gauge); err != nil {
		return nil, err
	}
	pc.gauges[name] = gauge
	return gauge, nil
}

func (pc *PrometheusCollector) getOrCreateHistogram(name string, labels map[string]string) (*prometheus.HistogramVec, error) {
	pc.mu.RLock()
	histogram, exists := pc.histograms[name]
	pc.mu.RUnlock()
	if exists {
		return histogram, nil
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if histogram, exists = pc.histograms[name]; exists {
		return histogram, nil
	}

	histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: pc.config.Namespace,
		Subsystem: pc.config.Subsystem,
		Name:      name,
		Buckets:   pc.config.Buckets,
	}, labelKeys(labels))
	if err := pc.registry.Register(histogram); err != nil {
		return nil, err
	}
	pc.histograms[name] = histogram
	return histogram, nil
}
