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

// Package metrics provides the metrics provider consumed by pipeline
// controllers and transports, with a Prometheus-backed implementation and a
// no-op implementation for tests and metric-less deployments.
package metrics

// Collector is the metrics surface the rest of the framework records against.
type Collector interface {
	// IncrementCounter increments a counter metric by 1
	IncrementCounter(name string, labels map[string]string)
	// AddToCounter adds a value to a counter metric
	AddToCounter(name string, value float64, labels map[string]string)
	// SetGauge sets a gauge metric to a specific value
	SetGauge(name string, value float64, labels map[string]string)
	// ObserveHistogram adds an observation to a histogram metric
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// noopCollector discards every observation.
type noopCollector struct{}

// NewNoopCollector returns a collector that records nothing.
func NewNoopCollector() Collector {
	return noopCollector{}
}

func (noopCollector) IncrementCounter(string, map[string]string)           {}
func (noopCollector) AddToCounter(string, float64, map[string]string)      {}
func (noopCollector) SetGauge(string, float64, map[string]string)          {}
func (noopCollector) ObserveHistogram(string, float64, map[string]string)  {}
