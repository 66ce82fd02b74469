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
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/logger"
	"github.com/meshpipe/meshpipe/pkg/metrics"
)

// Executor schedules work off the dispatch goroutine. Handlers must hand
// long-running work to the executor instead of blocking a callback.
type Executor interface {
	// Submit enqueues a task. It returns an error when the executor is
	// shut down or the queue is full.
	Submit(task func()) error
}

// Clock abstracts the time source so time-dependent handlers stay testable.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After waits for the duration to elapse.
	After(d time.Duration) <-chan time.Time
}

// Membership exposes cluster membership to handlers that route by topology.
type Membership interface {
	// LocalNode returns this node's identifier.
	LocalNode() string
	// Members returns the currently known member identifiers.
	Members() []string
}

// Discovery resolves service names to instance addresses.
type Discovery interface {
	// DiscoverInstances returns "host:port" addresses for the service.
	DiscoverInstances(ctx context.Context, service string) ([]string, error)
}

// Services is the collaborator bundle handed to controllers and, through the
// dispatch context, to handlers. Membership and Discovery are optional; every
// other field is defaulted by NewServices when left nil.
type Services struct {
	Executor   Executor
	Clock      Clock
	BufferPool buffer.Pool
	Metrics    metrics.Collector
	Logger     *zap.Logger
	Tracer     trace.Tracer
	Membership Membership
	Discovery  Discovery
}

// NewServices fills in defaults for any nil field and returns the bundle.
func NewServices(s Services) *Services {
	if s.Executor == nil {
		s.Executor = GoExecutor{}
	}
	if s.Clock == nil {
		s.Clock = systemClock{}
	}
	if s.BufferPool == nil {
		s.BufferPool = buffer.NewPool()
	}
	if s.Metrics == nil {
		s.Metrics = metrics.NewNoopCollector()
	}
	if s.Logger == nil {
		s.Logger = logger.GetLogger()
	}
	return &s
}

// GoExecutor runs every task on its own goroutine.
type GoExecutor struct{}

// Submit spawns a goroutine for the task.
func (GoExecutor) Submit(task func()) error {
	go task()
	return nil
}

// systemClock delegates to the time package.
type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// PoolExecutor runs tasks on a fixed set of workers fed from a bounded queue.
type PoolExecutor struct {
	tasks    chan func()
	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewPoolExecutor starts workers goroutines draining a queue of the given
// capacity.
func NewPoolExecutor(workers, queueSize int) *PoolExecutor {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	pe := &PoolExecutor{
		tasks:    make(chan func(), queueSize),
		shutdown: make(chan struct{}),
	}
	pe.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pe.worker()
	}
	return pe
}

func (pe *PoolExecutor) worker() {
	defer pe.wg.Done()
	for {
		select {
		case task := <-pe.tasks:
			task()
		case <-pe.shutdown:
			// Drain whatever was queued before the shutdown signal.
			for {
				select {
				case task := <-pe.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Submit enqueues a task without blocking.
func (pe *PoolExecutor) Submit(task func()) error {
	select {
	case <-pe.shutdown:
		return fmt.Errorf("executor is shut down")
	default:
	}

	select {
	case pe.tasks <- task:
		return nil
	default:
		return fmt.Errorf("executor queue is full")
	}
}

// Shutdown stops accepting tasks and waits for queued tasks to finish.
func (pe *PoolExecutor) Shutdown() {
	pe.once.Do(func() {
		close(pe.shutdown)
	})
	pe.wg.Wait()
}
