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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServicesFillsDefaults(t *testing.T) {
	s := NewServices(Services{})

	assert.NotNil(t, s.Executor)
	assert.NotNil(t, s.Clock)
	assert.NotNil(t, s.BufferPool)
	assert.NotNil(t, s.Metrics)
	assert.NotNil(t, s.Logger)
	assert.Nil(t, s.Tracer)
	assert.Nil(t, s.Membership)
	assert.Nil(t, s.Discovery)
}

func TestNewServicesKeepsProvidedFields(t *testing.T) {
	exec := NewPoolExecutor(1, 4)
	defer exec.Shutdown()

	s := NewServices(Services{Executor: exec})
	assert.Same(t, exec, s.Executor.(*PoolExecutor))
}

func TestGoExecutorRunsTask(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, GoExecutor{}.Submit(func() {
		wg.Done()
	}))
	wg.Wait()
}

func TestPoolExecutorRunsAllSubmittedTasks(t *testing.T) {
	exec := NewPoolExecutor(4, 32)

	var count atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, exec.Submit(func() {
			count.Add(1)
		}))
	}

	exec.Shutdown()
	assert.Equal(t, int64(20), count.Load())
}

func TestPoolExecutorRejectsAfterShutdown(t *testing.T) {
	exec := NewPoolExecutor(1, 4)
	exec.Shutdown()

	err := exec.Submit(func() {})
	assert.Error(t, err)
}

func TestPoolExecutorReportsFullQueue(t *testing.T) {
	exec := NewPoolExecutor(1, 1)
	defer exec.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, exec.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	// The single worker is parked; fill the queue, then overflow it.
	require.NoError(t, exec.Submit(func() {}))

	err := exec.Submit(func() {})
	assert.Error(t, err)
	close(block)
}

func TestSystemClock(t *testing.T) {
	clock := systemClock{}

	before := time.Now()
	now := clock.Now()
	assert.False(t, now.Before(before))

	select {
	case <-clock.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Fatal("clock.After never fired")
	}
}
