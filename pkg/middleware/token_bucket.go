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
	"sync"
	"time"

	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// TokenBucket implements the token bucket algorithm. Bursts up to capacity
// are allowed while the average rate stays at refillRate per second.
type TokenBucket struct {
	capacity       int64
	tokens         float64
	refillRate     float64
	lastRefillTime time.Time
	clock          pipeline.Clock
	mutex          sync.Mutex
}

// NewTokenBucket creates a full bucket using the system clock.
func NewTokenBucket(capacity int64, refillRate float64) *TokenBucket {
	return NewTokenBucketWithClock(capacity, refillRate, nil)
}

// NewTokenBucketWithClock creates a full bucket on the given clock. A nil
// clock falls back to the system clock.
func NewTokenBucketWithClock(capacity int64, refillRate float64, clock pipeline.Clock) *TokenBucket {
	tb := &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		clock:      clock,
	}
	tb.lastRefillTime = tb.now()
	return tb
}

func (tb *TokenBucket) now() time.Time {
	if tb.clock != nil {
		return tb.clock.Now()
	}
	return time.Now()
}

// Allow takes one token if available.
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN takes n tokens if available.
func (tb *TokenBucket) AllowN(n int64) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}

	return false
}

// refill adds tokens for the elapsed time, capped at capacity.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	tb.lastRefillTime = now
}

// Tokens returns the currently available token count.
func (tb *TokenBucket) Tokens() float64 {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	return tb.tokens
}
