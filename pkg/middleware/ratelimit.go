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

// Package middleware provides reusable pipeline middleware: rate limiting,
// traffic logging, and message metrics.
package middleware

import (
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// RateLimitConfig configures inbound message rate limiting for one channel.
type RateLimitConfig struct {
	// Capacity is the burst size in messages.
	Capacity int64
	// RefillRate is the sustained rate in messages per second.
	RefillRate float64
}

// RateLimit installs an inbound handler that drops messages once the
// channel's token bucket runs dry.
type RateLimit struct {
	config RateLimitConfig
}

// NewRateLimit creates the middleware.
func NewRateLimit(config RateLimitConfig) *RateLimit {
	if config.Capacity <= 0 {
		config.Capacity = 100
	}
	if config.RefillRate <= 0 {
		config.RefillRate = float64(config.Capacity)
	}
	return &RateLimit{config: config}
}

// Descriptor identifies the middleware.
func (rl *RateLimit) Descriptor() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.ratelimit", "traffic", "token bucket message rate limiting")
}

// Configure installs one handler with a bucket private to this channel.
func (rl *RateLimit) Configure(chain pipeline.ChainBuilder, services *pipeline.Services) error {
	bucket := NewTokenBucketWithClock(rl.config.Capacity, rl.config.RefillRate, services.Clock)
	chain.RegisterInbound("ratelimit", &rateLimitHandler{bucket: bucket})
	return nil
}

type rateLimitHandler struct {
	pipeline.BaseInboundHandler
	bucket *TokenBucket
}

func (h *rateLimitHandler) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.ratelimit", "traffic", "token bucket message rate limiting")
}

func (h *rateLimitHandler) OnRead(ctx pipeline.Context, msg buffer.Message) {
	if !h.bucket.Allow() {
		ctx.Metrics().IncrementCounter("pipeline_ratelimit_dropped_total",
			map[string]string{"channel": ctx.Channel().ID()})
		ctx.Logger().Warn("Message dropped by rate limiter",
			zap.String("channel", ctx.Channel().ID()),
			zap.Int("size", msg.Len()))
		return
	}
	ctx.ForwardRead(msg)
}
