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

import "go.uber.org/zap"

// ChainBuilder is the narrow registration surface handed to middleware while
// it configures a controller. Middleware appends handlers; it does not get to
// remove or reorder what other middleware installed.
type ChainBuilder interface {
	// RegisterInbound appends an inbound handler with the given label.
	RegisterInbound(label string, handler InboundHandler) Handle

	// RegisterOutbound appends an outbound handler with the given label.
	RegisterOutbound(label string, handler OutboundHandler) Handle
}

// Middleware contributes handlers to a pipeline at setup time. Configure may
// consult the ambient services to decide what to install.
type Middleware interface {
	// Descriptor identifies the middleware for registry and log output.
	Descriptor() Descriptor

	// Configure installs the middleware's handlers through the builder.
	Configure(chain ChainBuilder, services *Services) error
}

type chainBuilder struct {
	controller *Controller
}

func (b *chainBuilder) RegisterInbound(label string, handler InboundHandler) Handle {
	return b.controller.RegisterInboundHandler(label, handler)
}

func (b *chainBuilder) RegisterOutbound(label string, handler OutboundHandler) Handle {
	return b.controller.RegisterOutboundHandler(label, handler)
}

// InstallMiddleware runs the middleware's Configure against this controller.
// Handlers registered before the middleware fails stay installed; callers that
// need all-or-nothing setup should configure on a fresh controller.
func (c *Controller) InstallMiddleware(mw Middleware) error {
	if err := mw.Configure(&chainBuilder{controller: c}, c.services); err != nil {
		c.services.Logger.Error("Pipeline middleware configuration failed",
			zap.String("channel", c.channelID()),
			zap.String("middleware", mw.Descriptor().Name),
			zap.Error(err))
		return err
	}
	return nil
}
