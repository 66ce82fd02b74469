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
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// Logging logs channel lifecycle, inbound traffic, and outbound traffic at
// debug level, plus exceptions at error level.
type Logging struct{}

// NewLogging creates the middleware.
func NewLogging() *Logging {
	return &Logging{}
}

// Descriptor identifies the middleware.
func (l *Logging) Descriptor() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.logging", "observability", "structured traffic logging")
}

// Configure installs the inbound and outbound logging handlers.
func (l *Logging) Configure(chain pipeline.ChainBuilder, services *pipeline.Services) error {
	chain.RegisterInbound("logging-in", &loggingInbound{})
	chain.RegisterOutbound("logging-out", &loggingOutbound{})
	return nil
}

type loggingInbound struct {
	pipeline.BaseInboundHandler
}

func (h *loggingInbound) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.logging.inbound", "observability", "logs inbound events")
}

func (h *loggingInbound) OnChannelActive(ctx pipeline.Context) {
	ctx.Logger().Info("Channel active",
		zap.String("channel", ctx.Channel().ID()))
}

func (h *loggingInbound) OnRead(ctx pipeline.Context, msg buffer.Message) {
	ctx.Logger().Debug("Message received",
		zap.String("channel", ctx.Channel().ID()),
		zap.Int("size", msg.Len()))
	ctx.ForwardRead(msg)
}

func (h *loggingInbound) OnUserEvent(ctx pipeline.Context, event pipeline.UserEvent) {
	ctx.Logger().Debug("User event",
		zap.String("channel", ctx.Channel().ID()),
		zap.String("kind", event.Kind))
}

func (h *loggingInbound) OnExceptionCaught(ctx pipeline.Context, err error) {
	ctx.Logger().Error("Channel exception",
		zap.String("channel", ctx.Channel().ID()),
		zap.Error(err))
}

func (h *loggingInbound) OnChannelInactive(ctx pipeline.Context) {
	ctx.Logger().Info("Channel inactive",
		zap.String("channel", ctx.Channel().ID()))
}

type loggingOutbound struct {
	pipeline.BaseOutboundHandler
}

func (h *loggingOutbound) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.logging.outbound", "observability", "logs outbound writes")
}

func (h *loggingOutbound) OnWrite(ctx pipeline.Context, msg buffer.Message) (pipeline.WriteSignal, error) {
	ctx.Logger().Debug("Message written",
		zap.String("channel", ctx.Channel().ID()),
		zap.Int("size", msg.Len()))
	return ctx.ForwardWrite(msg)
}
