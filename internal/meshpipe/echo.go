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

package meshpipe

import (
	"go.uber.org/zap"

	"github.com/meshpipe/meshpipe/pkg/buffer"
	"github.com/meshpipe/meshpipe/pkg/pipeline"
)

// echoHandler is the terminal handler of the default pipeline. It writes
// every inbound message back to the peer and flushes once the read burst
// is complete.
type echoHandler struct {
	pipeline.BaseInboundHandler
}

func (h *echoHandler) Describe() pipeline.Descriptor {
	return pipeline.NewDescriptor("meshpipe.echo", "terminal", "echoes inbound payloads back to the peer")
}

func (h *echoHandler) OnRead(ctx pipeline.Context, msg buffer.Message) {
	// Emit through the controller so outbound middleware sees the echo.
	if _, err := ctx.Controller().EmitWrite(msg); err != nil {
		ctx.Logger().Error("Echo write failed",
			zap.String("channel", ctx.Channel().ID()),
			zap.Error(err))
	}
}

func (h *echoHandler) OnReadComplete(ctx pipeline.Context) {
	if err := ctx.Controller().EmitFlush(); err != nil {
		ctx.Logger().Error("Echo flush failed",
			zap.String("channel", ctx.Channel().ID()),
			zap.Error(err))
	}
}
