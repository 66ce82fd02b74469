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

import "encoding/json"

// Direction distinguishes the inbound and outbound halves of a handler chain.
type Direction int

const (
	// DirectionInbound marks handlers on the transport-to-application path.
	DirectionInbound Direction = iota
	// DirectionOutbound marks handlers on the application-to-transport path.
	DirectionOutbound
)

// MarshalJSON renders the direction as its name.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// String returns the direction name for logs and registry output.
func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Handle identifies one installed handler within a controller. The low bit
// encodes the direction (0 inbound, 1 outbound); the remaining bits carry a
// per-controller sequence number. Handles are never reused within a
// controller's lifetime.
//
// Two reserved values act as virtual anchors: they name the position before
// the first handler of a direction and never correspond to a real entry.
type Handle uint64

const (
	// InboundHead is the anchor for inserting at the front of the inbound
	// sub-chain.
	InboundHead Handle = 0
	// OutboundHead is the anchor for the outbound sub-chain.
	OutboundHead Handle = 1
)

// Head returns the anchor handle for the given direction.
func Head(d Direction) Handle {
	if d == DirectionOutbound {
		return OutboundHead
	}
	return InboundHead
}

// IsAnchor reports whether the handle is one of the two reserved anchors.
func (h Handle) IsAnchor() bool {
	return h == InboundHead || h == OutboundHead
}

// Direction returns the direction a handle belongs to. Anchors report the
// direction they were minted for.
func (h Handle) Direction() Direction {
	switch {
	case h == InboundHead:
		return DirectionInbound
	case h == OutboundHead:
		return DirectionOutbound
	case h&1 == 0:
		return DirectionInbound
	default:
		return DirectionOutbound
	}
}

// Raw exposes the encoded value for logs and debugging tools.
func (h Handle) Raw() uint64 {
	return uint64(h)
}

// newHandle packs a direction and sequence number into a handle. Sequence
// numbers start at 1, so encoded values never collide with the anchors.
func newHandle(d Direction, sequence uint64) Handle {
	var bit uint64
	if d == DirectionOutbound {
		bit = 1
	}
	return Handle(sequence<<1 | bit)
}
