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

package buffer

// Message is the unit of payload that flows through a pipeline. The value is
// a thin view over a byte slice; copying a Message shares the underlying
// bytes, which keeps broadcast delivery cheap. Handlers that need to retain a
// payload past the current dispatch must Clone it.
type Message struct {
	payload []byte
}

// NewMessage wraps payload in a Message without copying.
func NewMessage(payload []byte) Message {
	return Message{payload: payload}
}

// Bytes returns the underlying payload. Callers must not mutate it while the
// message is still in flight.
func (m Message) Bytes() []byte {
	return m.payload
}

// Len returns the payload length in bytes.
func (m Message) Len() int {
	return len(m.payload)
}

// IsEmpty reports whether the message carries no payload.
func (m Message) IsEmpty() bool {
	return len(m.payload) == 0
}

// Clone returns a Message backed by a fresh copy of the payload.
func (m Message) Clone() Message {
	if m.payload == nil {
		return Message{}
	}
	dup := make([]byte, len(m.payload))
	copy(dup, m.payload)
	return Message{payload: dup}
}

// String renders the payload as text, for logging and tests.
func (m Message) String() string {
	return string(m.payload)
}
