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

import "sync/atomic"

// Registration is one row of the registry: the externally visible metadata of
// an installed handler.
type Registration struct {
	// Handle locates the handler for hot-swap operations.
	Handle Handle `json:"handle"`
	// Label is the name the handler was registered under.
	Label string `json:"label"`
	// Descriptor is the handler's static metadata.
	Descriptor Descriptor `json:"descriptor"`
	// Direction is the handler's primary direction.
	Direction Direction `json:"direction"`
}

// Registry is a read-only projection of the current chain, rebuilt on every
// committed mutation. Reads never lock; they may trail the newest in-flight
// commit by one publication but always return an internally consistent list.
type Registry struct {
	snapshot atomic.Pointer[[]Registration]
}

func newRegistry() *Registry {
	r := &Registry{}
	empty := make([]Registration, 0)
	r.snapshot.Store(&empty)
	return r
}

// Snapshot returns the handler listing current as of the most recent commit,
// in chain traversal order. The returned slice is the caller's to keep.
func (r *Registry) Snapshot() []Registration {
	current := *r.snapshot.Load()
	out := make([]Registration, len(current))
	copy(out, current)
	return out
}

// update publishes a freshly built listing. Called by the controller with the
// mutation mutex held.
func (r *Registry) update(regs []Registration) {
	r.snapshot.Store(&regs)
}
