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

// handlerEntry is one immutable node of a published chain. Entries are built
// once per mutation and shared between successive chain values; a replacement
// always produces a brand-new entry.
type handlerEntry struct {
	id         Handle
	label      string
	descriptor Descriptor
	direction  Direction
	inbound    InboundHandler
	outbound   OutboundHandler
}

// newEntry snapshots a capability handler into a chain node.
func newEntry(id Handle, label string, h Handler) *handlerEntry {
	return &handlerEntry{
		id:         id,
		label:      label,
		descriptor: h.Descriptor(),
		direction:  h.Direction(),
		inbound:    h.Inbound(),
		outbound:   h.Outbound(),
	}
}

// chainState is one published chain value together with the epoch it was
// committed under. A state is immutable once stored; mutations build a whole
// new state and swap the pointer, so readers always see entries and epoch
// that belong together.
type chainState struct {
	entries []*handlerEntry
	epoch   uint64
}

// chainHolder is the atomically swappable publication point for chain states.
// Loads never block; stores happen under the controller's mutation mutex.
type chainHolder struct {
	state atomic.Pointer[chainState]
}

func newChainHolder() *chainHolder {
	h := &chainHolder{}
	h.state.Store(&chainState{})
	return h
}

// load returns the current snapshot.
func (h *chainHolder) load() *chainState {
	return h.state.Load()
}

// commit publishes entries as the next chain state and returns the new epoch.
// Callers must hold the mutation mutex; the epoch increments exactly once per
// commit.
func (h *chainHolder) commit(entries []*handlerEntry) uint64 {
	next := &chainState{
		entries: entries,
		epoch:   h.state.Load().epoch + 1,
	}
	h.state.Store(next)
	return next.epoch
}

// epoch returns the current mutation generation.
func (h *chainHolder) epoch() uint64 {
	return h.state.Load().epoch
}
