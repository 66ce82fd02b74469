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

// Package pipeline implements a hot-swappable event-dispatch pipeline: an
// ordered, directional chain of handlers that channel events and messages
// flow through, restructurable at runtime without blocking in-flight
// dispatch.
//
// The chain is published as an immutable snapshot behind one atomic pointer.
// Dispatch pins the snapshot it starts with and walks it to the end, so a
// concurrent add, remove, or replace never tears a traversal; mutations
// serialize on a single writer mutex, build a full replacement chain, and
// swap the pointer.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Metric and log identifiers for mutation observability.
const (
	metricPipelineEpoch  = "pipeline_epoch"
	metricMutationsTotal = "pipeline_mutations_total"
)

// mutationKind labels the structural change a commit performed.
type mutationKind string

const (
	mutationAdd     mutationKind = "add"
	mutationRemove  mutationKind = "remove"
	mutationReplace mutationKind = "replace"
)

// Controller owns one handler chain and is the externally visible pipeline
// surface: handler registration, hot-swap mutations, event dispatch, and
// introspection. Dispatch methods may be called from any number of
// goroutines; mutations may run concurrently with dispatch and with each
// other.
type Controller struct {
	channel  Channel
	services *Services
	callCtx  context.Context
	chain    *chainHolder
	registry *Registry
	sequence atomic.Uint64
	mu       sync.Mutex // serializes copy-compute-commit; never held during dispatch
}

// NewController builds a controller for one channel. The services bundle is
// shared with every dispatch context; callCtx rides along opaquely and is
// surfaced to handlers via Context.CallContext.
func NewController(channel Channel, services *Services, callCtx context.Context) *Controller {
	if services == nil {
		services = NewServices(Services{})
	}
	if callCtx == nil {
		callCtx = context.Background()
	}

	c := &Controller{
		channel:  channel,
		services: services,
		callCtx:  callCtx,
		chain:    newChainHolder(),
		registry: newRegistry(),
	}
	// Sequence numbers start at 1 so minted handles never equal an anchor.
	c.sequence.Store(1)
	return c
}

// Channel returns the channel this controller drives.
func (c *Controller) Channel() Channel {
	return c.channel
}

// Services returns the collaborator bundle.
func (c *Controller) Services() *Services {
	return c.services
}

// Registry returns the read-only handler listing.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Epoch returns the current mutation generation. It increases by exactly one
// per successful mutation and never decreases.
func (c *Controller) Epoch() uint64 {
	return c.chain.epoch()
}

// RegisterInboundHandler appends an inbound handler after the last inbound
// entry and returns its handle.
func (c *Controller) RegisterInboundHandler(label string, h InboundHandler) Handle {
	return c.appendHandler(label, FromInbound(h))
}

// RegisterOutboundHandler appends an outbound handler after the last
// outbound entry and returns its handle.
func (c *Controller) RegisterOutboundHandler(label string, h OutboundHandler) Handle {
	return c.appendHandler(label, FromOutbound(h))
}

// RegisterDuplexHandler appends a duplex handler; placement follows its
// primary (inbound) direction.
func (c *Controller) RegisterDuplexHandler(label string, h DuplexHandler) Handle {
	return c.appendHandler(label, FromDuplex(h))
}

// AddHandlerAfter inserts a handler after the entry identified by anchor and
// returns the new handle. When anchor is the direction's head, the handler
// becomes the new front of that direction's sub-chain. An anchor that no
// longer resolves falls back to appending at the end of the chain.
func (c *Controller) AddHandlerAfter(anchor Handle, label string, h Handler) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.chain.load()
	entries := cloneEntries(current.entries)
	direction := h.Direction()
	index := locateInsertionIndex(entries, anchor, direction)
	id := c.nextHandle(direction)
	entries = insertEntry(entries, index, newEntry(id, label, h))
	c.commit(entries, mutationAdd, label, id)
	return id
}

// RemoveHandler deletes the entry identified by handle. Anchors and unknown
// handles are routine no-ops reported as false.
func (c *Controller) RemoveHandler(handle Handle) bool {
	if handle.IsAnchor() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.chain.load()
	pos := findByHandle(current.entries, handle)
	if pos < 0 {
		return false
	}

	entries := cloneEntries(current.entries)
	entries = append(entries[:pos], entries[pos+1:]...)
	c.commit(entries, mutationRemove, current.entries[pos].label, handle)
	return true
}

// ReplaceHandler swaps the entry identified by handle for a new
// implementation, keeping the handle. The replacement must match the
// existing entry's direction; on mismatch nothing changes and false is
// returned. The entry's label and descriptor are taken from the replacement's
// own descriptor, so the registry reflects the live implementation.
func (c *Controller) ReplaceHandler(handle Handle, h Handler) bool {
	if handle.IsAnchor() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.chain.load()
	pos := findByHandle(current.entries, handle)
	if pos < 0 {
		return false
	}
	if current.entries[pos].direction != h.Direction() {
		return false
	}

	entries := cloneEntries(current.entries)
	label := h.Descriptor().Name
	entries[pos] = newEntry(handle, label, h)
	c.commit(entries, mutationReplace, label, handle)
	return true
}

// appendHandler places h after the last entry of its direction, or at the
// chain's end when that direction is still empty.
func (c *Controller) appendHandler(label string, h Handler) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.chain.load()
	entries := cloneEntries(current.entries)
	direction := h.Direction()

	index := len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].direction == direction {
			index = i + 1
			break
		}
	}

	id := c.nextHandle(direction)
	entries = insertEntry(entries, index, newEntry(id, label, h))
	c.commit(entries, mutationAdd, label, id)
	return id
}

// nextHandle mints a fresh handle for the direction.
func (c *Controller) nextHandle(d Direction) Handle {
	return newHandle(d, c.sequence.Add(1)-1)
}

// commit publishes the new chain, rebuilds the registry from it, and records
// the mutation. Must be called with c.mu held.
func (c *Controller) commit(entries []*handlerEntry, kind mutationKind, label string, handle Handle) {
	epoch := c.chain.commit(entries)
	c.registry.update(buildRegistrations(entries))

	channelID := c.channelID()
	c.services.Metrics.SetGauge(metricPipelineEpoch, float64(epoch),
		map[string]string{"channel": channelID})
	c.services.Metrics.IncrementCounter(metricMutationsTotal,
		map[string]string{"op": string(kind)})

	c.services.Logger.Info("Pipeline mutation applied",
		zap.String("channel", channelID),
		zap.String("op", string(kind)),
		zap.String("label", label),
		zap.Uint64("handle", handle.Raw()),
		zap.Uint64("epoch", epoch))
}

// Status is a point-in-time view of one pipeline, suitable for admin and
// debug surfaces.
type Status struct {
	ChannelID string         `json:"channel_id"`
	State     string         `json:"state"`
	Epoch     uint64         `json:"epoch"`
	Handlers  []Registration `json:"handlers"`
}

// Status reports the controller's current chain and epoch. Epoch and handler
// list are read independently; under concurrent mutation they may straddle a
// commit.
func (c *Controller) Status() Status {
	s := Status{
		Epoch:    c.Epoch(),
		Handlers: c.registry.Snapshot(),
	}
	if c.channel != nil {
		s.ChannelID = c.channel.ID()
		s.State = c.channel.State().String()
	}
	return s
}

func buildRegistrations(entries []*handlerEntry) []Registration {
	regs := make([]Registration, 0, len(entries))
	for _, e := range entries {
		regs = append(regs, Registration{
			Handle:     e.id,
			Label:      e.label,
			Descriptor: e.descriptor,
			Direction:  e.direction,
		})
	}
	return regs
}

// cloneEntries copies the slice only; entries themselves are shared between
// chain generations.
func cloneEntries(entries []*handlerEntry) []*handlerEntry {
	out := make([]*handlerEntry, len(entries))
	copy(out, entries)
	return out
}

func insertEntry(entries []*handlerEntry, index int, e *handlerEntry) []*handlerEntry {
	entries = append(entries, nil)
	copy(entries[index+1:], entries[index:])
	entries[index] = e
	return entries
}

func findByHandle(entries []*handlerEntry, handle Handle) int {
	for i, e := range entries {
		if e.id == handle {
			return i
		}
	}
	return -1
}

// locateInsertionIndex resolves an anchor to the index a new entry of the
// given direction should be inserted at. Anchors branch on their reserved
// tag; a real handle resolves to one past its position, or end-of-chain when
// it is no longer present.
func locateInsertionIndex(entries []*handlerEntry, anchor Handle, direction Direction) int {
	if anchor.IsAnchor() {
		for i, e := range entries {
			if e.direction == direction {
				return i
			}
		}
		return len(entries)
	}
	if pos := findByHandle(entries, anchor); pos >= 0 {
		return pos + 1
	}
	return len(entries)
}
