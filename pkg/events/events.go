// Package events distributes mailbox events to subscribers. Each event kind
// has its own registration method with a typed payload; dispatch is
// synchronous and in registration order.
package events

import (
	"sync"

	"github.com/emersion/go-imap/v2"

	"github.com/mailwatch/mailwatch/pkg/base"
)

// Subscription is the handle returned by a registration. Cancel detaches the
// callback; it is safe to call more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

type messageHandler struct {
	id int
	fn func(base.Message)
}

type uidHandler struct {
	id int
	fn func(imap.UID)
}

// Bus fans events out to subscribers. The zero value is not usable; call
// NewBus.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	arrived []messageHandler
	loaded  []messageHandler
	removed []uidHandler
}

func NewBus() *Bus {
	return &Bus{}
}

// OnArrived registers a callback for messages discovered by a poll.
func (b *Bus) OnArrived(fn func(base.Message)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newID()
	b.arrived = append(b.arrived, messageHandler{id: id, fn: fn})
	return &Subscription{cancel: func() { b.dropMessageHandler(&b.arrived, id) }}
}

// OnLoaded registers a callback for the initial-load batch.
func (b *Bus) OnLoaded(fn func(base.Message)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newID()
	b.loaded = append(b.loaded, messageHandler{id: id, fn: fn})
	return &Subscription{cancel: func() { b.dropMessageHandler(&b.loaded, id) }}
}

// OnRemoved registers a callback for identifiers deleted through the
// mutation surface.
func (b *Bus) OnRemoved(fn func(imap.UID)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newID()
	b.removed = append(b.removed, uidHandler{id: id, fn: fn})
	return &Subscription{cancel: func() { b.dropUIDHandler(&b.removed, id) }}
}

// EmitArrived invokes every arrived subscriber synchronously, in
// registration order.
func (b *Bus) EmitArrived(msg base.Message) {
	for _, h := range b.snapshotMessage(&b.arrived) {
		h(msg)
	}
}

// EmitLoaded invokes every loaded subscriber synchronously, in registration
// order.
func (b *Bus) EmitLoaded(msg base.Message) {
	for _, h := range b.snapshotMessage(&b.loaded) {
		h(msg)
	}
}

// EmitRemoved invokes every removed subscriber synchronously, in
// registration order.
func (b *Bus) EmitRemoved(uid imap.UID) {
	for _, fn := range b.snapshotUID(&b.removed) {
		fn(uid)
	}
}

func (b *Bus) newID() int {
	b.nextID++
	return b.nextID
}

func (b *Bus) snapshotMessage(list *[]messageHandler) []func(base.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	handlers := make([]func(base.Message), 0, len(*list))
	for _, h := range *list {
		handlers = append(handlers, h.fn)
	}
	return handlers
}

func (b *Bus) snapshotUID(list *[]uidHandler) []func(imap.UID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	handlers := make([]func(imap.UID), 0, len(*list))
	for _, h := range *list {
		handlers = append(handlers, h.fn)
	}
	return handlers
}

func (b *Bus) dropMessageHandler(list *[]messageHandler, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range *list {
		if h.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

func (b *Bus) dropUIDHandler(list *[]uidHandler, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range *list {
		if h.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
