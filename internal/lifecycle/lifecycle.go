// Package lifecycle broadcasts foreground/background transitions of the app.
package lifecycle

import (
	"sort"
	"sync"
)

// State is the app's visibility.
type State int

const (
	Active State = iota
	Inactive
	Background
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// Source is what a session subscribes to.
type Source interface {
	Subscribe(fn func(State)) (unsubscribe func())
}

// Hub fans out state changes to subscribers. Repeated publishes of the
// current state are dropped.
type Hub struct {
	mu    sync.Mutex
	state State
	next  int
	subs  map[int]func(State)
}

// NewHub returns a hub in the Active state.
func NewHub() *Hub {
	return &Hub{subs: map[int]func(State){}}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn func(State)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish records the state and notifies subscribers in subscription order.
func (h *Hub) Publish(s State) {
	h.mu.Lock()
	if s == h.state {
		h.mu.Unlock()
		return
	}
	h.state = s
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Current returns the last published state.
func (h *Hub) Current() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
