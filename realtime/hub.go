// Package realtime fans answer events out to live listeners over WebSocket.
package realtime

import "sync"

// subscriber buffers outbound payloads for one connection. The buffer is
// small on purpose: a listener that cannot keep up is skipped, matching the
// at-most-once, best-effort delivery contract.
type subscriber struct {
	ch chan []byte
}

// Hub routes payloads to subscribers keyed by channel name. Safe for
// concurrent use.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*subscriber]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a listener on channel and returns the payload stream
// plus an unsubscribe func. The stream is closed on unsubscribe.
func (h *Hub) Subscribe(channel string) (<-chan []byte, func()) {
	sub := &subscriber{ch: make(chan []byte, 16)}

	h.mu.Lock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.channels[channel]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.channels, channel)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Broadcast delivers payload to every current listener of channel and returns
// the number of listeners reached. Listeners with a full buffer are skipped;
// nothing blocks the caller.
func (h *Hub) Broadcast(channel string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.channels[channel] {
		select {
		case sub.ch <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

// Listeners reports the number of current subscribers of channel.
func (h *Hub) Listeners(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
