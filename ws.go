package main

import (
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Hub fans dispatched events out to websocket subscribers. It is the
// one structure shared between the dispatch loop (publisher) and the
// HTTP goroutines (subscribers), hence the lock.
type Hub struct {
	mu   sync.Mutex
	subs map[chan map[string]interface{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan map[string]interface{}]struct{})}
}

func (h *Hub) Subscribe() chan map[string]interface{} {
	ch := make(chan map[string]interface{}, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan map[string]interface{}) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Broadcast delivers to every subscriber without blocking the
// dispatch loop; slow consumers lose events.
func (h *Hub) Broadcast(note map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- note:
		default:
		}
	}
}

// makeWSHandler upgrades the request and streams hub events until the
// client goes away.
func makeWSHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Printf("connect error: %v", err)
			return
		}
		log.Printf("connect: %s %s", r.URL.Path, r.RemoteAddr)
		defer log.Printf("disconnect: %s", r.RemoteAddr)
		defer c.Close(websocket.StatusInternalError, "")

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		ctx := r.Context()
		for {
			select {
			case note := <-ch:
				if err := wsjson.Write(ctx, c, note); err != nil {
					return
				}
			case <-ctx.Done():
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}
