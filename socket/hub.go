package socket

import (
	"context"
	"sync"
)

// hub sends messages to subscribers.
type hub struct {
	mu sync.Mutex
	// subs maps each subscriber to the done channel of its context.
	subs map[chan string]<-chan struct{}
}

// subscriberBuffer is the number of messages a subscriber can fall behind before the hub waits.
const subscriberBuffer = 16

func newHub() *hub {
	h := hub{
		subs: make(map[chan string]<-chan struct{}),
	}
	return &h
}

// subscribe adds a subscriber that is removed when the context is done.
func (h *hub) subscribe(ctx context.Context) <-chan string {
	ch := make(chan string, subscriberBuffer)
	done := ctx.Done()
	h.mu.Lock()
	h.subs[ch] = done
	h.mu.Unlock()
	go func() {
		<-done // BLOCKING
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// publish sends the text to all current subscribers, in order.
// Sending to a subscriber stops if its context is done or the stop channel is closed.
func (h *hub) publish(text string, stop <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, done := range h.subs {
		select {
		case ch <- text:
		case <-done:
		case <-stop:
			return
		}
	}
}
