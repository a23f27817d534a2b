// Package events allows clients to register for and receive the stream of
// node events, such as blocks being produced and extrinsics entering the
// mempool.
package events

import (
	"fmt"
	"sync"
)

// A message is dropped when the subscriber is not keeping up; this buffer
// gives a websocket writer room before that happens.
const messageBuffer = 100

// Events maintains a mapping of subscriber ids to channels so goroutines
// can register and receive events.
type Events struct {
	mu   sync.RWMutex
	subs map[string]chan string
}

// New constructs an Events for registering and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Acquire registers the unique id and returns a channel for receiving
// events. Acquiring an existing id returns its current channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	evt.subs[id] = make(chan string, messageBuffer)
	return evt.subs[id]
}

// Release closes and removes the channel registered under id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Send delivers the message to every registered channel without blocking
// on any receiver.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Shutdown closes and removes every registered channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}
