// Package events allows for the registering and receiving of ledger events.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Since a message will be dropped if the websocket receiver is not ready to
// receive, this buffer gives a slow receiver time to catch up.
const messageBuffer = 100

// Event is a single message published to subscribers.
type Event struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Events maintains a mapping of subscriber id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan Event
	mu sync.RWMutex
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Subscribe registers a new subscriber and returns its id and the channel
// the events are delivered on.
func (evt *Events) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	return id, evt.Acquire(id)
}

// Acquire returns the channel for the id, creating it when the id is new.
func (evt *Events) Acquire(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		ch = make(chan Event, messageBuffer)
		evt.m[id] = ch
	}

	return ch
}

// Release closes and removes the channel for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send delivers the message to every subscriber. Send never blocks, a
// subscriber with a full buffer misses the message.
func (evt *Events) Send(msg string) {
	e := Event{
		Time:    time.Now().UTC(),
		Message: msg,
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- e:
		default:
		}
	}
}
