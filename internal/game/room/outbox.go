package room

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/rolltable/internal/game/protocol"
)

// Outbox is a participant's bounded outbound event queue. The room fans
// events out with a non-blocking push, so a slow consumer fills its own
// queue without ever stalling broadcast to other participants.
type Outbox struct {
	userID string
	events chan protocol.Event
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given participant.
//
// Precondition: userID must be non-empty.
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(userID string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		userID: userID,
		events: make(chan protocol.Event, bufferSize),
	}
}

// UserID returns the participant's identifier.
func (o *Outbox) UserID() string {
	return o.userID
}

// Push enqueues an event without blocking.
//
// Postcondition: The event is enqueued, or an error if the outbox is closed or full.
func (o *Outbox) Push(ev protocol.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox for %s is closed", o.userID)
	}
	select {
	case o.events <- ev:
		return nil
	default:
		return fmt.Errorf("outbox for %s is full", o.userID)
	}
}

// Events returns the read-only events channel. The connection's forwarder
// goroutine drains this channel and writes events to the wire.
func (o *Outbox) Events() <-chan protocol.Event {
	return o.events
}

// Close marks the outbox as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
