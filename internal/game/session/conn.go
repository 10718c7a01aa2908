// Package session drives one client connection through the join, password,
// interact, and leave phases of the room protocol.
package session

import (
	"context"

	"github.com/cory-johannsen/rolltable/internal/game/protocol"
)

// Conn is the generic bidirectional channel a session is driven over.
// The websocket adapter in internal/server implements it; tests use an
// in-memory fake.
type Conn interface {
	// Send writes one outbound event to the client.
	Send(ctx context.Context, ev protocol.Event) error
	// Receive blocks for the next inbound frame. It returns an error on
	// disconnect or context cancellation.
	Receive(ctx context.Context) ([]byte, error)
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// State is a session's position in the connection protocol.
type State int

// Session protocol states. Transitions only move forward: Connecting,
// AwaitingPassword, Joined, Closed, with AwaitingPassword skipped for rooms
// without a password.
const (
	StateConnecting State = iota
	StateAwaitingPassword
	StateJoined
	StateClosed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingPassword:
		return "awaiting_password"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
