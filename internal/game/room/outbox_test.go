package room_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rolltable/internal/game/protocol"
	"github.com/cory-johannsen/rolltable/internal/game/room"
)

func TestOutboxPushAndReceive(t *testing.T) {
	out := room.NewOutbox("alice", 2)
	assert.Equal(t, "alice", out.UserID())

	require.NoError(t, out.Push(protocol.Status{Status: protocol.StatusJoinedRoom}))
	ev := <-out.Events()
	status, ok := ev.(protocol.Status)
	require.True(t, ok)
	assert.Equal(t, protocol.StatusJoinedRoom, status.Status)
}

func TestOutboxPushFullDoesNotBlock(t *testing.T) {
	out := room.NewOutbox("alice", 1)
	require.NoError(t, out.Push(protocol.Status{Status: "one"}))
	err := out.Push(protocol.Status{Status: "two"})
	assert.Error(t, err, "push on a full outbox must fail instead of blocking")
}

func TestOutboxPushAfterClose(t *testing.T) {
	out := room.NewOutbox("alice", 1)
	require.NoError(t, out.Close())
	assert.True(t, out.IsClosed())
	assert.Error(t, out.Push(protocol.Status{Status: "late"}))
}

func TestOutboxCloseIsIdempotent(t *testing.T) {
	out := room.NewOutbox("alice", 1)
	require.NoError(t, out.Close())
	assert.NotPanics(t, func() { _ = out.Close() })
}

func TestOutboxDefaultBuffer(t *testing.T) {
	out := room.NewOutbox("alice", 0)
	// Zero and negative sizes fall back to a usable default.
	assert.NoError(t, out.Push(protocol.Status{Status: "ok"}))
}
