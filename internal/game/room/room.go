// Package room provides room lifecycle, participant membership, ordered
// message broadcast, and the process-wide room registry.
package room

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/rolltable/internal/game/dice"
	"github.com/cory-johannsen/rolltable/internal/game/protocol"
	"github.com/cory-johannsen/rolltable/internal/observability"
)

// Room is one independently synchronized chat+dice session shared by a
// dynamic set of participants. All mutating operations on a Room are
// serialized by its mutex; operations on different rooms proceed in parallel.
type Room struct {
	id           string
	hostID       string
	passwordHash []byte

	mu           sync.Mutex
	participants map[string]*Outbox
	history      []protocol.Message

	onEmpty func(*Room)
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Summary is a display-only view of a live room.
type Summary struct {
	RoomID           string `json:"room_id"`
	HostID           string `json:"host_id"`
	Online           int    `json:"online"`
	PasswordRequired bool   `json:"password_required"`
}

func newRoom(id, hostID string, passwordHash []byte, onEmpty func(*Room), logger *zap.Logger, metrics *observability.Metrics) *Room {
	return &Room{
		id:           id,
		hostID:       hostID,
		passwordHash: passwordHash,
		participants: make(map[string]*Outbox),
		onEmpty:      onEmpty,
		logger:       logger,
		metrics:      metrics,
	}
}

// ID returns the room's immutable identifier.
func (r *Room) ID() string {
	return r.id
}

// HostID returns the creating user's identifier. Informational only; the
// host holds no privileged operations.
func (r *Room) HostID() string {
	return r.hostID
}

// PasswordRequired reports whether joining this room requires a password.
func (r *Room) PasswordRequired() bool {
	return len(r.passwordHash) > 0
}

// CheckPassword reports whether the attempt matches the room's password.
//
// Postcondition: Always true for rooms without a password.
func (r *Room) CheckPassword(attempt string) bool {
	if !r.PasswordRequired() {
		return true
	}
	return bcrypt.CompareHashAndPassword(r.passwordHash, []byte(attempt)) == nil
}

// Join attaches a participant's outbox and broadcasts the updated membership
// to every attached outbox, including the new one.
//
// A duplicate userID overwrites the prior entry (last writer wins): the
// prior outbox is closed and its connection's forwarder terminates.
//
// Precondition: userID must be non-empty; out must be non-nil and open.
func (r *Room) Join(userID string, out *Outbox) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.participants[userID]; ok {
		_ = prior.Close()
	} else {
		r.metrics.ParticipantJoined()
	}
	r.participants[userID] = out

	r.broadcastRoomInfoLocked()
}

// Leave detaches a participant, broadcasts the updated membership to the
// remainder, and, when the participant count drops from 1 to 0, removes the
// room from its registry as part of this call.
//
// Removal is conditional on identity: the entry is deleted only while it
// still maps to out. A session displaced by a re-join under the same user id
// therefore cannot detach its successor, no matter how the leave interleaves
// with the displacing join. Returns whether the participant was detached.
func (r *Room) Leave(userID string, out *Outbox) bool {
	r.mu.Lock()
	if r.participants[userID] != out {
		r.mu.Unlock()
		return false
	}
	delete(r.participants, userID)
	_ = out.Close()
	r.broadcastRoomInfoLocked()
	empty := len(r.participants) == 0
	r.mu.Unlock()

	r.metrics.ParticipantLeft()
	if empty && r.onEmpty != nil {
		r.onEmpty(r)
	}
	return true
}

// BroadcastMessage appends the message to history and fans a new_message
// event out to every attached outbox, sender included.
func (r *Room) BroadcastMessage(senderID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, protocol.Message{From: senderID, Text: text})
	r.fanOutLocked(protocol.NewChatMessage(senderID, text))
	r.metrics.MessageBroadcast()
}

// BroadcastRoll fans a dice_rolled event out to every attached outbox.
// It does not touch history; the accompanying narrative message does.
func (r *Room) BroadcastRoll(senderID string, formula protocol.Formula, result dice.RollResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fanOutLocked(protocol.NewDiceRolled(senderID, formula, result))
	r.metrics.RollResolved()
}

// History returns a copy of the full accumulated message log in order.
func (r *Room) History() []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Message(nil), r.history...)
}

// Snapshot returns a consistent display view of the room.
func (r *Room) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		RoomID:           r.id,
		HostID:           r.hostID,
		Online:           len(r.participants),
		PasswordRequired: r.PasswordRequired(),
	}
}

// RoomInfo returns a room_info event reflecting current membership.
func (r *Room) RoomInfo() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return protocol.NewRoomInfo(r.id, r.hostID, r.participantIDsLocked())
}

// Empty reports whether the room has no participants.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants) == 0
}

// broadcastRoomInfoLocked fans the current membership snapshot out to every
// attached outbox. Caller must hold r.mu.
func (r *Room) broadcastRoomInfoLocked() {
	r.fanOutLocked(protocol.NewRoomInfo(r.id, r.hostID, r.participantIDsLocked()))
}

// participantIDsLocked returns the sorted participant id list. Caller must hold r.mu.
func (r *Room) participantIDsLocked() []string {
	ids := make([]string, 0, len(r.participants))
	for uid := range r.participants {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids
}

// fanOutLocked pushes an event to every attached outbox. Push never blocks;
// a full or closed outbox drops the event for that participant only.
// Caller must hold r.mu.
func (r *Room) fanOutLocked(ev protocol.Event) {
	for uid, out := range r.participants {
		if err := out.Push(ev); err != nil {
			r.logger.Warn("dropping event for participant",
				zap.String("room_id", r.id),
				zap.String("user_id", uid),
				zap.Error(err),
			)
		}
	}
}
