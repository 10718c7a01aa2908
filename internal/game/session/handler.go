package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rolltable/internal/game/dice"
	"github.com/cory-johannsen/rolltable/internal/game/protocol"
	"github.com/cory-johannsen/rolltable/internal/game/room"
)

// Roller resolves dice formulas for roll_dice actions. *dice.Roller is the
// production implementation; tests substitute a deterministic one.
type Roller interface {
	Resolve(f dice.Formula) dice.RollResult
}

// Handler builds sessions bound to the process-wide registry and roller.
type Handler struct {
	rooms        *room.Registry
	roller       Roller
	outboxBuffer int
	logger       *zap.Logger
}

// NewHandler creates a session Handler.
//
// Precondition: rooms, roller, and logger must be non-nil; outboxBuffer must be >= 1.
func NewHandler(rooms *room.Registry, roller Roller, outboxBuffer int, logger *zap.Logger) *Handler {
	return &Handler{
		rooms:        rooms,
		roller:       roller,
		outboxBuffer: outboxBuffer,
		logger:       logger,
	}
}

// Session is one connected client's protocol state within a room.
// RoomID and UserID are bound once at setup and immutable thereafter.
type Session struct {
	h      *Handler
	conn   Conn
	roomID string
	userID string

	mu    sync.Mutex
	state State

	room   *room.Room
	outbox *room.Outbox
}

// NewSession binds a connection to a room id and user id.
//
// Precondition: conn must be non-nil; roomID and userID must be non-empty.
func (h *Handler) NewSession(conn Conn, roomID, userID string) *Session {
	return &Session{
		h:      h,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		state:  StateConnecting,
	}
}

// State returns the session's current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run drives the session to completion. It blocks until the client leaves,
// disconnects, or fails protocol establishment, and always leaves the
// session in StateClosed with no participant entry or registry slot behind.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		_ = s.conn.Close()
		s.setState(StateClosed)
	}()

	logger := s.h.logger.With(
		zap.String("room_id", s.roomID),
		zap.String("user_id", s.userID),
	)

	r, ok := s.h.rooms.Lookup(s.roomID)
	if !ok {
		logger.Debug("room not found")
		_ = s.conn.Send(ctx, protocol.Status{Status: protocol.StatusRoomNotFound})
		return
	}
	s.room = r

	if r.PasswordRequired() {
		if !s.authenticate(ctx, logger) {
			return
		}
	}

	if err := s.conn.Send(ctx, protocol.Status{Status: protocol.StatusJoinedRoom}); err != nil {
		logger.Debug("send failed before join", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.outbox = room.NewOutbox(s.userID, s.h.outboxBuffer)
	r.Join(s.userID, s.outbox)
	s.setState(StateJoined)
	logger.Info("participant joined")

	// Forward outbox events to the wire. The forwarder exits when the outbox
	// closes (leave or re-join displacement) or a send fails; either way it
	// cancels the session so the receive loop unblocks and cleans up.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for ev := range s.outbox.Events() {
			if err := s.conn.Send(ctx, ev); err != nil {
				logger.Debug("forwarder send failed", zap.Error(err))
				return
			}
		}
	}()

	r.BroadcastMessage("", s.userID+" has joined the room.")

	s.actionLoop(ctx, logger)

	cancel()
	wg.Wait()
	logger.Info("participant disconnected")
}

// authenticate runs the single-attempt password exchange.
//
// Postcondition: Returns true and leaves the session ready to join, or sends
// the failure status and returns false. There is no retry: a wrong password
// terminates the session.
func (s *Session) authenticate(ctx context.Context, logger *zap.Logger) bool {
	s.setState(StateAwaitingPassword)

	if err := s.conn.Send(ctx, protocol.Status{Status: protocol.StatusPasswordRequired}); err != nil {
		return false
	}

	data, err := s.conn.Receive(ctx)
	if err != nil {
		logger.Debug("disconnect while awaiting password", zap.Error(err))
		return false
	}

	attempt, err := protocol.DecodeAction(data)
	if err != nil || !s.room.CheckPassword(attempt.Password) {
		logger.Info("wrong password")
		_ = s.conn.Send(ctx, protocol.Status{Status: protocol.StatusWrongPassword})
		return false
	}
	return true
}

// actionLoop dispatches inbound actions until the client leaves or the
// connection drops. An abrupt disconnect runs the same cleanup as an
// explicit leave_room.
func (s *Session) actionLoop(ctx context.Context, logger *zap.Logger) {
	for {
		data, err := s.conn.Receive(ctx)
		if err != nil {
			logger.Debug("receive failed, treating as leave", zap.Error(err))
			s.leave()
			return
		}

		action, err := protocol.DecodeAction(data)
		if err != nil {
			// Malformed frames are ignored, matching the forgiving
			// default-zero policy of the formula decoder.
			logger.Debug("ignoring malformed action", zap.Error(err))
			continue
		}

		switch action.Action {
		case protocol.ActionSendMessage:
			s.room.BroadcastMessage(s.userID, action.Message)

		case protocol.ActionGetChatHistory:
			s.reply(logger, protocol.History{Messages: s.room.History()})

		case protocol.ActionGetRoomInfo:
			s.reply(logger, s.room.RoomInfo())

		case protocol.ActionRollDice:
			s.rollDice(action)

		case protocol.ActionLeaveRoom:
			s.leave()
			return

		default:
			logger.Debug("ignoring unknown action", zap.String("action", action.Action))
		}
	}
}

// rollDice resolves the formula, announces the result as a narrative chat
// message, and broadcasts the structured roll event.
func (s *Session) rollDice(action protocol.Action) {
	var formula protocol.Formula
	if action.Formula != nil {
		formula = *action.Formula
	}

	df := formula.ToDice()
	result := s.h.roller.Resolve(df)

	var narrative string
	if df.IsCoinFlip() {
		narrative = fmt.Sprintf("%s flipped a coin: %d", s.userID, result.Total)
	} else {
		narrative = fmt.Sprintf("%s rolled the dice %s: %d", s.userID, df, result.Total)
	}
	s.room.BroadcastMessage("", narrative)
	s.room.BroadcastRoll(s.userID, formula, result)
}

// reply routes a direct response through the outbox so it is ordered with
// concurrent broadcasts.
func (s *Session) reply(logger *zap.Logger, ev protocol.Event) {
	if err := s.outbox.Push(ev); err != nil {
		logger.Warn("dropping reply", zap.Error(err))
	}
}

// leave detaches from the room (which may remove the room from the registry)
// and announces the departure to any remaining participants.
//
// Room.Leave only detaches the entry still bound to this session's outbox.
// When a re-join under the same user id has displaced this session, the entry
// belongs to the successor, Leave reports false, and no departure is
// announced.
func (s *Session) leave() {
	if !s.room.Leave(s.userID, s.outbox) {
		return
	}
	s.room.BroadcastMessage("", s.userID+" has left the room.")
}
