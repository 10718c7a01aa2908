// Package protocol defines the inbound action and outbound event wire types
// exchanged between clients and the session server.
package protocol

import (
	"encoding/json"
	"strconv"

	"github.com/cory-johannsen/rolltable/internal/game/dice"
)

// Inbound action discriminants.
const (
	ActionSendMessage    = "send_message"
	ActionGetChatHistory = "get_chat_history"
	ActionLeaveRoom      = "leave_room"
	ActionRollDice       = "roll_dice"
	ActionGetRoomInfo    = "get_room_info"
)

// Outbound event discriminants.
const (
	ActionRoomInfo   = "room_info"
	ActionNewMessage = "new_message"
	ActionDiceRolled = "dice_rolled"
)

// Protocol status values sent during session establishment and teardown.
const (
	StatusRoomNotFound      = "room_not_found"
	StatusPasswordRequired  = "password_required"
	StatusWrongPassword     = "wrong_password"
	StatusJoinedRoom        = "joined_room"
	StatusRoomCreated       = "room_created"
	StatusHostAlreadyExists = "host_already_has_room"
)

// Formula is the wire form of a dice formula. Dices keys are decimal die
// sizes ("2" through "20"); unknown keys are carried through but never rolled.
type Formula struct {
	Bonus int            `json:"bonus"`
	Dices map[string]int `json:"dices"`
}

// ToDice converts the wire formula into the resolver's domain formula.
// Keys that do not parse as integers are dropped (forgiving decode policy).
//
// Postcondition: Returns a Formula with only numeric sizes in Counts.
func (f Formula) ToDice() dice.Formula {
	counts := make(map[int]int, len(f.Dices))
	for key, count := range f.Dices {
		size, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		counts[size] = count
	}
	return dice.Formula{Bonus: f.Bonus, Counts: counts}
}

// Action is a decoded inbound client message. Fields beyond Action are
// populated only for the action they belong to; missing fields default to
// zero values rather than erroring.
type Action struct {
	Action   string   `json:"action"`
	Message  string   `json:"message,omitempty"`
	Password string   `json:"password,omitempty"`
	Formula  *Formula `json:"formula,omitempty"`
}

// DecodeAction unmarshals an inbound client frame.
//
// Postcondition: Returns the decoded Action, or an error for malformed JSON.
// Unrecognized action values decode successfully and are ignored upstream.
func DecodeAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// Event is implemented by every outbound event type.
type Event interface {
	isEvent()
}

// RoomInfo announces the room's current membership to all participants.
type RoomInfo struct {
	Action       string   `json:"action"`
	RoomID       string   `json:"room_id"`
	HostID       string   `json:"host_id"`
	Participants []string `json:"participants"`
}

func (RoomInfo) isEvent() {}

// NewRoomInfo builds a RoomInfo event with the action discriminant set.
func NewRoomInfo(roomID, hostID string, participants []string) RoomInfo {
	return RoomInfo{
		Action:       ActionRoomInfo,
		RoomID:       roomID,
		HostID:       hostID,
		Participants: participants,
	}
}

// NewMessage carries one chat message. Narrative announcements (joins,
// leaves, roll summaries) use an empty From.
type NewMessage struct {
	Action string `json:"action"`
	From   string `json:"from"`
	Text   string `json:"text"`
}

func (NewMessage) isEvent() {}

// NewChatMessage builds a NewMessage event with the action discriminant set.
func NewChatMessage(from, text string) NewMessage {
	return NewMessage{Action: ActionNewMessage, From: from, Text: text}
}

// DiceRolled carries a structured roll result alongside the client's formula.
type DiceRolled struct {
	Action      string           `json:"action"`
	From        string           `json:"from"`
	Formula     Formula          `json:"formula"`
	DicesResult map[string][]int `json:"dices_result"`
	Total       int              `json:"total"`
}

func (DiceRolled) isEvent() {}

// NewDiceRolled builds a DiceRolled event from a resolver result.
//
// Postcondition: DicesResult has a key for every fixed die size, mapping to
// an empty array when that size was not rolled.
func NewDiceRolled(from string, formula Formula, result dice.RollResult) DiceRolled {
	dicesResult := make(map[string][]int, len(result.Dice))
	for size, draws := range result.Dice {
		dicesResult[strconv.Itoa(size)] = draws
	}
	return DiceRolled{
		Action:      ActionDiceRolled,
		From:        from,
		Formula:     formula,
		DicesResult: dicesResult,
		Total:       result.Total,
	}
}

// Message is one history entry.
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// History is the full-chat-log reply to get_chat_history.
type History struct {
	Messages []Message `json:"messages"`
}

func (History) isEvent() {}

// Status is a protocol status event (room_not_found, password_required,
// wrong_password, joined_room).
type Status struct {
	Status string `json:"status"`
}

func (Status) isEvent() {}
