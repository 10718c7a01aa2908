package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus instruments.
// All methods are safe to call on a nil receiver, so components that do not
// need metrics (tests, tools) can pass nil.
type Metrics struct {
	roomsActive  prometheus.Gauge
	participants prometheus.Gauge
	messages     prometheus.Counter
	rolls        prometheus.Counter
}

// NewMetrics registers the server's instruments with the given registerer.
//
// Precondition: reg must be non-nil.
// Postcondition: Returns a Metrics with all instruments registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rolltable_rooms_active",
			Help: "Number of live rooms in the registry.",
		}),
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rolltable_participants_connected",
			Help: "Number of participants currently joined to a room.",
		}),
		messages: factory.NewCounter(prometheus.CounterOpts{
			Name: "rolltable_messages_total",
			Help: "Total chat messages broadcast, including narratives.",
		}),
		rolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "rolltable_rolls_total",
			Help: "Total dice rolls resolved.",
		}),
	}
}

// RoomCreated records a new live room.
func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.roomsActive.Inc()
}

// RoomRemoved records a room leaving the registry.
func (m *Metrics) RoomRemoved() {
	if m == nil {
		return
	}
	m.roomsActive.Dec()
}

// ParticipantJoined records a participant joining a room.
func (m *Metrics) ParticipantJoined() {
	if m == nil {
		return
	}
	m.participants.Inc()
}

// ParticipantLeft records a participant leaving a room.
func (m *Metrics) ParticipantLeft() {
	if m == nil {
		return
	}
	m.participants.Dec()
}

// MessageBroadcast records one chat message fan-out.
func (m *Metrics) MessageBroadcast() {
	if m == nil {
		return
	}
	m.messages.Inc()
}

// RollResolved records one dice roll resolution.
func (m *Metrics) RollResolved() {
	if m == nil {
		return
	}
	m.rolls.Inc()
}
