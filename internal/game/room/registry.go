package room

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/rolltable/internal/observability"
)

// Registry is the process-wide collection of live rooms. Its mutex guards
// only the id map and is independent of any individual room's lock; List and
// Remove acquire room locks while holding the registry lock, and rooms call
// back into Remove only after releasing their own lock.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must be non-nil. metrics may be nil.
func NewRegistry(logger *zap.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		logger:  logger,
		metrics: metrics,
	}
}

// Create allocates a room for the given host, or returns the host's existing
// room. Duplicate-host policy: one live room per host id; a second create
// request returns the existing room with created == false.
//
// An empty password creates an open room; otherwise the password is stored
// as a bcrypt hash.
//
// Precondition: hostID must be non-empty.
// Postcondition: Returns a live registered room, whether created or reused.
func (g *Registry) Create(hostID, password string) (*Room, bool, error) {
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, fmt.Errorf("hashing room password: %w", err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, r := range g.rooms {
		if r.hostID == hostID {
			return r, false, nil
		}
	}

	id := uuid.NewString()
	for g.rooms[id] != nil {
		id = uuid.NewString()
	}

	r := newRoom(id, hostID, hash, g.Remove, g.logger, g.metrics)
	g.rooms[id] = r
	g.metrics.RoomCreated()
	g.logger.Info("room created",
		zap.String("room_id", id),
		zap.String("host_id", hostID),
		zap.Bool("password_required", r.PasswordRequired()),
	)
	return r, true, nil
}

// Lookup returns the live room with the given id.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (g *Registry) Lookup(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

// List returns a display summary of every live room.
//
// Postcondition: Returns a slice of summaries (may be empty, never nil).
func (g *Registry) List() []Summary {
	g.mu.Lock()
	defer g.mu.Unlock()

	summaries := make([]Summary, 0, len(g.rooms))
	for _, r := range g.rooms {
		summaries = append(summaries, r.Snapshot())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RoomID < summaries[j].RoomID })
	return summaries
}

// Remove deletes the room from the registry if it is still registered and
// still empty. Rooms invoke this through their empty hook when the last
// participant leaves; the re-check closes the race with a concurrent join.
func (g *Registry) Remove(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing, ok := g.rooms[r.ID()]
	if !ok || existing != r || !r.Empty() {
		return
	}
	delete(g.rooms, r.ID())
	g.metrics.RoomRemoved()
	g.logger.Info("room removed",
		zap.String("room_id", r.ID()),
		zap.String("host_id", r.HostID()),
	)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}
