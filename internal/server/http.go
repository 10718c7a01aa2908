package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/cory-johannsen/rolltable/internal/config"
	"github.com/cory-johannsen/rolltable/internal/game/protocol"
	"github.com/cory-johannsen/rolltable/internal/game/room"
	"github.com/cory-johannsen/rolltable/internal/game/session"
)

// Server is the HTTP/websocket surface over the room registry and session
// handler: room creation and listing over plain HTTP, and the session
// protocol over an upgraded websocket.
type Server struct {
	cfg      config.HTTPConfig
	registry *room.Registry
	sessions *session.Handler
	logger   *zap.Logger
	httpSrv  *http.Server
}

// New creates a Server.
//
// Precondition: registry, sessions, and logger must be non-nil.
func New(cfg config.HTTPConfig, registry *room.Registry, sessions *session.Handler, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the fully routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /room", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("GET /ws/{room_id}/{user_id}", s.handleSession)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return allowAllCORS(mux)
}

// ListenAndServe starts the HTTP listener and blocks until Stop is called
// or the listener fails.
//
// Postcondition: Returns nil after a graceful Stop, or the listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr()))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the HTTP server down within the configured timeout.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}

type createRoomRequest struct {
	HostID   string `json:"host_id"`
	Password string `json:"password"`
}

type createRoomResponse struct {
	Status string `json:"status"`
	RoomID string `json:"room_id"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.HostID == "" {
		http.Error(w, "host_id is required", http.StatusBadRequest)
		return
	}

	created, wasNew, err := s.registry.Create(req.HostID, req.Password)
	if err != nil {
		s.logger.Error("creating room", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := protocol.StatusRoomCreated
	if !wasNew {
		status = protocol.StatusHostAlreadyExists
	}
	s.writeJSON(w, createRoomResponse{Status: status, RoomID: created.ID()})
}

type listRoomsResponse struct {
	Rooms []room.Summary `json:"rooms"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, listRoomsResponse{Rooms: s.registry.List()})
}

// handleSession upgrades the connection and hands it to the session protocol
// handler. Room lookup and the password exchange happen inside the session,
// after the upgrade, so protocol status events reach the client over the
// socket they opened.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	userID := r.PathValue("user_id")

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}

	sess := s.sessions.NewSession(&wsConn{c: c}, roomID, userID)
	sess.Run(r.Context())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response", zap.Error(err))
	}
}

// allowAllCORS mirrors the permissive policy of the original deployment:
// any origin, any method, any headers.
func allowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
