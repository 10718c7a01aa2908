package server

import (
	"context"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cory-johannsen/rolltable/internal/game/protocol"
)

// wsConn adapts a websocket connection to the session.Conn interface.
type wsConn struct {
	c *websocket.Conn
}

// Send writes one event as a JSON text message.
func (w *wsConn) Send(ctx context.Context, ev protocol.Event) error {
	return wsjson.Write(ctx, w.c, ev)
}

// Receive blocks for the next data frame and returns its payload.
// Non-data frame types are skipped.
func (w *wsConn) Receive(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		return data, nil
	}
}

// Close performs a normal websocket closure. Safe to call more than once.
func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "session closed")
}
