package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/ivr"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// wsClientMessage is one caller turn on the socket channel.
type wsClientMessage struct {
	Type        string `json:"type"` // dtmf | voice | hangup
	Digit       string `json:"digit,omitempty"`
	Text        string `json:"text,omitempty"`
	CurrentMenu string `json:"current_menu,omitempty"`
}

// handleCallWS binds one websocket connection to one call: the upgrade
// starts the call, each client message is a turn, and a hangup response
// or disconnect ends it.
func (s *Server) handleCallWS(w http.ResponseWriter, r *http.Request) {
	callerNumber := strings.TrimSpace(r.URL.Query().Get("caller_number"))
	if callerNumber == "" {
		callerNumber = "anonymous"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := s.engine.StartCall(ctx, callerNumber)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "start_failed"})
		return
	}
	callID := started.CallID
	if err := writeResponse(conn, started); err != nil {
		s.hangupQuietly(callID)
		return
	}

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// Dropped socket counts as a hangup.
			s.hangupQuietly(callID)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var resp *ivr.Response
		switch msg.Type {
		case "dtmf":
			resp, err = s.engine.Keypress(ctx, callID, msg.Digit, menu.ID(msg.CurrentMenu))
		case "voice":
			resp, err = s.engine.Voice(ctx, callID, msg.Text, menu.ID(msg.CurrentMenu))
		case "hangup":
			resp, err = s.engine.Hangup(ctx, callID)
		default:
			if werr := conn.WriteJSON(errorResponse{Error: "unknown message type", Code: "invalid_client_message"}); werr != nil {
				s.hangupQuietly(callID)
				return
			}
			continue
		}
		if err != nil {
			code := "internal_error"
			switch {
			case errors.Is(err, call.ErrNotFound):
				code = "call_not_found"
			case errors.Is(err, call.ErrEnded):
				code = "call_already_ended"
			}
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: code})
			return
		}
		if err := writeResponse(conn, resp); err != nil {
			s.hangupQuietly(callID)
			return
		}
		if resp.Hangup() {
			return
		}
	}
}

func writeResponse(conn *websocket.Conn, resp *ivr.Response) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(resp)
}

// hangupQuietly ends the call on channel loss. Already-ended calls are
// fine; anything else is only logged.
func (s *Server) hangupQuietly(callID string) {
	if _, err := s.engine.Hangup(context.Background(), callID); err != nil && !errors.Is(err, call.ErrNotFound) {
		log.Printf("ws: hangup of %s failed: %v", callID, err)
	}
}
