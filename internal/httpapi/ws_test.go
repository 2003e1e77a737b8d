package httpapi

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/saranya-muthuraj/ivrsim/internal/ivr"
)

func TestWebSocketCallFlow(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ivr/ws?caller_number=%2B919999888877"

	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	if res != nil {
		res.Body.Close()
	}
	defer conn.Close()

	var connected ivr.Response
	if err := conn.ReadJSON(&connected); err != nil {
		t.Fatalf("read connected: %v", err)
	}
	if connected.Status != ivr.StatusConnected || connected.CallID == "" {
		t.Fatalf("connected = %+v", connected)
	}

	if err := conn.WriteJSON(wsClientMessage{Type: "dtmf", Digit: "1"}); err != nil {
		t.Fatalf("write dtmf: %v", err)
	}
	var moved ivr.Response
	if err := conn.ReadJSON(&moved); err != nil {
		t.Fatalf("read dtmf response: %v", err)
	}
	if moved.CurrentMenu != "flight_status_pnr" {
		t.Fatalf("dtmf response = %+v", moved)
	}

	if err := conn.WriteJSON(wsClientMessage{Type: "voice", Text: "go back"}); err != nil {
		t.Fatalf("write voice: %v", err)
	}
	var back ivr.Response
	if err := conn.ReadJSON(&back); err != nil {
		t.Fatalf("read voice response: %v", err)
	}
	if back.CurrentMenu != "main" {
		t.Fatalf("voice response = %+v", back)
	}

	if err := conn.WriteJSON(wsClientMessage{Type: "hangup"}); err != nil {
		t.Fatalf("write hangup: %v", err)
	}
	var ended ivr.Response
	if err := conn.ReadJSON(&ended); err != nil {
		t.Fatalf("read hangup response: %v", err)
	}
	if ended.Status != ivr.StatusCallEnded || !ended.Hangup() {
		t.Fatalf("hangup response = %+v", ended)
	}
}
