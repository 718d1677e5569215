package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gatesphere.dev/internal/audit"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

func dialTestServer(t *testing.T, rl *Relay) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(rl.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f map[string]any
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocketAuthenticateAndPing(t *testing.T) {
	mem := store.NewMemory()
	user := &society.User{ID: "guard-1", Username: "guard-1", Name: "Guard",
		Role: society.RoleGuard, SocietyID: "soc-a", IsActive: true}
	if err := mem.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	rl := New(NewRegistry(), mem, audit.NewRecorder(mem.Audit()))
	conn := dialTestServer(t, rl)

	if err := conn.WriteJSON(map[string]any{"type": EventAuthenticate, "user_id": "guard-1"}); err != nil {
		t.Fatalf("write authenticate: %v", err)
	}
	f := readFrame(t, conn)
	if f["type"] != EventAuthenticated {
		t.Fatalf("frame type %v, want authenticated", f["type"])
	}
	if _, ok := f["timestamp"].(string); !ok {
		t.Fatalf("no timestamp in frame: %v", f)
	}

	if err := conn.WriteJSON(map[string]any{"type": EventPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if f := readFrame(t, conn); f["type"] != EventPong {
		t.Fatalf("frame type %v, want pong", f["type"])
	}
}

func TestWebSocketRejectsEventsBeforeAuth(t *testing.T) {
	mem := store.NewMemory()
	rl := New(NewRegistry(), mem, audit.NewRecorder(mem.Audit()))
	conn := dialTestServer(t, rl)

	if err := conn.WriteJSON(map[string]any{
		"type": EventEmergencyAlert, "alert_type": "panic",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := readFrame(t, conn)
	if f["type"] != EventError {
		t.Fatalf("frame type %v, want error", f["type"])
	}

	alerts, err := mem.Alerts().ListBySociety(context.Background(), "")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alert persisted before auth: %d rows", len(alerts))
	}

	// Malformed JSON also answers with an error frame and keeps the socket up.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}
	if f := readFrame(t, conn); f["type"] != EventError {
		t.Fatalf("frame type %v, want error", f["type"])
	}
}
