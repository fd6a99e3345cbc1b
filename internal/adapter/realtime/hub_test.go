package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"healthmonitor/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dial(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestPublish_DeliversToOwner(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dial(t, hub, "u1")

	hub.Publish(domain.Event{Type: domain.EventGoalSaved, UserID: "u1", Goal: &domain.WeightGoal{WeightKg: 68}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["type"] != domain.EventGoalSaved {
		t.Errorf("expected %s, got %v", domain.EventGoalSaved, got["type"])
	}
	if _, leaked := got["UserID"]; leaked {
		t.Error("user ID must not be serialized")
	}
}

func TestPublish_OtherUsersSeeNothing(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dial(t, hub, "u2")

	hub.Publish(domain.Event{Type: domain.EventRecordSaved, UserID: "u1", Date: "2026-10-16"})

	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected no message for another user's event")
	}
}

func TestPublish_NoClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// Must not block or panic.
	hub.Publish(domain.Event{Type: domain.EventRecordDeleted, UserID: "nobody"})
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dial(t, hub, "u1")
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("u1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not unregistered after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
