package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quality-desk/internal/calls"

	"github.com/gorilla/websocket"
)

func TestHub_StreamsStationUpdates(t *testing.T) {
	hub := NewHub(nil)
	stations := NewStations(nil, hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "op-1", stations.State("op-1"))
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

	var initial State
	if err := ws.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if initial.Line != LineOffline || initial.Session.Current != nil {
		t.Fatalf("unexpected initial state: %+v", initial)
	}

	if err := stations.Handle(context.Background(), "op-1", SessionStarted{ID: "A", Direction: calls.DirectionIncoming}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Other operators' events must not reach this console.
	_ = stations.Handle(context.Background(), "op-2", SessionStarted{ID: "Z", Direction: calls.DirectionIncoming})

	var up Update
	if err := ws.ReadJSON(&up); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if up.Type != "session" || up.State.Session.Current == nil || up.State.Session.Current.ID != "A" {
		t.Fatalf("unexpected update: %+v", up)
	}
}

func TestHub_PublishWithoutClientsIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish("nobody", map[string]string{"x": "y"})
	if hub.ClientCount("nobody") != 0 {
		t.Fatalf("expected no clients")
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil)
	c := &client{id: "c", topic: "op", send: make(chan []byte, 1)}
	hub.register(c)
	hub.Publish("op", json.RawMessage(`{"a":1}`))
	if got := <-c.send; string(got) != `{"a":1}` {
		t.Fatalf("unexpected payload %s", got)
	}
	hub.unregister(c)
	hub.unregister(c)
	if _, ok := <-c.send; ok {
		t.Fatalf("expected send closed")
	}
	if hub.ClientCount("op") != 0 {
		t.Fatalf("expected client removed")
	}
}

func TestHub_SubscribeQueuesSnapshotFirstUnderLoad(t *testing.T) {
	hub := NewHub(nil)
	c := hub.subscribe("op", map[string]string{"kind": "snapshot"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*2; i++ {
			hub.Publish("op", map[string]int{"seq": i})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a console nobody drains")
	}

	if got := <-c.send; string(got) != `{"kind":"snapshot"}` {
		t.Fatalf("expected snapshot first, got %s", got)
	}
	if n := len(c.send); n != sendBuffer-1 {
		t.Fatalf("expected %d buffered updates, got %d", sendBuffer-1, n)
	}
	hub.unregister(c)
}
