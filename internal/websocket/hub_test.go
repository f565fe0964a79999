package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHubSendToOperatorAndBroadcast(t *testing.T) {
	h := &Hub{
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan []byte, 10),
		register:   make(chan *Client, 1),
		unregister: make(chan *Client, 1),
	}

	id1 := uuid.New()
	id2 := uuid.New()

	// Use actual Client struct but only use the send channel for assertion
	c1 := &Client{operatorID: id1, send: make(chan []byte, 4)}
	c2 := &Client{operatorID: id2, send: make(chan []byte, 4)}

	h.clients[id1] = c1
	h.clients[id2] = c2

	// Send to single operator
	msg := map[string]string{"hello": "world"}
	if err := h.SendToOperator(id1, msg); err != nil {
		t.Fatalf("SendToOperator error: %v", err)
	}

	select {
	case b := <-c1.send:
		var got map[string]string
		json.Unmarshal(b, &got)
		if got["hello"] != "world" {
			t.Fatalf("unexpected payload: %v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timed out waiting for message to operator 1")
	}

	// Broadcast to everyone
	msg2 := map[string]string{"ping": "pong"}
	if err := h.Broadcast(msg2); err != nil {
		t.Fatalf("Broadcast error: %v", err)
	}

	for _, c := range []*Client{c1, c2} {
		select {
		case b := <-c.send:
			var got map[string]string
			json.Unmarshal(b, &got)
			if got["ping"] != "pong" {
				t.Fatalf("unexpected payload: %v", got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timed out waiting for broadcast message")
		}
	}

	if got := len(h.ConnectedOperators()); got != 2 {
		t.Fatalf("expected 2 connected operators, got %d", got)
	}
}
