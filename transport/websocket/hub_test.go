package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}

	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}

	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}

	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.registerClient(client)

	if !hub.clients[client] {
		t.Error("Client was not registered")
	}

	if len(hub.clients) != 1 {
		t.Errorf("Expected 1 client, got %d", len(hub.clients))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if len(hub.clients) != 0 {
		t.Error("Client should have been removed")
	}

	// The send channel must be closed so writePump exits.
	select {
	case _, open := <-client.send:
		if open {
			t.Error("send channel should be closed")
		}
	default:
		t.Error("send channel should be closed, not empty and open")
	}
}

func TestHubMultipleClients(t *testing.T) {
	hub := NewHub()

	client1 := &Client{hub: hub, send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.clients) != 2 {
		t.Errorf("Expected 2 clients, got %d", len(hub.clients))
	}

	hub.unregisterClient(client1)

	if len(hub.clients) != 1 {
		t.Errorf("Expected 1 client remaining, got %d", len(hub.clients))
	}

	if !hub.clients[client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
	hub.registerClient(client)

	hub.broadcastMessage(&Message{
		Event: "simulation",
		Data:  map[string]any{"commands": "ff"},
	})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}

		if message.Event != "simulation" {
			t.Errorf("Expected event 'simulation', got %s", message.Event)
		}

		payload, ok := message.Data.(map[string]any)
		if !ok || payload["commands"] != "ff" {
			t.Errorf("Data not correctly transmitted: %v", message.Data)
		}

	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()

	// Unbuffered send channel with no reader: the first broadcast cannot be
	// delivered and must evict the client.
	client := &Client{
		hub:  hub,
		send: make(chan []byte),
	}
	hub.registerClient(client)

	hub.broadcastMessage(&Message{Event: "simulation"})

	if len(hub.clients) != 0 {
		t.Error("Slow client should have been dropped")
	}
}

func TestHubBroadcastQueues(t *testing.T) {
	hub := NewHub()
	done := make(chan bool)

	go func() {
		select {
		case message := <-hub.broadcast:
			if message.Event != "simulation" {
				t.Errorf("Expected event 'simulation', got %s", message.Event)
			}
			if message.Data != "payload" {
				t.Errorf("Expected data 'payload', got %v", message.Data)
			}
			done <- true
		case <-time.After(100 * time.Millisecond):
			t.Error("No broadcast message received within timeout")
			done <- false
		}
	}()

	hub.Broadcast("simulation", "payload")

	<-done
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub()

	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	// Give some time for registration
	time.Sleep(50 * time.Millisecond)

	if got := len(hub.clients); got != 1 {
		t.Errorf("Expected 1 connected observer, got %d", got)
	}

	conn.Close()

	// Give some time for unregistration
	time.Sleep(50 * time.Millisecond)

	if got := len(hub.clients); got != 0 {
		t.Errorf("Expected 0 observers after close, got %d", got)
	}
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()

	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	// Give time for connection to establish
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("simulation", map[string]any{
		"commands":  "fff",
		"processed": 3,
	})

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if message.Event != "simulation" {
		t.Errorf("Expected event 'simulation', got %s", message.Event)
	}

	payload, ok := message.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected object payload, got %T", message.Data)
	}
	if payload["commands"] != "fff" {
		t.Error("Payload not correctly received")
	}
}
