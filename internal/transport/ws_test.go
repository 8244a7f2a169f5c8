// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/protocol"
)

var upgrader = websocket.Upgrader{}

// wsServer runs handler on an upgraded connection and returns the ws:// URL.
func wsServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// statusRecorder collects status transitions from any goroutine.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []model.Status
	ch       chan model.Status
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{ch: make(chan model.Status, 8)}
}

func (r *statusRecorder) record(s model.Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *statusRecorder) wait(t *testing.T, want model.Status) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}

func TestDialDeliversFramesInOrder(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"progress","data":{"message_id":"m1","message":"one"}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"progress","data":{"message_id":"m1","message":"two"}}`))
		// Keep the connection open until the client hangs up.
		conn.ReadMessage()
	})

	rec := newStatusRecorder()
	c, err := Dial(context.Background(), Options{URL: url, OnStatus: rec.record})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Disconnect()

	rec.wait(t, model.StatusConnected)

	for _, want := range []string{"one", "two"} {
		select {
		case f := <-c.Frames():
			if got := f.Normalize().Message; got != want {
				t.Errorf("frame message = %q, want %q", got, want)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestDialFailureEmitsError(t *testing.T) {
	rec := newStatusRecorder()
	_, err := Dial(context.Background(), Options{
		URL:              "ws://127.0.0.1:1/nowhere",
		HandshakeTimeout: 500 * time.Millisecond,
		OnStatus:         rec.record,
	})
	if err == nil {
		t.Fatal("expected dial error")
	}
	rec.wait(t, model.StatusError)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`this is not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"no_type":true}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"query_completed","data":{"message_id":"m1","message":"ok"}}`))
		conn.ReadMessage()
	})

	c, err := Dial(context.Background(), Options{URL: url})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Disconnect()

	select {
	case f := <-c.Frames():
		if f.Type != protocol.TypeQueryCompleted {
			t.Errorf("first delivered frame = %q, want query_completed", f.Type)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("valid frame never arrived")
	}
}

func TestSendWritesTextFrame(t *testing.T) {
	got := make(chan []byte, 1)
	url := wsServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err == nil {
			got <- data
		}
	})

	c, err := Dial(context.Background(), Options{URL: url})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Disconnect()

	env := protocol.NewQueryFrame(protocol.QueryContext{SessionID: "s1", UserID: "u1"}, "m1", "hello")
	if err := c.Send(env); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case data := <-got:
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("server received invalid json: %v", err)
		}
		if decoded["type"] != "query" || decoded["message_id"] != "m1" {
			t.Errorf("server received %s", data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestRemoteCloseEmitsDisconnected(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		// Close immediately after the handshake.
	})

	rec := newStatusRecorder()
	c, err := Dial(context.Background(), Options{URL: url, OnStatus: rec.record})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Disconnect()

	rec.wait(t, model.StatusDisconnected)
	if c.IsOpen() {
		t.Error("connection should be closed after remote close")
	}
}

func TestDisconnectIdempotentAndSendAfterClose(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	rec := newStatusRecorder()
	c, err := Dial(context.Background(), Options{URL: url, OnStatus: rec.record})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	c.Disconnect()
	c.Disconnect()
	rec.wait(t, model.StatusDisconnected)

	// Sends after close are silent no-ops.
	if err := c.Send(protocol.Envelope{Type: protocol.TypePing}); err != nil {
		t.Errorf("send after close should be a no-op, got %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	disconnects := 0
	for _, s := range rec.statuses {
		if s == model.StatusDisconnected {
			disconnects++
		}
	}
	if disconnects != 1 {
		t.Errorf("disconnected emitted %d times, want 1", disconnects)
	}
}

func TestKeepaliveSendsHeartbeat(t *testing.T) {
	pings := make(chan []byte, 4)
	url := wsServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			pings <- data
		}
	})

	c, err := Dial(context.Background(), Options{
		URL:          url,
		PingInterval: 50 * time.Millisecond,
		Heartbeat: func() any {
			return protocol.NewPingFrame(protocol.QueryContext{SessionID: "s1", UserID: "u1"})
		},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Disconnect()

	select {
	case data := <-pings:
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid ping: %v", err)
		}
		if decoded["type"] != "ping" {
			t.Errorf("heartbeat frame = %s", data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no heartbeat within deadline")
	}
}
