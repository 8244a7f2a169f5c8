// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/protocol"
)

// =============================================================================
// OPTIONS
// =============================================================================

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	writeTimeout            = 10 * time.Second
	frameBuffer             = 64
)

// StatusFunc receives connection status transitions. It may be called from
// the dial path and from the read pump goroutine.
type StatusFunc func(model.Status)

// Options configures one connection.
type Options struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	PingInterval     time.Duration

	// SendRate limits outbound frames per second. Zero means unlimited.
	SendRate rate.Limit

	// OnStatus, when set, receives connected/disconnected/error transitions.
	OnStatus StatusFunc

	// Heartbeat builds the keep-alive frame. When nil a bare ping envelope
	// is sent.
	Heartbeat func() any
}

func (o *Options) fillDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is one live WebSocket connection.
type Client struct {
	opts    Options
	conn    *websocket.Conn
	frames  chan *protocol.Frame
	limiter *rate.Limiter

	writeMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the connection and starts the read pump and keep-alive ticker.
// It returns once the handshake completes, or an error if it fails; the
// status callback observes the same outcome.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	opts.fillDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, opts.URL, opts.Header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		emit(opts.OnStatus, model.StatusError)
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:   opts,
		conn:   conn,
		frames: make(chan *protocol.Frame, frameBuffer),
		ctx:    cctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if opts.SendRate > 0 {
		c.limiter = rate.NewLimiter(opts.SendRate, 1)
	}

	emit(opts.OnStatus, model.StatusConnected)

	go c.readPump()
	go c.keepalive()

	return c, nil
}

// Frames returns the inbound frame channel. It is closed when the read
// pump exits; frames are delivered in arrival order.
func (c *Client) Frames() <-chan *protocol.Frame {
	return c.frames
}

// IsOpen reports whether the connection is still usable.
func (c *Client) IsOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Send serializes v and writes it as one text frame. Sending on a closed
// connection is a silent no-op; callers learn about drops through the
// status callback, not through Send.
func (c *Client) Send(v any) error {
	if !c.IsOpen() {
		log.Printf("transport: send dropped, connection closed")
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(c.ctx); err != nil {
			return nil
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("transport: write failed: %v", err)
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Disconnect closes the connection. It is safe to call multiple times and
// after a remote close.
func (c *Client) Disconnect() {
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.close()
}

// close tears down the connection exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
		c.conn.Close()
		emit(c.opts.OnStatus, model.StatusDisconnected)
	})
}

// =============================================================================
// READ PUMP AND KEEP-ALIVE
// =============================================================================

// readPump reads until the connection drops. Malformed frames are logged
// and skipped; they never reach the channel.
func (c *Client) readPump() {
	defer close(c.frames)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsOpen() {
				log.Printf("transport: read loop ended: %v", err)
			}
			c.close()
			return
		}

		frame, err := protocol.Decode(raw)
		if err != nil {
			log.Printf("transport: dropping malformed frame: %v", err)
			continue
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

// keepalive sends a ping frame on a fixed interval while connected.
func (c *Client) keepalive() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			var frame any = protocol.Envelope{Type: protocol.TypePing}
			if c.opts.Heartbeat != nil {
				frame = c.opts.Heartbeat()
			}
			if err := c.Send(frame); err != nil {
				log.Printf("transport: keep-alive failed: %v", err)
			}
		}
	}
}

func emit(fn StatusFunc, s model.Status) {
	if fn != nil {
		fn(s)
	}
}
