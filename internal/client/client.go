// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/morganforge/finchat-tui/internal/dispatch"
	"github.com/morganforge/finchat-tui/internal/protocol"
	"github.com/morganforge/finchat-tui/internal/store"
	"github.com/morganforge/finchat-tui/internal/transport"
)

// ErrNotConnected is returned by operations that require a live connection.
var ErrNotConnected = errors.New("no active websocket connection")

// conn is the slice of the transport the orchestrator needs. Tests swap in
// a fake through Options.Dial.
type conn interface {
	Frames() <-chan *protocol.Frame
	Send(v any) error
	Disconnect()
	IsOpen() bool
}

// DialFunc opens a connection. The default wraps transport.Dial.
type DialFunc func(ctx context.Context, opts transport.Options) (conn, error)

func defaultDial(ctx context.Context, opts transport.Options) (conn, error) {
	return transport.Dial(ctx, opts)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the orchestrator.
type Options struct {
	// ServerURL is the ws:// or wss:// endpoint.
	ServerURL string

	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	SendRate         rate.Limit

	// Dial is swappable for tests; nil means transport.Dial.
	Dial DialFunc
}

// =============================================================================
// CLIENT
// =============================================================================

// Client coordinates one connection to the backend.
//
// Queries are fire-and-forget: Send returns once the frame is written, and
// the reply lands in the store through the dispatcher. The UI enforces
// at-most-one in-flight query by disabling input while pending; nothing
// here hard-rejects overlapping sends.
type Client struct {
	opts Options
	st   *store.Store
	disp *dispatch.Dispatcher

	mu sync.Mutex
	ws conn
}

// New creates a client. Connect must be called before queries flow, but
// SendQuery will lazily connect if needed.
func New(opts Options, st *store.Store) *Client {
	if opts.Dial == nil {
		opts.Dial = defaultDial
	}
	return &Client{
		opts: opts,
		st:   st,
		disp: dispatch.New(st),
	}
}

// Connect dials the backend, starts dispatching inbound frames, and
// announces the client. Reuses the live connection when one exists.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.ws != nil && c.ws.IsOpen() {
		c.mu.Unlock()
		return nil
	}
	opts := c.opts
	c.mu.Unlock()

	c.st.SetConnecting(true)
	defer c.st.SetConnecting(false)

	ws, err := opts.Dial(ctx, transport.Options{
		URL:              opts.ServerURL,
		HandshakeTimeout: opts.HandshakeTimeout,
		PingInterval:     opts.PingInterval,
		SendRate:         opts.SendRate,
		OnStatus:         c.st.SetStatus,
		Heartbeat:        func() any { return protocol.NewPingFrame(c.queryContext()) },
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	go c.disp.Run(ws.Frames())

	return ws.Send(protocol.NewConnectFrame(c.queryContext()))
}

// SetSendRate updates the outbound rate limit. The new rate takes effect on
// the next dial; a live connection keeps the rate it was dialed with.
func (c *Client) SetSendRate(r rate.Limit) {
	c.mu.Lock()
	c.opts.SendRate = r
	c.mu.Unlock()
}

// Close tears down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Disconnect()
	}
}

// live returns the connection when open, nil otherwise.
func (c *Client) live() conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil && c.ws.IsOpen() {
		return c.ws
	}
	return nil
}

func (c *Client) queryContext() protocol.QueryContext {
	return protocol.QueryContext{
		SessionID: c.st.SessionID(),
		UserID:    c.st.UserID(),
		Entities:  c.st.SelectedEntities(),
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Send records a user message and submits it as a query. It returns the
// generated message id.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	id := uuid.NewString()
	c.st.AddUserMessage(id, text)
	return id, c.SendQuery(ctx, text, id)
}

// SendQuery submits content under an existing message id, connecting first
// if needed. It marks the query pending and stamps the thinking start.
func (c *Client) SendQuery(ctx context.Context, content any, messageID string) error {
	if c.live() == nil {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}
	ws := c.live()
	if ws == nil {
		return ErrNotConnected
	}

	c.st.SetPending(true)
	c.st.MarkThinkingStart(messageID, time.Now())
	return ws.Send(protocol.NewQueryFrame(c.queryContext(), messageID, content))
}

// CancelRequest asks the backend to abandon the in-flight query and clears
// the pending flag optimistically. Cancellation is best-effort; a
// completion that races the cancel still lands in the store.
func (c *Client) CancelRequest() {
	ws := c.live()
	if ws == nil {
		return
	}
	_ = ws.Send(protocol.NewCancelFrame(c.queryContext(), ""))
	c.st.SetPending(false)
}

// SendFilterResponse answers the outstanding filter request with the given
// values. Unlike queries it refuses to run without a live connection, since
// a filter request implies one existed moments ago. It returns the id of
// the synthetic user message.
func (c *Client) SendFilterResponse(values map[string]string) (string, error) {
	ws := c.live()
	if ws == nil {
		return "", ErrNotConnected
	}

	id := uuid.NewString()
	c.st.AddUserMessage(id, FilterSummary(values))

	if req, ok := c.st.ActiveFilter(); ok {
		c.st.ResolveFilter(req.MessageID)
	}

	c.st.SetPending(true)
	c.st.MarkThinkingStart(id, time.Now())
	return id, ws.Send(protocol.NewQueryFrame(c.queryContext(), id, values))
}

// RequestHistory switches to the given session and asks the backend for its
// full history. The reply rebuilds the conversation via the dispatcher.
func (c *Client) RequestHistory(sessionID string) error {
	ws := c.live()
	if ws == nil {
		return ErrNotConnected
	}
	c.st.SetSessionID(sessionID)
	return ws.Send(protocol.NewHistoryFrame(c.queryContext()))
}

// FilterSummary renders applied filter values as the synthetic user message
// shown in the conversation. Keys are sorted for stable output.
func FilterSummary(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+values[k])
	}
	return "Applied filters: " + strings.Join(parts, ", ")
}
