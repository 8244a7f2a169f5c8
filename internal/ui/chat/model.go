// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/finchat-tui/internal/client"
	"github.com/morganforge/finchat-tui/internal/entities"
	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/store"
	"github.com/morganforge/finchat-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StoreChangedMsg is sent by the store's change subscriber; the view
// re-renders its projections in response.
type StoreChangedMsg struct{}

// ErrMsg carries an operation failure for display.
type ErrMsg struct {
	Err error
}

// ConfigChangedMsg carries live-reloaded rendering settings from the config
// watcher.
type ConfigChangedMsg struct {
	GlamourStyle string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme *styles.Theme
	st    *store.Store
	cl    *client.Client
	api   *entities.Client

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	showSessions bool
	showEntities bool
	lastErr      string

	glamourStyle string
}

// New creates the chat view bound to a store, the websocket client, and the
// REST client used for chart transforms.
func New(st *store.Store, cl *client.Client, api *entities.Client, theme *styles.Theme, glamourStyle string) Model {
	input := textinput.New()
	input.Placeholder = "Ask about your portfolio..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.ThinkingNote

	return Model{
		theme:        theme,
		st:           st,
		cl:           cl,
		api:          api,
		input:        input,
		spin:         spin,
		glamourStyle: glamourStyle,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.connectCmd())
}

// connectCmd dials the backend in the background; the store's status enum
// reflects the outcome either way.
func (m Model) connectCmd() tea.Cmd {
	cl := m.cl
	return func() tea.Msg {
		if err := cl.Connect(context.Background()); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// rebuildRenderer sizes the markdown renderer to the viewport.
func (m *Model) rebuildRenderer() {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.glamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Plain text rendering still works without a renderer.
		m.renderer = nil
		return
	}
	m.renderer = r
}

// canSend reports whether the input should accept a submission. Disconnected
// is deliberately not a blocker: submitting while disconnected lazy-connects
// through the client.
func (m Model) canSend() bool {
	return m.st != nil && !m.st.Pending() && !m.st.Connecting()
}

// latestChartable finds the newest reply carrying both chart suggestions and
// the raw result the transform endpoint needs.
func (m Model) latestChartable() (string, entities.ChartSuggestion, bool) {
	msgs := m.st.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleTool || msg.ID == "" {
			continue
		}
		suggestions := entities.ParseSuggestions(m.st.ChartSuggestions(msg.ID))
		if len(suggestions) == 0 || m.st.RawResult(msg.ID) == nil {
			continue
		}
		return msg.ID, suggestions[0], true
	}
	return "", entities.ChartSuggestion{}, false
}
