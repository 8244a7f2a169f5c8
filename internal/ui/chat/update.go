// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/finchat-tui/internal/entities"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewportHeight := m.height - chromeHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.input.Width = m.width - 4
		m.rebuildRenderer()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StoreChangedMsg:
		m.refreshViewport()
		return m, nil

	case ErrMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
		return m, nil

	case ConfigChangedMsg:
		m.glamourStyle = msg.GlamourStyle
		m.rebuildRenderer()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cl.Close()
		return m, tea.Quit

	case "esc":
		if m.st.Pending() {
			m.cl.CancelRequest()
			return m, nil
		}
		if m.showSessions || m.showEntities {
			m.showSessions = false
			m.showEntities = false
			m.refreshViewport()
			return m, nil
		}
		m.cl.Close()
		return m, tea.Quit

	case "ctrl+l":
		m.showSessions = !m.showSessions
		m.showEntities = false
		m.refreshViewport()
		return m, nil

	case "ctrl+e":
		m.showEntities = !m.showEntities
		m.showSessions = false
		m.refreshViewport()
		return m, nil

	case "ctrl+t":
		if id, suggestion, ok := m.latestChartable(); ok {
			return m, m.chartCmd(id, suggestion)
		}
		return m, nil

	case "enter":
		return m.submit()

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Session list: digits recall history.
	if m.showSessions && len(msg.String()) == 1 {
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 {
			sessions := m.st.Sessions()
			if n <= len(sessions) {
				m.showSessions = false
				return m, m.historyCmd(sessions[n-1].SessionID)
			}
		}
	}

	// Entity picker: digits toggle query scope.
	if m.showEntities && len(msg.String()) == 1 {
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 {
			choices := m.entityChoices()
			if n <= len(choices) {
				m.st.ToggleEntity(choices[n-1])
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes the input either to the outstanding filter request or to a
// fresh query.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || !m.canSend() {
		return m, nil
	}
	m.input.Reset()
	m.lastErr = ""

	if req, ok := m.st.ActiveFilter(); ok {
		values, err := ParseFilterInput(text, req.Filters)
		if err != nil {
			m.lastErr = err.Error()
			return m, nil
		}
		return m, m.filterCmd(values)
	}
	return m, m.queryCmd(text)
}

func (m Model) queryCmd(text string) tea.Cmd {
	cl := m.cl
	return func() tea.Msg {
		if _, err := cl.Send(context.Background(), text); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

func (m Model) filterCmd(values map[string]string) tea.Cmd {
	cl := m.cl
	return func() tea.Msg {
		if _, err := cl.SendFilterResponse(values); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// chartCmd asks the backend to shape the raw result for the suggested chart
// type and publishes the payload to the store.
func (m Model) chartCmd(id string, suggestion entities.ChartSuggestion) tea.Cmd {
	api, st := m.api, m.st
	raw := st.RawResult(id)
	return func() tea.Msg {
		payload, err := api.TransformChart(context.Background(), entities.ChartTransformRequest{
			ChartType: suggestion.ChartType,
			XAxis:     suggestion.XAxis,
			YAxes:     suggestion.YAxes,
			RawResult: raw,
		})
		if err != nil {
			return ErrMsg{Err: err}
		}
		st.SetChartPayload(id, payload)
		return nil
	}
}

func (m Model) historyCmd(sessionID string) tea.Cmd {
	cl := m.cl
	return func() tea.Msg {
		if err := cl.RequestHistory(sessionID); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}
