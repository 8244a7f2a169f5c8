// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/morganforge/finchat-tui/internal/entities"
	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/util"
)

// chromeHeight is the vertical space taken by header, status, and input.
const chromeHeight = 6

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Width(m.width).Render("finchat"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.theme.InputBox.Width(m.width).Render(m.input.View()))
	return b.String()
}

// refreshViewport re-renders the conversation into the viewport and keeps
// it pinned to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	switch {
	case m.showSessions:
		m.viewport.SetContent(m.renderSessions())
	case m.showEntities:
		m.viewport.SetContent(m.renderEntities())
	default:
		m.viewport.SetContent(m.renderConversation())
	}
	m.viewport.GotoBottom()
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

func (m *Model) renderConversation() string {
	var b strings.Builder

	for _, msg := range m.st.Messages() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if req, ok := m.st.ActiveFilter(); ok {
		b.WriteString(m.renderFilterPrompt(req))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString(m.theme.ErrorText.Render("error: " + m.lastErr))
		b.WriteString("\n")
	}
	if errMsg := m.st.EntitiesError(); errMsg != "" {
		b.WriteString(m.theme.StatusWarn.Render(errMsg))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	var b strings.Builder

	label := m.theme.ToolLabel
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel
	}
	b.WriteString(label.Render(msg.Role.DisplayName()))
	if !msg.Timestamp.IsZero() {
		b.WriteString(" ")
		b.WriteString(m.theme.Timestamp.Render(msg.Timestamp.Format("15:04")))
	}
	b.WriteString("\n")

	b.WriteString(m.renderContent(msg))
	b.WriteString("\n")

	// Replies that can be charted advertise the transform; once transformed,
	// the payload shows inline.
	if msg.Role == model.RoleTool && msg.ID != "" {
		if payload := m.st.ChartPayload(msg.ID); len(payload) > 0 {
			b.WriteString(m.theme.Muted.Render("chart: " + util.TruncateRunes(string(payload), 200)))
			b.WriteString("\n")
		} else if len(entities.ParseSuggestions(m.st.ChartSuggestions(msg.ID))) > 0 && m.st.RawResult(msg.ID) != nil {
			b.WriteString(m.theme.Muted.Render("chart available (ctrl+t)"))
			b.WriteString("\n")
		}
	}

	// Trail and thinking note attach to the query message.
	if msg.Role == model.RoleUser {
		for _, line := range m.st.Progress(msg.ID) {
			b.WriteString(m.theme.ProgressLine.Render("· " + line))
			b.WriteString("\n")
		}
		if msg.Pending {
			b.WriteString(m.theme.ThinkingNote.Render(m.spin.View() + "thinking..."))
			b.WriteString("\n")
		} else if secs := msg.ThinkingSeconds(); secs > 0 {
			b.WriteString(m.theme.ThinkingNote.Render(fmt.Sprintf("thought for %ds", secs)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m *Model) renderContent(msg model.Message) string {
	content := msg.Content

	// Prefer the detailed formatting once it has arrived.
	if msg.Role == model.RoleTool && msg.ID != "" {
		if detailed := m.st.DetailedFormatted(msg.ID); detailed != "" {
			content = detailed
		}
	}

	if msg.Role == model.RoleTool && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}
	return content
}

func (m *Model) renderFilterPrompt(req model.FilterRequest) string {
	var b strings.Builder
	b.WriteString(m.theme.FilterTitle.Render("The query needs more detail:"))
	b.WriteString("\n")
	for _, f := range req.Filters {
		line := f.Name
		if f.Type != "" {
			line += " (" + f.Type + ")"
		}
		if f.IsRequired {
			line += " *"
		}
		if len(f.EnumValues) > 0 {
			line += ": " + util.TruncateRunes(strings.Join(f.EnumValues, ", "), 60)
		}
		b.WriteString(m.theme.FilterItem.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.FilterHint.Render("answer with name: value, name: value"))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// SESSION LIST
// =============================================================================

func (m *Model) renderSessions() string {
	var b strings.Builder
	b.WriteString(m.theme.SessionTitle.Render("Sessions"))
	b.WriteString("\n\n")

	sessions := m.st.Sessions()
	if len(sessions) == 0 {
		b.WriteString(m.theme.Muted.Render("no sessions yet"))
		b.WriteString("\n")
		return b.String()
	}

	current := m.st.SessionID()
	for i, s := range sessions {
		title := s.Title
		if title == "" {
			title = s.SessionID
		}
		line := fmt.Sprintf("%d. %s", i+1, util.TruncateWidth(title, m.width-8))
		style := m.theme.SessionItem
		if s.SessionID == current {
			style = m.theme.SessionActive
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("press a number to recall, esc to close"))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// ENTITY PICKER
// =============================================================================

// entityChoices flattens the catalog into a numbered list, funds first.
// Nine entries fit the digit keys.
func (m *Model) entityChoices() []model.SelectedEntity {
	var choices []model.SelectedEntity
	for _, e := range m.st.BusinessEntities("funds") {
		choices = append(choices, model.SelectedEntity{ID: e.ID, Name: e.Name, Type: "fund"})
	}
	for _, e := range m.st.BusinessEntities("assets") {
		choices = append(choices, model.SelectedEntity{ID: e.ID, Name: e.Name, Type: "asset"})
	}
	if len(choices) > 9 {
		choices = choices[:9]
	}
	return choices
}

func (m *Model) renderEntities() string {
	var b strings.Builder
	b.WriteString(m.theme.SessionTitle.Render("Query scope"))
	b.WriteString("\n\n")

	if m.st.EntitiesLoading() {
		b.WriteString(m.theme.Muted.Render("loading entities..."))
		b.WriteString("\n")
		return b.String()
	}
	if errMsg := m.st.EntitiesError(); errMsg != "" {
		b.WriteString(m.theme.ErrorText.Render(errMsg))
		b.WriteString("\n")
		return b.String()
	}

	choices := m.entityChoices()
	if len(choices) == 0 {
		b.WriteString(m.theme.Muted.Render("no entities available"))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range choices {
		mark := "[ ]"
		if m.st.IsSelected(e) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%d. %s %s (%s)", i+1, mark, util.TruncateWidth(e.Name, m.width-14), e.Type)
		b.WriteString(m.theme.SessionItem.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("press a number to toggle, esc to close"))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// STATUS LINE
// =============================================================================

func (m *Model) statusLine() string {
	var parts []string

	switch m.st.Status() {
	case model.StatusConnected:
		parts = append(parts, m.theme.StatusGood.Render("● connected"))
	case model.StatusError:
		parts = append(parts, m.theme.StatusBad.Render("● error"))
	default:
		if m.st.Connecting() {
			parts = append(parts, m.theme.StatusWarn.Render("● connecting"))
		} else {
			parts = append(parts, m.theme.StatusBad.Render("● disconnected"))
		}
	}

	if n := len(m.st.Sessions()); n > 0 {
		parts = append(parts, m.theme.StatusBar.Render(fmt.Sprintf("%d sessions (ctrl+l)", n)))
	}
	if selected := m.st.SelectedEntities(); len(selected) > 0 {
		names := make([]string, len(selected))
		for i, e := range selected {
			names[i] = e.Name
		}
		parts = append(parts, m.theme.EntityTag.Render(util.TruncateWidth("scope: "+strings.Join(names, ", "), m.width/2)))
	}
	if m.st.Pending() {
		parts = append(parts, m.theme.StatusWarn.Render("working (esc cancels)"))
	}

	return strings.Join(parts, "  ")
}
