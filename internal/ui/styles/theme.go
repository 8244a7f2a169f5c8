// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// COLOR PALETTE
// =============================================================================

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorGood    = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorBad     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorSubtle  = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
	colorUser    = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"}
	colorAnalyst = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"}
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the application.
type Theme struct {
	IsDark  bool
	Profile termenv.Profile

	Header    lipgloss.Style
	StatusBar lipgloss.Style

	StatusGood lipgloss.Style
	StatusBad  lipgloss.Style
	StatusWarn lipgloss.Style

	UserLabel   lipgloss.Style
	ToolLabel   lipgloss.Style
	SystemLabel lipgloss.Style
	Timestamp   lipgloss.Style

	ProgressLine lipgloss.Style
	ThinkingNote lipgloss.Style

	FilterTitle lipgloss.Style
	FilterItem  lipgloss.Style
	FilterHint  lipgloss.Style

	SessionTitle  lipgloss.Style
	SessionItem   lipgloss.Style
	SessionActive lipgloss.Style

	EntityTag lipgloss.Style

	InputPrompt lipgloss.Style
	InputBox    lipgloss.Style

	ErrorText lipgloss.Style
	Muted     lipgloss.Style
}

// NewTheme builds the theme, detecting terminal background and color depth.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:  termenv.HasDarkBackground(),
		Profile: termenv.ColorProfile(),
	}

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorSubtle)

	t.StatusBar = lipgloss.NewStyle().Foreground(colorMuted)
	t.StatusGood = lipgloss.NewStyle().Foreground(colorGood).Bold(true)
	t.StatusBad = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	t.StatusWarn = lipgloss.NewStyle().Foreground(colorWarn)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(colorUser)
	t.ToolLabel = lipgloss.NewStyle().Bold(true).Foreground(colorAnalyst)
	t.SystemLabel = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(colorMuted)

	t.ProgressLine = lipgloss.NewStyle().Foreground(colorMuted).PaddingLeft(2)
	t.ThinkingNote = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	t.FilterTitle = lipgloss.NewStyle().Bold(true).Foreground(colorWarn)
	t.FilterItem = lipgloss.NewStyle().PaddingLeft(2)
	t.FilterHint = lipgloss.NewStyle().Foreground(colorMuted).Italic(true).PaddingLeft(2)

	t.SessionTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	t.SessionItem = lipgloss.NewStyle().PaddingLeft(2)
	t.SessionActive = lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(colorAccent)

	t.EntityTag = lipgloss.NewStyle().Foreground(colorAnalyst)

	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(colorSubtle)

	t.ErrorText = lipgloss.NewStyle().Foreground(colorBad)
	t.Muted = lipgloss.NewStyle().Foreground(colorMuted)

	return t
}

// GlamourStyle returns the glamour style name matching the configured or
// detected background.
func (t *Theme) GlamourStyle(configured string) string {
	switch configured {
	case "dark":
		return "dark"
	case "light":
		return "light"
	default:
		if t.IsDark {
			return "dark"
		}
		return "light"
	}
}
