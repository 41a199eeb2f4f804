package tui

import (
	"strings"

	"github.com/muesli/termenv"
)

// Style colours terminal output for a given colour profile.
type Style struct {
	profile termenv.Profile
}

// NewStyle detects the colour profile of the current terminal.
func NewStyle() Style {
	return Style{profile: termenv.ColorProfile()}
}

// NewStyleWithProfile uses a fixed profile. termenv.Ascii disables colour.
func NewStyleWithProfile(p termenv.Profile) Style {
	return Style{profile: p}
}

// Message styles a line sent to the operator by a command.
// Lines that look like rejections are highlighted.
func (s Style) Message(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "usage:"), strings.HasPrefix(msg, "/"):
		return s.profile.String(msg).Foreground(s.profile.Color("#fbbf24")).String()
	case strings.Contains(lower, "permission"), strings.Contains(lower, "error"):
		return s.profile.String(msg).Foreground(s.profile.Color("#f87171")).String()
	default:
		return s.profile.String(msg).Foreground(s.profile.Color("#e5e7eb")).String()
	}
}

// System styles a line printed by the console itself.
func (s Style) System(msg string) string {
	return s.profile.String(">>> " + msg).Foreground(s.profile.Color("#818cf8")).String()
}

// Prompt returns the REPL prompt.
func (s Style) Prompt() string {
	return s.profile.String("> ").Foreground(s.profile.Color("#34d399")).Bold().String()
}
