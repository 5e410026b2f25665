package cli

import "github.com/charmbracelet/lipgloss"

const (
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
)

var (
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	brokenStyle = lipgloss.NewStyle().Foreground(colorError)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)
