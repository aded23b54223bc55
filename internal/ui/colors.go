package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00a352")).Strikethrough(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c42912"))
	fadedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4db7ff")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#c42912")).Bold(true)
)
