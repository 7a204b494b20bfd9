package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#4ec9b0")
	muted  = lipgloss.Color("#666")
	warn   = lipgloss.Color("#e5c07b")
	danger = lipgloss.Color("#e06c75")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1)

	cursorStyle    = lipgloss.NewStyle().Foreground(accent).Bold(true)
	doneTextStyle  = lipgloss.NewStyle().Foreground(muted).Strikethrough(true)
	openTextStyle  = lipgloss.NewStyle()
	emptyStyle     = lipgloss.NewStyle().Foreground(muted).Italic(true)
	statsStyle     = lipgloss.NewStyle().Foreground(muted)
	statusStyle    = lipgloss.NewStyle().Foreground(warn)
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000")).
			Background(accent).
			Padding(0, 1)
	tabStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Padding(0, 2).
			MarginTop(1)
)
