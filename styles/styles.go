package styles

import "github.com/charmbracelet/lipgloss"

// Theme colors
var (
	CBg      = lipgloss.Color("#0B0F14")
	CPanel   = lipgloss.Color("#0F1720")
	CBorder  = lipgloss.Color("#874BFD")
	CMuted   = lipgloss.Color("#8AA0B6")
	CText    = lipgloss.Color("#D6E2F0")
	CAccent  = lipgloss.Color("#7EE787") // success, goal reached
	CAccent2 = lipgloss.Color("#79C0FF") // labels, focus
	CWarn    = lipgloss.Color("#FFA657") // in progress, balance errors
	CError   = lipgloss.Color("#FF5F5F")
)

// Frame styles
var (
	AppStyle = lipgloss.NewStyle().
			Background(CBg).
			Foreground(CText)

	TitleStyle = lipgloss.NewStyle().
			Foreground(CAccent2).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(CBorder).
			Padding(1, 2)

	NavStyle = lipgloss.NewStyle().
			Background(CPanel).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(CBorder).
			Padding(0, 1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(CAccent).
			Bold(true)
)

// Text styles for campaign figures and outcomes
var (
	Muted   = lipgloss.NewStyle().Foreground(CMuted)
	Text    = lipgloss.NewStyle().Foreground(CText)
	Label   = lipgloss.NewStyle().Foreground(CAccent2).Bold(true)
	Heading = Label.Underline(true)
	Good    = lipgloss.NewStyle().Foreground(CAccent).Bold(true)
	Warn    = lipgloss.NewStyle().Foreground(CWarn).Bold(true)
	Bad     = lipgloss.NewStyle().Foreground(CError).Bold(true)
)

// RPC delete dialog
var (
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(CBorder).
			Padding(1, 0)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Background(lipgloss.Color("#888B7E")).
			Padding(0, 3).
			MarginTop(1)

	ActiveButtonStyle = ButtonStyle.
				Background(lipgloss.Color("#F25D94")).
				Underline(true)
)

// Key renders a hotkey
func Key(s string) string {
	return KeyStyle.Render(s)
}

// Outcome styles a status line; error outcomes are red
func Outcome(text string, isError bool) string {
	if isError {
		return Bad.Render(text)
	}
	return Good.Render(text)
}
