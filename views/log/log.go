package log

import (
	"fmt"

	"crowdfund-tui/helpers"
	"crowdfund-tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Height returns the viewport height for a terminal of the given height.
// Header, nav, title, borders and margins take 10 lines; the panel never
// exceeds a third of the screen or 15 lines.
func Height(termHeight int) int {
	available := helpers.Max(5, termHeight-10)
	return helpers.Min(available, helpers.Min(termHeight/3, 15))
}

// Render renders the log panel; vp.Height must already be set via Height
func Render(width int, logReady bool, logSpinnerView string, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(vp.Height + 2)

	if !logReady {
		return border.Render(title + "\n\n" + "initializing...\n" + logSpinnerView)
	}

	scrollInfo := ""
	if vp.TotalLineCount() > vp.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + scrollInfo + "\n\n" + vp.View())
}
