package home

import (
	"strings"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"
	"crowdfund-tui/helpers"
	"crowdfund-tui/styles"

	"github.com/charmbracelet/huh"
)

// TempSelection stores the home menu selection
var TempSelection config.Page

// CreateForm creates the home menu form
func CreateForm() *huh.Form {
	TempSelection = config.PageCampaign

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[config.Page]().
				Options(
					huh.NewOption("Campaign", config.PageCampaign),
					huh.NewOption("Accounts", config.PageAccounts),
					huh.NewOption("RPC Settings", config.PageSettings),
				).
				Title("Main Menu").
				Description("Select a view to navigate to").
				Value(&TempSelection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Render renders the menu with a one-line campaign summary below it
func Render(form *huh.Form, st campaign.State) string {
	menu := "Loading menu..."
	if form != nil {
		menu = form.View()
	}
	return menu + "\n" + Summary(st)
}

// Summary is the raised/goal line, or a hint before the first read
func Summary(st campaign.State) string {
	snap := st.Snapshot
	if !snap.Loaded() {
		return styles.Muted.Render("Campaign not loaded")
	}
	line := styles.Label.Render("Raised ") +
		styles.Text.Render(helpers.FormatETH(snap.AmountRaised)+" of "+helpers.FormatETH(snap.Goal)) +
		styles.Muted.Render(" ("+helpers.Progress(snap.AmountRaised, snap.Goal)+")")
	if snap.Locked {
		line += "  " + styles.Good.Render("Goal Reached!")
	}
	return line
}

// Nav returns the navigation bar for home view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " go",
		styles.Key("l") + " logger",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}
