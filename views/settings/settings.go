package settings

import (
	"strings"

	"crowdfund-tui/config"
	"crowdfund-tui/helpers"
	"crowdfund-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" || settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("d") + " delete",
			styles.Key("h") + " home",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the RPC settings view along with the campaign binding it serves
func Render(cfg config.Config, selectedIdx int) string {
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	lines := []string{styles.TitleStyle.Render("RPC Settings"), ""}

	contract := cfg.Contract
	if contract == "" {
		contract = config.DefaultContractAddress
	}
	lines = append(lines,
		muted.Render("Contract  ")+helpers.Hyperlink(helpers.EtherscanAddressURL(contract), styles.Text.Render(contract)),
		muted.Render("Network   ")+styles.Text.Render("Sepolia testnet"),
	)
	if cfg.Keystore != "" {
		lines = append(lines, muted.Render("Keystore  ")+styles.Text.Render(cfg.Keystore))
	}
	lines = append(lines, "")

	if len(cfg.RPCURLs) == 0 {
		lines = append(lines, muted.Render("No RPC URLs configured."))
		lines = append(lines, "")
		lines = append(lines, muted.Render("Press ")+styles.Key("a")+muted.Render(" to add your first RPC URL."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, muted.Render("Configured RPC Endpoints:"), "")

	for i, rpc := range cfg.RPCURLs {
		var marker string
		if rpc.Active {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
		} else {
			marker = muted.Render("○ ")
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := muted

		if i == selectedIdx {
			nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
			urlStyle = urlStyle.Background(styles.CPanel)
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
		}

		lines = append(lines, marker+nameStyle.Render(rpc.Name))
		lines = append(lines, "  "+urlStyle.Render(rpc.URL))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
