package accounts

import (
	"fmt"
	"strings"

	"crowdfund-tui/helpers"
	"crowdfund-tui/rpc"
	"crowdfund-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// Row is one signing account as shown in the list
type Row struct {
	Address common.Address
	Balance *rpc.AccountBalance
	Active  bool
}

// Rows joins the wallet's accounts with loaded balances
func Rows(addrs []common.Address, balances []rpc.AccountBalance, active common.Address, bound bool) []Row {
	byAddr := make(map[common.Address]*rpc.AccountBalance, len(balances))
	for i := range balances {
		byAddr[balances[i].Address] = &balances[i]
	}
	rows := make([]Row, 0, len(addrs))
	for _, a := range addrs {
		rows = append(rows, Row{Address: a, Balance: byAddr[a], Active: bound && a == active})
	}
	return rows
}

// Nav returns the navigation bar for the accounts view
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " move",
		styles.Key("Enter") + " use account",
		styles.Key("b") + " balances",
		styles.Key("y") + " copy address",
		styles.Key("d") + " disconnect",
		styles.Key("h") + " home",
		styles.Key("s") + " settings",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// RenderList renders the account list
func RenderList(rows []Row, selectedIdx int, loading bool, spinnerView string) string {
	if len(rows) == 0 {
		hint := styles.Muted.Render("No signing keys loaded. Set ") +
			lipgloss.NewStyle().Foreground(styles.CAccent).Render("CROWDFUND_PRIVATE_KEYS") +
			styles.Muted.Render(" or ") +
			lipgloss.NewStyle().Foreground(styles.CAccent).Render("CROWDFUND_KEYSTORE") +
			styles.Muted.Render(" and restart.")
		return hint
	}

	items := make([]string, 0, len(rows))
	for i, r := range rows {
		var marker, shortAddr, fullAddr string
		var itemStyle lipgloss.Style

		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			itemStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
			shortAddr = helpers.ShortenAddr(r.Address.Hex())
			fullAddr = styles.Text.Render(r.Address.Hex())
		} else {
			marker = "  "
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1a2aa"))
			shortAddr = helpers.FadeString(helpers.ShortenAddr(r.Address.Hex()), "#F25D94", "#EDFF82")
			fullAddr = helpers.FadeString(r.Address.Hex(), "#7D5AFC", "#FF87D7")
		}
		if r.Active {
			shortAddr = "✓ " + shortAddr
		}

		items = append(items, marker+itemStyle.Render(shortAddr)+"  "+balance(r, loading, spinnerView)+"\n  "+fullAddr)
	}
	return strings.Join(items, "\n\n")
}

func balance(r Row, loading bool, spinnerView string) string {
	switch {
	case loading:
		return spinnerView
	case r.Balance == nil:
		return styles.Muted.Render("—")
	case r.Balance.ErrMessage != "":
		return styles.Warn.Render("⚠ " + r.Balance.ErrMessage)
	}
	return styles.Text.Render(helpers.FormatETH(r.Balance.Wei))
}

// Render renders the full accounts view
func Render(rows []Row, selectedIdx int, loading bool, spinnerView, copiedMsg string) string {
	header := styles.TitleStyle.Render("Accounts")
	subtitle := styles.Muted.Render("Signing keys available to the campaign")

	active := 0
	for _, r := range rows {
		if r.Active {
			active++
		}
	}
	status := fmt.Sprintf("%d accounts", len(rows))
	if active == 0 {
		status += " • wallet not connected"
	}
	statusBar := styles.Muted.Render(status)
	if copiedMsg != "" {
		statusBar += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	return header + "\n" + subtitle + "\n\n" + RenderList(rows, selectedIdx, loading, spinnerView) + "\n\n" + statusBar
}
