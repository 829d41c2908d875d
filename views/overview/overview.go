package overview

import (
	"fmt"
	"strings"

	"crowdfund-tui/campaign"
	"crowdfund-tui/helpers"
	"crowdfund-tui/rpc"
	"crowdfund-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// HistoryLimit is how many transaction records the history card shows
const HistoryLimit = 5

// Focus tells which amount input has the cursor
type Focus int

const (
	FocusNone Focus = iota
	FocusContribute
	FocusRefund
)

// Params is everything the campaign page needs to render
type Params struct {
	State           campaign.State
	Contract        common.Address
	ContributeInput string
	RefundInput     string
	Focus           Focus
	Spinner         string
	CopiedMsg       string
	ShowQR          bool
	Consent         string
}

// Nav returns the navigation bar for the campaign view
func Nav(width int, focus Focus, consent bool) string {
	var left string
	switch {
	case consent:
		left = strings.Join([]string{
			styles.Key("←/→") + " choose",
			styles.Key("Enter") + " confirm",
			styles.Key("Esc") + " cancel",
		}, "   ")
	case focus != FocusNone:
		left = strings.Join([]string{
			styles.Key("Enter") + " submit",
			styles.Key("Tab") + " next field",
			styles.Key("Esc") + " done",
		}, "   ")
	default:
		left = strings.Join([]string{
			styles.Key("c") + " connect",
			styles.Key("Tab") + " enter amount",
			styles.Key("r") + " refresh",
			styles.Key("y") + " copy contract",
			styles.Key("t") + " copy tx",
			styles.Key("v") + " QR",
			styles.Key("d") + " disconnect",
			styles.Key("w") + " accounts",
			styles.Key("s") + " settings",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("q") + " quit",
		}, "   ")
	}
	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the campaign page
func Render(p Params) string {
	st := p.State
	lines := []string{styles.TitleStyle.Render("Crowdfunding Campaign"), walletLine(p)}

	if p.Consent != "" {
		return strings.Join(append(lines, "", p.Consent), "\n")
	}

	lines = append(lines, "", styles.Heading.Render("Campaign Status"))
	lines = append(lines, statusCard(p)...)

	if st.Connected() {
		lines = append(lines, "", styles.Heading.Render("Your Contribution"))
		lines = append(lines, row("Contributed", helpers.FormatETH(st.Snapshot.MyContribution)))
		lines = append(lines, "", contributeSection(p))
		if refund := refundSection(p); refund != "" {
			lines = append(lines, "", refund)
		}
	}

	if st.Status.Text != "" {
		lines = append(lines, "", styles.Outcome(st.Status.Text, st.Status.IsError()))
	}

	if h := History(st.Events, HistoryLimit); h != "" {
		lines = append(lines, "", styles.Heading.Render("Transaction History"), h)
	}

	lines = append(lines, "", styles.Heading.Render("Contract"), contractCard(p))
	return strings.Join(lines, "\n")
}

func walletLine(p Params) string {
	st := p.State
	switch {
	case st.Connected():
		acct := helpers.FadeString(helpers.ShortenAddr(st.Identity.Account.Hex()), "#F25D94", "#EDFF82")
		netw := st.Identity.Network
		if st.Identity.ChainID != nil {
			netw = fmt.Sprintf("%s (%s)", netw, st.Identity.ChainID)
		}
		return styles.Label.Render("Account ") + acct + styles.Muted.Render("  on ") + styles.Text.Render(netw)
	case st.Connecting:
		return p.Spinner + styles.Muted.Render(" Connecting wallet…")
	}
	return styles.Muted.Render("Wallet not connected. Press ") + styles.Key("c") + styles.Muted.Render(" to connect.")
}

func statusCard(p Params) []string {
	snap := p.State.Snapshot
	if !snap.Loaded() {
		if p.State.Refreshing {
			return []string{p.Spinner + styles.Muted.Render(" Loading campaign…")}
		}
		return []string{styles.Muted.Render("Campaign data not loaded yet. Press ") + styles.Key("r") + styles.Muted.Render(" to refresh.")}
	}

	progress := helpers.Progress(snap.AmountRaised, snap.Goal)
	state := styles.Warn.Render("In Progress")
	if snap.Locked {
		state = styles.Good.Render("Goal Reached!")
	}

	return []string{
		row("Goal", helpers.FormatETH(snap.Goal)),
		row("Raised", helpers.FormatETH(snap.AmountRaised)),
		row("Progress", progress),
		row("State", state),
		row("Updated", helpers.LoadedAt(snap.LoadedAt, p.State.Refreshing)),
	}
}

func contributeSection(p Params) string {
	st := p.State
	title := styles.Label.Render("Contribute")
	switch {
	case !st.Snapshot.Loaded():
		return title + "\n" + styles.Muted.Render("Waiting for campaign data for this account.")
	case st.Snapshot.HasContributed:
		return title + "\n" + styles.Muted.Render("You have already contributed to this campaign.")
	case st.Snapshot.Locked:
		return title + "\n" + styles.Muted.Render("The goal is reached; contributions are closed.")
	}
	return title + "\n" + field(p.ContributeInput, p.Focus == FocusContribute) + phaseLine(st, campaign.Contribute, p.Spinner)
}

func refundSection(p Params) string {
	st := p.State
	mine := st.Snapshot.MyContribution
	if mine == nil || mine.Sign() <= 0 || st.Snapshot.Locked {
		return ""
	}
	title := styles.Label.Render("Refund") + styles.Muted.Render("  up to "+helpers.FormatETH(mine))
	return title + "\n" + field(p.RefundInput, p.Focus == FocusRefund) + phaseLine(st, campaign.Refund, p.Spinner)
}

func field(input string, focused bool) string {
	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CMuted).
		Padding(0, 1)
	if focused {
		border = border.BorderForeground(styles.CAccent2)
	}
	return border.Render(input)
}

func phaseLine(st campaign.State, kind campaign.Kind, spinner string) string {
	phase := st.Phases[kind]
	if !phase.Busy() {
		return ""
	}
	line := "\n" + spinner + " " + styles.Muted.Render(phase.String())
	if pend, ok := st.Pending[kind]; ok && pend.TxHash != (common.Hash{}) {
		line += styles.Muted.Render(" " + helpers.ShortenAddr(pend.TxHash.Hex()))
	}
	return line
}

// History renders the newest limit records, newest last
func History(events []campaign.EventRecord, limit int) string {
	if len(events) == 0 {
		return ""
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]string, 0, len(events))
	for _, ev := range events {
		line := styles.Muted.Render(ev.At.Format("15:04:05")) + "  " + styles.Text.Render(ev.Text)
		if ev.TxHash != (common.Hash{}) {
			hash := ev.TxHash.Hex()
			line += "  " + helpers.Hyperlink(helpers.EtherscanTxURL(hash), styles.Muted.Underline(true).Render("etherscan"))
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func contractCard(p Params) string {
	addr := p.Contract.Hex()
	url := helpers.EtherscanAddressURL(addr)
	link := helpers.Hyperlink(url, styles.Muted.Underline(true).Render(addr))
	card := link
	if p.CopiedMsg != "" {
		card += "  " + styles.Good.Render(p.CopiedMsg)
	}
	if p.ShowQR {
		card += "\n\n" + rpc.GenerateQRCode(url)
	}
	return card
}

func row(name, value string) string {
	return fmt.Sprintf("%s %s", styles.Label.Render(fmt.Sprintf("%-12s", name)), styles.Text.Render(value))
}
