package main

import (
	"strings"

	"crowdfund-tui/config"
	"crowdfund-tui/helpers"
	"crowdfund-tui/styles"
	"crowdfund-tui/views/accounts"
	"crowdfund-tui/views/home"
	logview "crowdfund-tui/views/log"
	"crowdfund-tui/views/overview"
	"crowdfund-tui/views/settings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- VIEW --------------------

func (m model) renderRPCDeleteDialog() string {
	msg := helpers.FadeString("Are you sure you want to delete the RPC endpoint "+m.deleteRPCDialogName+"?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	var okButton, cancelButton string
	if m.deleteRPCDialogYesSelected {
		okButton = styles.ActiveButtonStyle.MarginRight(2).Render("Yes")
		cancelButton = styles.ButtonStyle.Render("No")
	} else {
		okButton = styles.ButtonStyle.MarginRight(2).Render("Yes")
		cancelButton = styles.ActiveButtonStyle.Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		styles.DialogStyle.Render(ui),
	)
}

func (m model) globalHeader() string {
	availableWidth := max(0, m.w-8)

	// Bound account and network
	var acctDisplay string
	if m.state.Connected() {
		acctDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: "+helpers.FadeString(helpers.ShortenAddr(m.state.Identity.Account.Hex()), "#F25D94", "#EDFF82")) +
			lipgloss.NewStyle().Foreground(cMuted).Render(" @ "+m.state.Identity.Network)
	} else {
		acctDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: Not connected")
	}

	// RPC status dot
	statusIcon := "○"
	statusColor := cError
	var statusText string
	switch {
	case m.rpcURL == "":
		statusText = "No RPC"
	case m.rpcConnecting:
		statusText = "Connecting..."
	case !m.rpcConnected:
		statusText = "Connection Failed"
	default:
		statusIcon = "●"
		statusColor = cAccent
		statusText = "Connected"
		for _, r := range m.cfg.RPCURLs {
			if r.Active && strings.TrimSpace(r.URL) == m.rpcURL && r.Name != "" {
				statusText = r.Name
				break
			}
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("crowdfund", "#7EE787", "#82CFFD"))

	acctWidth := lipgloss.Width(acctDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := acctWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = acctDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		headerLine = acctDisplay +
			strings.Repeat(" ", max(1, leftPadding)) +
			titleText +
			strings.Repeat(" ", max(1, rightPadding)) +
			rpcDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

func (m model) campaignParams() overview.Params {
	var contract common.Address
	if m.sess != nil {
		contract = m.sess.ctrl.Address()
	} else if helpers.IsValidEthAddress(m.cfg.Contract) {
		contract = common.HexToAddress(m.cfg.Contract)
	}

	p := overview.Params{
		State:           m.state,
		Contract:        contract,
		ContributeInput: m.contributeInput.View(),
		RefundInput:     m.refundInput.View(),
		Focus:           m.focus,
		Spinner:         m.spin.View(),
		CopiedMsg:       m.copiedMsg,
		ShowQR:          m.showQR,
	}
	if m.consentForm != nil {
		p.Consent = m.consentForm.View()
	}
	return p
}

func (m *model) View() string {
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())

	var pageContent, nav string

	switch m.activePage {
	case config.PageHome:
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(home.Render(m.homeForm, m.state))
		nav = home.Nav(m.w - 2)

	case config.PageCampaign:
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(overview.Render(m.campaignParams()))
		nav = overview.Nav(m.w-2, m.focus, m.consentForm != nil)

	case config.PageAccounts:
		rows := accounts.Rows(m.wallet.Accounts(), m.balances, m.state.Identity.Account, m.state.Connected())
		content := accounts.Render(rows, m.selectedAccount, m.balancesLoading, m.spin.View(), m.copiedMsg)
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = accounts.Nav(m.w - 2)

	case config.PageSettings:
		settingsContent := settings.Render(m.cfg, m.selectedRPCIdx)
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			settingsContent = styles.TitleStyle.Render("RPC Settings") + "\n\n" + m.form.View()
		}
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(settingsContent)
		nav = settings.Nav(m.w-2, m.settingsMode)

		if m.showRPCDeleteDialog {
			return m.renderRPCDeleteDialog()
		}
	}

	sections := []string{headerPanel, pageContent, nav}
	if m.logEnabled {
		m.logViewport.Height = logview.Height(m.h)
		sections = append(sections, logview.Render(m.w, m.logReady, m.logSpinner.View(), m.logViewport))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
