package main

import (
	"fmt"
	"strings"
	"time"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"
	"crowdfund-tui/helpers"
	"crowdfund-tui/views/home"
	logview "crowdfund-tui/views/log"
	"crowdfund-tui/views/overview"
	"crowdfund-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempRPCFormName string
	tempRPCFormURL  string
	tempConsent     bool
)

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempRPCFormName).
				Placeholder("My Sepolia Node"),

			huh.NewInput().
				Title("RPC URL").
				Description("The complete RPC URL (https://... or wss://...)").
				Value(&tempRPCFormURL).
				Placeholder("https://sepolia.infura.io/v3/...").
				Validate(validateRPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

func (m *model) createEditRPCForm(idx int) {
	if idx < 0 || idx >= len(m.cfg.RPCURLs) {
		return
	}

	rpc := m.cfg.RPCURLs[idx]
	tempRPCFormName = rpc.Name
	tempRPCFormURL = rpc.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Value(&tempRPCFormName).
				Placeholder("My Node"),

			huh.NewInput().
				Title("RPC URL").
				Value(&tempRPCFormURL).
				Placeholder("https://...").
				Validate(validateRPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

// createConsentForm asks before the wallet exposes its accounts
func (m *model) createConsentForm() {
	tempConsent = true
	accounts := m.wallet.Accounts()

	desc := fmt.Sprintf("The campaign client requests access to %d account(s).", len(accounts))
	if active, ok := m.wallet.Active(); ok {
		desc += "\nFirst account: " + helpers.ShortenAddr(active.Hex())
	}

	m.consentForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Connect wallet?").
				Description(desc).
				Affirmative("Connect").
				Negative("Reject").
				Value(&tempConsent),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.consentForm.Init()
}

func validateRPCURL(s string) error {
	s = strings.TrimSpace(s)
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, scheme) {
			return nil
		}
	}
	return fmt.Errorf("URL must start with http(s):// or ws(s)://")
}

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		m.addLog("info", "Logger enabled")
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = max(0, msg.Width-6)
		m.logViewport.Height = logview.Height(msg.Height)
		m.updateLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case rpcConnectedMsg:
		return m, m.handleRPCConnected(msg)

	case stateChangedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.syncState()
		return m, listenForChanges(msg.s)

	case walletConnectedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.syncState()
		if msg.err != nil {
			m.addLog("error", campaign.Describe(msg.err))
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("Wallet connected: `%s` on %s", helpers.ShortenAddr(msg.id.Account.Hex()), msg.id.Network))
		return m, m.reloadBalances()

	case refreshedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.syncState()
		if msg.err != nil {
			m.addLog("error", campaign.Describe(msg.err))
		}
		return m, nil

	case submittedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.syncState()
		if msg.err != nil {
			m.addLog("error", campaign.Describe(msg.err))
			return m, nil
		}
		m.addLog("info", fmt.Sprintf("%s sent: `%s`", msg.kind, msg.tx.Hash().Hex()))
		return m, awaitSettlement(msg.s, msg.kind, msg.tx)

	case settledMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.syncState()
		if msg.err != nil {
			// the amount stays so the user can retry
			m.addLog("error", campaign.Describe(msg.err))
		} else {
			m.inputFor(msg.kind).SetValue("")
			m.addLog("success", m.state.Status.Text)
		}
		return m, m.reloadBalances()

	case balancesLoadedMsg:
		m.balancesLoading = false
		m.balances = msg.balances
		for _, b := range msg.balances {
			if b.ErrMessage != "" {
				m.addLog("warning", fmt.Sprintf("Balance of `%s`: %s", helpers.ShortenAddr(b.Address.Hex()), b.ErrMessage))
			}
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied " + msg.what
		m.copiedMsgTime = time.Now()
		m.addLog("info", "Copied "+msg.what+" to clipboard")
		return m, clearClipboardMsg()

	case clipboardClearMsg:
		if time.Since(m.copiedMsgTime) >= 2*time.Second {
			m.copiedMsg = ""
		}
		return m, nil

	case tea.MouseMsg:
		if m.logEnabled && m.logReady {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.consentForm != nil {
		return m, m.updateConsentForm(msg)
	}

	if m.activePage == config.PageSettings && (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		return m, m.updateSettingsForm(msg)
	}

	if m.activePage == config.PageHome && m.homeForm != nil {
		return m, m.updateHomeForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKey(keyMsg)
	}

	// cursor blink and other input-internal messages
	if m.focus != overview.FocusNone {
		var cmd tea.Cmd
		in := m.focusedInput()
		*in, cmd = in.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleRPCConnected(msg rpcConnectedMsg) tea.Cmd {
	if msg.url != m.rpcURL {
		// endpoint was switched while dialing
		if msg.client != nil {
			msg.client.Close()
		}
		return nil
	}

	m.rpcConnecting = false
	if msg.err != nil {
		m.rpcConnected = false
		m.addLog("error", fmt.Sprintf("RPC connection failed: `%s`", msg.err.Error()))
		return nil
	}

	s, err := newSession(msg.client, m.cfg, m.env, m.wallet, m.logger)
	if err != nil {
		msg.client.Close()
		m.rpcConnected = false
		m.addLog("error", fmt.Sprintf("Campaign unavailable: %s", err))
		return nil
	}

	m.sess = s
	m.rpcConnected = true
	m.syncState()
	m.addLog("success", fmt.Sprintf("RPC connected to `%s`", msg.client.URL))
	m.addLog("info", fmt.Sprintf("Campaign contract `%s`", s.ctrl.Address().Hex()))
	return tea.Batch(listenForChanges(s), refreshCampaign(s), m.reloadBalances())
}

func (m *model) updateConsentForm(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.consentForm = nil
		m.addLog("info", "Connect cancelled")
		return nil
	}

	form, cmd := m.consentForm.Update(msg)
	f, ok := form.(*huh.Form)
	if !ok {
		return cmd
	}
	m.consentForm = f

	switch m.consentForm.State {
	case huh.StateCompleted:
		m.consentForm = nil
		if tempConsent {
			m.wallet.SetApprover(wallet.AutoApprove)
			m.addLog("info", "Wallet access approved")
		} else {
			m.wallet.SetApprover(wallet.Deny)
			m.addLog("warning", "Wallet access rejected")
		}
		if m.sess == nil {
			return nil
		}
		return connectWallet(m.sess)
	case huh.StateAborted:
		m.consentForm = nil
		return nil
	}
	return cmd
}

func (m *model) updateSettingsForm(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.settingsMode = "list"
		m.form = nil
		return nil
	}

	form, cmd := m.form.Update(msg)
	f, ok := form.(*huh.Form)
	if !ok {
		return cmd
	}
	m.form = f

	switch m.form.State {
	case huh.StateCompleted:
		var next tea.Cmd
		name := strings.TrimSpace(tempRPCFormName)
		url := strings.TrimSpace(tempRPCFormURL)
		if m.settingsMode == "add" && name != "" && url != "" {
			m.cfg.RPCURLs = append(m.cfg.RPCURLs, config.RPCUrl{Name: name, URL: url})
			m.addLog("success", fmt.Sprintf("Added RPC endpoint: `%s` (%s)", name, url))
			if len(m.cfg.RPCURLs) == 1 {
				next = m.switchRPC(0)
			}
		} else if m.settingsMode == "edit" && m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
			edited := &m.cfg.RPCURLs[m.selectedRPCIdx]
			edited.Name = name
			urlChanged := edited.URL != url
			edited.URL = url
			m.addLog("success", fmt.Sprintf("Updated RPC endpoint: `%s`", name))
			if edited.Active && urlChanged {
				next = m.switchRPC(m.selectedRPCIdx)
			}
		}
		m.saveConfig()
		m.settingsMode = "list"
		m.form = nil
		return next
	case huh.StateAborted:
		m.settingsMode = "list"
		m.form = nil
		return nil
	}
	return cmd
}

func (m *model) updateHomeForm(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.activePage = config.PageCampaign
			m.homeForm = home.CreateForm()
			return nil
		case "l", "L":
			return m.toggleLogger()
		case "q":
			return tea.Quit
		}
	}

	form, cmd := m.homeForm.Update(msg)
	f, ok := form.(*huh.Form)
	if !ok {
		return cmd
	}
	m.homeForm = f

	if m.homeForm.State == huh.StateCompleted {
		m.homeForm = home.CreateForm()
		return m.goTo(home.TempSelection)
	}
	return cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showRPCDeleteDialog {
		return m.handleRPCDeleteDialog(msg)
	}

	if !m.textInputActive() {
		switch msg.String() {
		case "q":
			return tea.Quit

		case "l", "L":
			return m.toggleLogger()

		case "pageup", "pagedown":
			if m.logEnabled && m.logReady {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return cmd
			}
		}
	}

	switch m.activePage {
	case config.PageCampaign:
		return m.handleCampaignKey(msg)
	case config.PageAccounts:
		return m.handleAccountsKey(msg)
	case config.PageSettings:
		return m.handleSettingsKey(msg)
	}
	return nil
}

func (m *model) handleCampaignKey(msg tea.KeyMsg) tea.Cmd {
	if m.focus != overview.FocusNone {
		switch msg.String() {
		case "esc":
			m.blurInputs()
			return nil
		case "tab", "shift+tab":
			return m.cycleFocus()
		case "enter":
			kind := campaign.Contribute
			if m.focus == overview.FocusRefund {
				kind = campaign.Refund
			}
			if m.sess == nil {
				m.addLog("warning", "No RPC connection")
				return nil
			}
			input := m.focusedInput().Value()
			m.addLog("info", fmt.Sprintf("Submitting %s of %s ETH", kind, strings.TrimSpace(input)))
			return submitRequest(m.sess, kind, input)
		}
		var cmd tea.Cmd
		in := m.focusedInput()
		*in, cmd = in.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "c", "C":
		return m.startConnect()

	case "r", "R":
		if m.sess == nil {
			m.addLog("warning", "No RPC connection")
			return nil
		}
		m.addLog("info", "Refreshing campaign")
		return refreshCampaign(m.sess)

	case "tab", "i":
		return m.cycleFocus()

	case "d":
		return m.disconnect()

	case "y":
		if m.sess == nil {
			return nil
		}
		return copyToClipboard(m.sess.ctrl.Address().Hex(), "contract address")

	case "t":
		if hash, ok := m.state.LastTx(); ok {
			return copyToClipboard(hash.Hex(), "transaction hash")
		}
		m.addLog("info", "No transaction yet")
		return nil

	case "v":
		m.showQR = !m.showQR
		return nil

	case "w":
		return m.goTo(config.PageAccounts)

	case "s":
		return m.goTo(config.PageSettings)

	case "h", "esc":
		return m.goTo(config.PageHome)
	}
	return nil
}

func (m *model) handleAccountsKey(msg tea.KeyMsg) tea.Cmd {
	accounts := m.wallet.Accounts()

	switch msg.String() {
	case "up", "k":
		if m.selectedAccount > 0 {
			m.selectedAccount--
		}
		return nil

	case "down", "j":
		if m.selectedAccount < len(accounts)-1 {
			m.selectedAccount++
		}
		return nil

	case "enter", " ":
		if m.selectedAccount >= len(accounts) {
			return nil
		}
		addr := accounts[m.selectedAccount]
		if m.state.Connected() {
			m.addLog("info", fmt.Sprintf("Switching to account `%s`", helpers.ShortenAddr(addr.Hex())))
		} else {
			m.addLog("info", fmt.Sprintf("Account `%s` will be used on connect", helpers.ShortenAddr(addr.Hex())))
		}
		return selectAccount(m.wallet, addr)

	case "b":
		return m.reloadBalances()

	case "y":
		if m.selectedAccount < len(accounts) {
			return copyToClipboard(accounts[m.selectedAccount].Hex(), "address")
		}
		return nil

	case "d":
		return m.disconnect()

	case "s":
		return m.goTo(config.PageSettings)

	case "h":
		return m.goTo(config.PageHome)

	case "esc":
		return m.goTo(config.PageCampaign)
	}
	return nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	if m.settingsMode != "list" {
		return nil
	}

	switch msg.String() {
	case "esc":
		return m.goTo(config.PageCampaign)

	case "h":
		return m.goTo(config.PageHome)

	case "a", "A":
		m.settingsMode = "add"
		m.createAddRPCForm()
		return nil

	case "e", "E":
		if len(m.cfg.RPCURLs) > 0 {
			m.settingsMode = "edit"
			m.createEditRPCForm(m.selectedRPCIdx)
		}
		return nil

	case "d", "delete", "backspace":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs) {
			m.showRPCDeleteDialog = true
			m.deleteRPCDialogYesSelected = true
			m.deleteRPCDialogIdx = m.selectedRPCIdx
			name := strings.TrimSpace(m.cfg.RPCURLs[m.selectedRPCIdx].Name)
			if name == "" {
				name = m.cfg.RPCURLs[m.selectedRPCIdx].URL
			}
			m.deleteRPCDialogName = name
		}
		return nil

	case "up", "k":
		if m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
		return nil

	case "down", "j":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs)-1 {
			m.selectedRPCIdx++
		}
		return nil

	case "enter", " ":
		if m.selectedRPCIdx < len(m.cfg.RPCURLs) {
			return m.switchRPC(m.selectedRPCIdx)
		}
		return nil
	}
	return nil
}

func (m *model) handleRPCDeleteDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab":
		m.deleteRPCDialogYesSelected = !m.deleteRPCDialogYesSelected
		return nil

	case "enter":
		m.showRPCDeleteDialog = false
		if !m.deleteRPCDialogYesSelected {
			return nil
		}
		idx := m.deleteRPCDialogIdx
		if idx < 0 || idx >= len(m.cfg.RPCURLs) {
			return nil
		}
		wasActive := m.cfg.RPCURLs[idx].Active
		m.cfg.RPCURLs = append(m.cfg.RPCURLs[:idx], m.cfg.RPCURLs[idx+1:]...)
		if m.selectedRPCIdx >= len(m.cfg.RPCURLs) && m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
		m.addLog("warning", fmt.Sprintf("Deleted RPC endpoint `%s`", m.deleteRPCDialogName))
		m.saveConfig()

		if !wasActive {
			return nil
		}
		if len(m.cfg.RPCURLs) > 0 {
			return m.switchRPC(0)
		}
		m.dropSession()
		m.rpcURL = ""
		return nil

	case "esc":
		m.showRPCDeleteDialog = false
		return nil
	}
	return nil
}

// -------------------- ACTIONS --------------------

// goTo switches page and starts whatever the page needs
func (m *model) goTo(page config.Page) tea.Cmd {
	m.blurInputs()
	m.activePage = page
	switch page {
	case config.PageAccounts:
		accounts := m.wallet.Accounts()
		if active, ok := m.wallet.Active(); ok {
			for i, a := range accounts {
				if a == active {
					m.selectedAccount = i
				}
			}
		}
		return m.reloadBalances()
	case config.PageSettings:
		m.settingsMode = "list"
	}
	return nil
}

func (m *model) startConnect() tea.Cmd {
	if m.sess == nil {
		m.addLog("error", "No RPC connection. Check RPC settings.")
		return nil
	}
	if m.state.Connected() {
		m.addLog("info", "Wallet already connected")
		return nil
	}
	if len(m.wallet.Accounts()) == 0 {
		// the controller reports the missing wallet
		return connectWallet(m.sess)
	}
	m.createConsentForm()
	return nil
}

func (m *model) disconnect() tea.Cmd {
	if !m.state.Connected() {
		return nil
	}
	m.addLog("info", "Disconnecting wallet")
	w := m.wallet
	return func() tea.Msg {
		w.Disconnect()
		return nil
	}
}

// switchRPC activates endpoint idx and rebuilds the session on it
func (m *model) switchRPC(idx int) tea.Cmd {
	m.cfg.SetActiveRPC(idx)
	m.rpcURL = m.cfg.ActiveRPC()
	m.saveConfig()
	m.dropSession()

	m.rpcConnecting = true
	m.addLog("info", fmt.Sprintf("Switching RPC to `%s`", m.rpcURL))
	return connectRPC(m.rpcURL)
}

// dropSession tears down the current session; its event history goes with it
func (m *model) dropSession() {
	m.sess.close()
	m.sess = nil
	m.rpcConnected = false
	m.state = campaign.State{Snapshot: campaign.EmptySnapshot()}
	m.blurInputs()
}

func (m *model) reloadBalances() tea.Cmd {
	if m.sess == nil {
		return nil
	}
	accounts := m.wallet.Accounts()
	if len(accounts) == 0 {
		return nil
	}
	m.balancesLoading = true
	return loadBalances(m.sess.client, accounts)
}

func (m *model) toggleLogger() tea.Cmd {
	m.logEnabled = !m.logEnabled
	m.saveConfig()
	if m.logEnabled {
		m.logReady = false
		return tea.Batch(initLogViewport(), m.logSpinner.Tick)
	}
	m.logBuffer.Reset()
	m.logReady = false
	return nil
}

// syncState copies the controller projection and drops focus from inputs
// that are no longer shown
func (m *model) syncState() {
	if m.sess != nil {
		m.state = m.sess.ctrl.State()
	}
	if m.focus == overview.FocusContribute && !m.canContribute() ||
		m.focus == overview.FocusRefund && !m.canRefund() {
		m.blurInputs()
	}
	m.updateLogViewport()
}

func (m model) canContribute() bool {
	snap := m.state.Snapshot
	return m.state.Connected() && snap.Loaded() && !snap.HasContributed && !snap.Locked
}

func (m model) canRefund() bool {
	mine := m.state.Snapshot.MyContribution
	return m.state.Connected() && m.state.Snapshot.Loaded() && mine != nil && mine.Sign() > 0 && !m.state.Snapshot.Locked
}

// cycleFocus moves the cursor through the amount inputs that are shown
func (m *model) cycleFocus() tea.Cmd {
	order := []overview.Focus{overview.FocusNone}
	if m.canContribute() {
		order = append(order, overview.FocusContribute)
	}
	if m.canRefund() {
		order = append(order, overview.FocusRefund)
	}
	if len(order) == 1 {
		if !m.state.Connected() {
			m.addLog("warning", "Connect your wallet first")
		}
		return nil
	}

	next := order[0]
	for i, f := range order {
		if f == m.focus {
			next = order[(i+1)%len(order)]
		}
	}

	m.blurInputs()
	m.focus = next
	if in := m.focusedInput(); in != nil {
		return in.Focus()
	}
	return nil
}

func (m *model) blurInputs() {
	m.focus = overview.FocusNone
	m.contributeInput.Blur()
	m.refundInput.Blur()
}

func (m *model) focusedInput() *textinput.Model {
	switch m.focus {
	case overview.FocusContribute:
		return &m.contributeInput
	case overview.FocusRefund:
		return &m.refundInput
	}
	return nil
}

func (m *model) inputFor(kind campaign.Kind) *textinput.Model {
	if kind == campaign.Refund {
		return &m.refundInput
	}
	return &m.contributeInput
}
