package main

import (
	"context"
	"time"

	"crowdfund-tui/campaign"
	"crowdfund-tui/rpc"
	"crowdfund-tui/views/overview"
	"crowdfund-tui/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// requestTimeout bounds a wallet handshake, a snapshot read or a broadcast
const requestTimeout = 30 * time.Second

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// connectRPC establishes an RPC connection to the Ethereum node
func connectRPC(url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		return rpcConnectedMsg{url: url, client: result.Client, err: result.Error}
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// connectWallet runs the wallet handshake; the controller reads the campaign right after
func connectWallet(s *session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		id, _, err := s.ctrl.Connect(ctx)
		return walletConnectedMsg{s: s, id: id, err: err}
	}
}

// refreshCampaign re-reads the campaign snapshot
func refreshCampaign(s *session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		return refreshedMsg{s: s, err: s.ctrl.Refresh(ctx)}
	}
}

// submitRequest validates and broadcasts a contribution or refund
func submitRequest(s *session, kind campaign.Kind, input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()
		tx, err := s.ctrl.Submit(ctx, kind, input)
		return submittedMsg{s: s, kind: kind, tx: tx, err: err}
	}
}

// awaitSettlement waits for a broadcast request to be mined.
// The controller applies its own settlement timeout.
func awaitSettlement(s *session, kind campaign.Kind, tx *types.Transaction) tea.Cmd {
	return func() tea.Msg {
		receipt, err := s.ctrl.Await(s.ctx, kind, tx)
		return settledMsg{s: s, kind: kind, receipt: receipt, err: err}
	}
}

// listenForChanges blocks until the controller reports a transition.
// Update re-issues it after every stateChangedMsg.
func listenForChanges(s *session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.changes:
			return stateChangedMsg{s: s}
		case <-s.done:
			return nil
		}
	}
}

// loadBalances fetches the ether balance of every signing account
func loadBalances(client *rpc.Client, addrs []common.Address) tea.Cmd {
	return func() tea.Msg {
		return balancesLoadedMsg{balances: rpc.LoadBalances(client, addrs)}
	}
}

// selectAccount switches the signing account; a connected wallet announces it
func selectAccount(w *wallet.Local, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		_ = w.SelectAccount(addr)
		return nil
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return nil
		}
		return clipboardCopiedMsg{what: what}
	}
}

// clearClipboardMsg waits 2 seconds then sends a message to clear clipboard feedback
func clearClipboardMsg() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clipboardClearMsg{}
	})
}

// -------------------- MODEL HELPER METHODS --------------------

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logEnabled || !m.logReady || m.logBuffer == nil {
		return
	}

	m.logViewport.SetContent(m.logBuffer.String())
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	if m.focus != overview.FocusNone {
		return true
	}
	if m.consentForm != nil {
		return true
	}
	if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		return true
	}
	return false
}
