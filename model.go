package main

import (
	"bytes"
	"io"
	"sync"
	"time"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"
	"crowdfund-tui/rpc"
	"crowdfund-tui/styles"
	"crowdfund-tui/views/home"
	"crowdfund-tui/views/overview"
	"crowdfund-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	cfg        config.Config
	fileCfg    config.Config
	env        config.Env
	configPath string

	// wallet and the session bound to the active RPC endpoint
	wallet        *wallet.Local
	sess          *session
	rpcURL        string
	rpcConnected  bool
	rpcConnecting bool

	// projection of the controller state, refreshed on every transition
	state campaign.State

	// campaign page
	contributeInput textinput.Model
	refundInput     textinput.Model
	focus           overview.Focus
	showQR          bool
	consentForm     *huh.Form

	// accounts page
	balances        []rpc.AccountBalance
	balancesLoading bool
	selectedAccount int

	spin spinner.Model

	// clipboard feedback
	copiedMsg     string
	copiedMsgTime time.Time

	// settings state
	settingsMode   string // "list", "add", "edit"
	selectedRPCIdx int
	form           *huh.Form

	// home form
	homeForm *huh.Form

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *lockedBuffer
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model

	// RPC delete confirmation dialog
	showRPCDeleteDialog        bool
	deleteRPCDialogName        string
	deleteRPCDialogIdx         int
	deleteRPCDialogYesSelected bool
}

// lockedBuffer is the log sink; the controller logs from its own goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// newPanelLogger creates the logger rendered in the log panel
func newPanelLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.DebugLevel,
	})
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(cError).SetString("ERROR"),
		},
	})
	return logger
}

func newAmountInput(prompt, placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = prompt
	in.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	in.CharLimit = 40
	in.Width = 32
	return in
}

// -------------------- INIT --------------------

// newModel creates the model for an already loaded configuration and wallet
func newModel(rt appConfig, w *wallet.Local) model {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Will be resized in Update on first WindowSizeMsg
	vp := viewport.New(0, 20)
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	buf := &lockedBuffer{}

	return model{
		activePage:      config.PageCampaign,
		cfg:             rt.cfg,
		fileCfg:         rt.file,
		env:             rt.env,
		configPath:      rt.path,
		wallet:          w,
		rpcURL:          rt.cfg.ActiveRPC(),
		rpcConnecting:   rt.cfg.ActiveRPC() != "",
		state:           campaign.State{Snapshot: campaign.EmptySnapshot()},
		contributeInput: newAmountInput("Amount (ETH): ", "0.1"),
		refundInput:     newAmountInput("Amount (ETH): ", "0.05"),
		spin:            sp,
		settingsMode:    "list",
		homeForm:        home.CreateForm(),
		logEnabled:      rt.cfg.Logger,
		logger:          newPanelLogger(buf),
		logBuffer:       buf,
		logViewport:     vp,
		logSpinner:      logSpin,
	}
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	if m.rpcURL != "" {
		cmds = append(cmds, connectRPC(m.rpcURL))
	}
	return tea.Batch(cmds...)
}

// saveConfig persists settings; failures only reach the log
func (m *model) saveConfig() {
	m.cfg.Logger = m.logEnabled
	if err := config.Save(m.configPath, m.cfg.Persistent(m.fileCfg, m.env)); err != nil {
		m.addLog("error", err.Error())
	}
}

// shutdown releases the current session when the program exits
func (m *model) shutdown() {
	m.sess.close()
	m.sess = nil
}
