package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/walletd/business/wallet/domain"
	"github.com/fd1az/walletd/pkg/ui/components"
)

// Controller is the wallet session driven by the dashboard.
type Controller interface {
	Snapshot() domain.Snapshot
	Subscribe(ch chan<- domain.Snapshot) event.Subscription
	Connect(ctx context.Context) error
	SelectWallet(ctx context.Context, name domain.WalletName) error
	UnlockWallet(ctx context.Context) error
	SignIn(ctx context.Context, statement string) error
	SwitchNetwork(ctx context.Context, chainID uint64) error
	Disconnect(ctx context.Context) error
	RefreshLatestBlock(ctx context.Context) error
}

// AccountSwitcher moves the connected wallet to another of its accounts.
type AccountSwitcher interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SelectAccount(ctx context.Context, addr common.Address) error
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctl       Controller
	accounts  AccountSwitcher
	statement string

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model

	// Components
	phases   *components.PhasesComponent
	account  *components.AccountComponent
	networks *components.NetworksComponent

	phase        Phase
	welcomeStart time.Time

	quitting bool
	width    int
	height   int

	snap     domain.Snapshot
	prompt   *PromptMsg
	errors   []ErrorEntry // last 3
	activity []string
}

// Option configures a Model.
type Option func(*Model)

// WithAccountSwitcher enables the next account key.
func WithAccountSwitcher(a AccountSwitcher) Option {
	return func(m *Model) { m.accounts = a }
}

// WithStatement sets the sign-in statement.
func WithStatement(statement string) Option {
	return func(m *Model) { m.statement = statement }
}

// WithoutWelcome opens the dashboard directly.
func WithoutWelcome() Option {
	return func(m *Model) { m.phase = PhaseDashboard }
}

// New creates a new TUI model.
func New(ctl Controller, opts ...Option) Model {
	supported := domain.SupportedNetworks()
	rows := make([]components.NetworkRow, 0, len(supported))
	for _, n := range supported {
		rows = append(rows, components.NetworkRow{
			ChainID: n.ChainID,
			Name:    n.Name,
			Symbol:  n.NativeCurrency.Symbol,
			Testnet: n.Testnet,
		})
	}

	input := textinput.New()
	input.Placeholder = "passphrase"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 256

	m := Model{
		ctl:          ctl,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorInfo))),
		input:        input,
		phases:       components.NewPhasesComponent("SESSION"),
		account:      components.NewAccountComponent(),
		networks:     components.NewNetworksComponent(rows, 8),
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
		errors:       make([]ErrorEntry, 0, 3),
		activity:     make([]string, 0, 8),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m, cmd := m.enterDashboard()
			return m, tea.Batch(cmd, tickCmd())
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.phases.Frame = m.spinner.View()
		return m, cmd

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)

	case CommandResultMsg:
		if msg.Err != nil {
			m.addError(fmt.Sprintf("%s: %v", msg.Command, msg.Err))
		}

	case AccountsMsg:
		if msg.Err != nil {
			m.addError(fmt.Sprintf("Accounts: %v", msg.Err))
			return m, nil
		}
		return m, m.nextAccount(msg.Accounts)

	case PromptMsg:
		m.prompt = &msg
		m.addActivity("Waiting: " + msg.Title)
		if msg.Kind == PromptPassphrase {
			m.input.Reset()
			return m, m.input.Focus()
		}

	case PromptDoneMsg:
		if m.prompt != nil && m.prompt.ID == msg.ID {
			m.addActivity("Expired: " + m.prompt.Title)
			m.closePrompt()
		}

	case ErrorMsg:
		m.addError(msg.Error.Error())

	case LogMsg:
		m.addActivity(fmt.Sprintf("%s: %s", msg.Level, msg.Message))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	// During welcome phase, any other key skips to the dashboard
	if m.phase == PhaseWelcome {
		return m.enterDashboard()
	}

	ctl := m.ctl
	switch {
	case key.Matches(msg, m.keys.Connect):
		return m, run("Connect", ctl.Connect)

	case key.Matches(msg, m.keys.Select):
		idx := int(msg.String()[0] - '1')
		wallets := m.snap.Provider.InstalledWallets
		if idx < 0 || idx >= len(wallets) {
			return m, nil
		}
		name := wallets[idx].Name
		return m, run("SelectWallet", func(ctx context.Context) error {
			return ctl.SelectWallet(ctx, name)
		})

	case key.Matches(msg, m.keys.Unlock):
		return m, run("UnlockWallet", ctl.UnlockWallet)

	case key.Matches(msg, m.keys.Sign):
		statement := m.statement
		return m, run("SignIn", func(ctx context.Context) error {
			return ctl.SignIn(ctx, statement)
		})

	case key.Matches(msg, m.keys.Up):
		m.networks.ScrollUp()

	case key.Matches(msg, m.keys.Down):
		m.networks.ScrollDown()

	case key.Matches(msg, m.keys.Switch):
		row, ok := m.networks.Selected()
		if !ok {
			return m, nil
		}
		return m, run("SwitchNetwork", func(ctx context.Context) error {
			return ctl.SwitchNetwork(ctx, row.ChainID)
		})

	case key.Matches(msg, m.keys.Refresh):
		return m, run("RefreshLatestBlock", ctl.RefreshLatestBlock)

	case key.Matches(msg, m.keys.NextAccount):
		if m.accounts == nil {
			return m, nil
		}
		accounts := m.accounts
		return m, func() tea.Msg {
			list, err := accounts.Accounts(context.Background())
			return AccountsMsg{Accounts: list, Err: err}
		}

	case key.Matches(msg, m.keys.Disconnect):
		return m, run("Disconnect", ctl.Disconnect)

	case key.Matches(msg, m.keys.ClearErrors):
		m.errors = make([]ErrorEntry, 0, 3)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt

	if p.Kind == PromptPassphrase {
		switch msg.Type {
		case tea.KeyEnter:
			p.Answer(m.input.Value(), true)
			m.addActivity("Submitted: " + p.Title)
			m.closePrompt()
		case tea.KeyEsc:
			p.Answer("", false)
			m.addActivity("Rejected: " + p.Title)
			m.closePrompt()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "y", "enter":
		p.Answer("", true)
		m.addActivity("Approved: " + p.Title)
		m.closePrompt()
	case "n", "esc":
		p.Answer("", false)
		m.addActivity("Rejected: " + p.Title)
		m.closePrompt()
	}
	return m, nil
}

func (m *Model) closePrompt() {
	m.prompt = nil
	m.input.Reset()
	m.input.Blur()
}

// enterDashboard leaves the welcome screen, starts the modules and connects.
func (m Model) enterDashboard() (Model, tea.Cmd) {
	if m.phase != PhaseWelcome {
		return m, nil
	}
	m.phase = PhaseDashboard
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
	return m, run("Connect", m.ctl.Connect)
}

func (m *Model) nextAccount(accounts []common.Address) tea.Cmd {
	if len(accounts) < 2 || m.accounts == nil {
		m.addActivity("No other account in this wallet")
		return nil
	}

	next := accounts[0]
	if cur := m.snap.Account.Account; cur != nil {
		for i, addr := range accounts {
			if addr == cur.Address {
				next = accounts[(i+1)%len(accounts)]
				break
			}
		}
	}

	switcher := m.accounts
	return run("SelectAccount", func(ctx context.Context) error {
		return switcher.SelectAccount(ctx, next)
	})
}

func (m *Model) applySnapshot(s domain.Snapshot) {
	prev := m.snap
	m.snap = s

	for _, change := range changes(prev, s) {
		m.addActivity(change)
	}
	if s.Session.Error != "" && s.Session.Error != prev.Session.Error {
		m.addError(s.Session.Error)
	}

	m.phases.Update(phaseRows(s))
	m.account.Update(accountInfo(s))
	var chainID uint64
	if s.Network.Network != nil {
		chainID = s.Network.Network.ChainID
	}
	m.networks.SetCurrent(chainID)
}

// run wraps a session command; commands block until the session settles.
func run(name string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return CommandResultMsg{Command: name, Err: fn(context.Background())}
	}
}

// addError keeps the last 3 errors.
func (m *Model) addError(message string) {
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

// addActivity keeps the last 8 activity lines.
func (m *Model) addActivity(message string) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	m.activity = append(m.activity, line)
	if len(m.activity) > 8 {
		m.activity = m.activity[len(m.activity)-8:]
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if m.phase == PhaseWelcome {
		return m.renderWelcomeScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" walletd "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.phases.View() + "\n\n" + m.account.View()
	right := m.networks.View() + "\n\n" + m.renderActivityFeed()

	if m.width > 100 {
		l := BoxStyle.Width(m.width/2 - 2).Render(left)
		r := BoxStyle.Width(m.width/2 - 2).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, r))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n\n")

	if m.prompt != nil {
		b.WriteString(m.renderPrompt())
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		header := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		b.WriteString(header.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderPrompt() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(m.prompt.Title))
	sb.WriteString("\n\n")
	sb.WriteString(m.prompt.Detail)
	sb.WriteString("\n\n")

	if m.prompt.Kind == PromptPassphrase {
		sb.WriteString(m.input.View())
		sb.WriteString("\n\n")
		sb.WriteString(MutedValue.Render("enter: unlock • esc: reject"))
	} else {
		sb.WriteString(MutedValue.Render("y: approve • n: reject"))
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	return PromptBoxStyle.Width(width).Render(sb.String())
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activity) == 0 {
		sb.WriteString(MutedValue.Render("  Press c to connect a wallet"))
		return sb.String()
	}
	for _, line := range m.activity {
		if strings.Contains(line, "Block #") {
			sb.WriteString(ActivityStyle.Render("  " + line))
		} else {
			sb.WriteString(MutedValue.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██╗    ██╗ █████╗ ██╗     ██╗     ███████╗████████╗██████╗
   ██║    ██║██╔══██╗██║     ██║     ██╔════╝╚══██╔══╝██╔══██╗
   ██║ █╗ ██║███████║██║     ██║     █████╗     ██║   ██║  ██║
   ██║███╗██║██╔══██║██║     ██║     ██╔══╝     ██║   ██║  ██║
   ╚███╔███╔╝██║  ██║███████╗███████╗███████╗   ██║   ██████╔╝
    ╚══╝╚══╝ ╚═╝  ╚═╝╚══════╝╚══════╝╚══════╝   ╚═╝   ╚═════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("              W A L L E T   S E S S I O N   D A E M O N"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("                     Detecting wallets%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("               Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	switch state := m.snap.Session.State; state {
	case domain.Authenticated:
		parts = append(parts, StatusAuthenticated.Render("● Authenticated"))
	case domain.NotInitialized:
		parts = append(parts, StatusIdle.Render("○ Disconnected"))
	default:
		parts = append(parts, StatusPending.Render(m.spinner.View()+" "+state.String()))
	}

	if w := m.snap.Provider.ConnectedWallet; w != nil {
		parts = append(parts, w.Label)
	}
	if a := m.snap.Account.Account; a != nil {
		name := a.ShortAddress
		if a.DomainName != "" {
			name = a.DomainName
		}
		parts = append(parts, name)
	}
	if n := m.snap.Network.Network; n != nil {
		parts = append(parts, fmt.Sprintf("%s (%d)", n.Name, n.ChainID))
	}
	if b := m.snap.Network.BlockInfo; b != nil {
		parts = append(parts, "Block: #"+b.BlockNumber)
	}
	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// Run starts the Bubble Tea program with m.
func Run(m Model) error {
	Program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}

// WatchSession forwards session snapshots to send until ctx ends. Bursts are
// coalesced so only the newest snapshot is delivered.
func WatchSession(ctx context.Context, ctl Controller, send func(tea.Msg)) {
	updates := make(chan domain.Snapshot, 16)
	sub := ctl.Subscribe(updates)
	latest := make(chan domain.Snapshot, 1)

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case snap := <-updates:
				select {
				case <-latest:
				default:
				}
				latest <- snap
			case <-sub.Err():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		send(SnapshotMsg{Snapshot: ctl.Snapshot()})
		for {
			select {
			case snap := <-latest:
				send(SnapshotMsg{Snapshot: snap})
			case <-ctx.Done():
				return
			}
		}
	}()
}
