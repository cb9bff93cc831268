// Package ui provides the Bubble Tea TUI for the gift sniper.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avkor/giftsniper/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseForm      Phase = "form"      // Run settings form
	PhaseDashboard Phase = "dashboard" // Run dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// Form field indexes.
const (
	fieldSession = iota
	fieldRecipient
	fieldMaxPrice
	fieldInterval
	fieldCount
)

// FormDefaults seeds the settings form.
type FormDefaults struct {
	Session       string
	Recipient     string
	MaxPriceStars int64
	PollInterval  time.Duration
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys KeyMap

	// Components
	logFeed *components.LogFeedComponent
	status  *components.StatusComponent

	// Form state
	inputs     []textinput.Model
	focusIndex int
	formError  string

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// Run state
	runState     string
	balance      string
	lastPurchase *PurchaseMsg

	// State
	quitting bool
	width    int
	height   int
}

// New creates a new TUI model.
func New(defaults FormDefaults) Model {
	inputs := make([]textinput.Model, fieldCount)
	labels := []struct {
		placeholder string
		value       string
	}{
		{placeholder: "tg_gifts.session", value: defaults.Session},
		{placeholder: "me", value: defaults.Recipient},
		{placeholder: "500", value: strconv.FormatInt(defaults.MaxPriceStars, 10)},
		{placeholder: "15s", value: defaults.PollInterval.String()},
	}
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = labels[i].placeholder
		in.SetValue(labels[i].value)
		in.CharLimit = 64
		in.Width = 32
		inputs[i] = in
	}
	inputs[fieldSession].Focus()

	return Model{
		keys:         DefaultKeyMap(),
		logFeed:      components.NewLogFeedComponent(12),
		status:       components.NewStatusComponent(),
		inputs:       inputs,
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
		runState:     "idle",
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) && (m.phase != PhaseForm || msg.String() == "ctrl+c") {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.phase {
		case PhaseWelcome:
			// Any key skips the welcome screen
			m.phase = PhaseForm
			return m, nil
		case PhaseForm:
			return m.updateForm(msg)
		case PhaseDashboard:
			return m.updateDashboard(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseForm
		}
		return m, tickCmd()

	case LogMsg:
		m.logFeed.Add(msg.Level, msg.Message)

	case BalanceMsg:
		m.balance = msg.Balance
		m.logFeed.Add("info", fmt.Sprintf("Balance: %s Stars", msg.Balance))

	case RunStateMsg:
		m.runState = msg.State

	case PurchaseMsg:
		purchase := msg
		m.lastPurchase = &purchase

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			LastUpdate: time.Now(),
		})

	case ErrorMsg:
		m.logFeed.Add("error", msg.Error.Error())
	}

	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % fieldCount
		return m.refocus(), nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + fieldCount - 1) % fieldCount
		return m.refocus(), nil
	case "esc":
		m.phase = PhaseDashboard
		return m, nil
	case "enter":
		if m.focusIndex < fieldCount-1 {
			m.focusIndex++
			return m.refocus(), nil
		}
		return m.startRun()
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) refocus() Model {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Start):
		return m.startRun()
	case key.Matches(msg, m.keys.Stop):
		if OnStopRun != nil {
			go OnStopRun()
		}
		return m, nil
	case key.Matches(msg, m.keys.Balance):
		if OnCheckBalance != nil {
			// Balance is read for whatever session the form currently
			// names, not the configured default.
			session := strings.TrimSpace(m.inputs[fieldSession].Value())
			go OnCheckBalance(session)
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		m.phase = PhaseForm
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.logFeed.Clear()
		return m, nil
	}
	return m, nil
}

// startRun validates the form and fires the start callback.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	maxPrice, err := strconv.ParseInt(strings.TrimSpace(m.inputs[fieldMaxPrice].Value()), 10, 64)
	if err != nil || maxPrice <= 0 {
		m.formError = "max price must be a positive integer"
		m.phase = PhaseForm
		return m, nil
	}
	interval, err := time.ParseDuration(strings.TrimSpace(m.inputs[fieldInterval].Value()))
	if err != nil || interval <= 0 {
		m.formError = "poll interval must be a duration like 15s"
		m.phase = PhaseForm
		return m, nil
	}

	m.formError = ""
	m.phase = PhaseDashboard

	session := strings.TrimSpace(m.inputs[fieldSession].Value())
	recipient := strings.TrimSpace(m.inputs[fieldRecipient].Value())
	if OnStartRun != nil {
		// Callbacks run off the Update goroutine; they may Send back.
		go OnStartRun(session, recipient, maxPrice, interval)
	}
	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseForm:
		return m.renderForm()
	default:
		return m.renderDashboard()
	}
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
    ██████╗ ██╗███████╗████████╗    ███████╗███╗   ██╗██╗██████╗ ███████╗██████╗
   ██╔════╝ ██║██╔════╝╚══██╔══╝    ██╔════╝████╗  ██║██║██╔══██╗██╔════╝██╔══██╗
   ██║  ███╗██║█████╗     ██║       ███████╗██╔██╗ ██║██║██████╔╝█████╗  ██████╔╝
   ██║   ██║██║██╔══╝     ██║       ╚════██║██║╚██╗██║██║██╔═══╝ ██╔══╝  ██╔══██╗
   ╚██████╔╝██║██║        ██║       ███████║██║ ╚████║██║██║     ███████╗██║  ██║
    ╚═════╝ ╚═╝╚═╝        ╚═╝       ╚══════╝╚═╝  ╚═══╝╚═╝╚═╝     ╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("            T E L E G R A M   S T A R S   G I F T   S N I P E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("                  ⭐  First come, first gifted  ⭐"))
	sb.WriteString("\n\n\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderForm renders the run settings form.
func (m Model) renderForm() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(TitleStyle.Render(" ⭐ Gift Sniper — Run Settings "))
	sb.WriteString("\n\n")

	labels := []string{"Session file", "Recipient", "Max price (Stars)", "Poll interval"}
	for i, in := range m.inputs {
		label := LabelStyle
		if i == m.focusIndex {
			label = FocusedLabelStyle
		}
		sb.WriteString("  ")
		sb.WriteString(label.Render(labels[i]))
		sb.WriteString(in.View())
		sb.WriteString("\n")
	}

	if m.formError != "" {
		sb.WriteString("\n  ")
		sb.WriteString(NegativeValue.Render("✗ " + m.formError))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render("tab/↑↓: move • enter: start run • esc: dashboard • ctrl+c: quit"))
	sb.WriteString("\n")

	return sb.String()
}

// renderDashboard renders the main run dashboard.
func (m Model) renderDashboard() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(TitleStyle.Render(" ⭐ Gift Sniper "))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderStatusBar())
	sb.WriteString("\n\n")

	body := m.logFeed.View()
	if m.width > 4 {
		sb.WriteString(BoxStyle.Width(m.width - 4).Render(body))
	} else {
		sb.WriteString(body)
	}
	sb.WriteString("\n")

	if m.lastPurchase != nil {
		sb.WriteString("\n  ")
		sb.WriteString(PositiveValue.Render(fmt.Sprintf("✓ Bought gift %d for %s Stars",
			m.lastPurchase.GiftID, m.lastPurchase.Price)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render("s: start • x: stop • b: balance • e: edit settings • c: clear • q: quit"))

	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := make([]string, 0, 4)

	stateStyle := MutedValue
	switch m.runState {
	case "done", "idle":
	case "attempting_purchase":
		stateStyle = StatusConnected
	default:
		stateStyle = StatusRunning
	}
	parts = append(parts, stateStyle.Render("Run: "+m.runState))

	if m.balance != "" {
		parts = append(parts, PositiveValue.Render("Balance: "+m.balance+" ⭐"))
	}

	if status := m.status.View(); status != "No connections" {
		parts = append(parts, strings.TrimSuffix(strings.ReplaceAll(status, "├─ ", ""), "\n"))
	}

	return "  " + strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Callbacks wired by main.go before Run.
var (
	// OnStartRun is called with the validated form values when the user starts a run.
	OnStartRun func(session, recipient string, maxPriceStars int64, pollInterval time.Duration)

	// OnStopRun is called when the user requests cancellation.
	OnStopRun func()

	// OnCheckBalance is called with the form's session value when the
	// user asks for a balance readout.
	OnCheckBalance func(session string)
)

// Run starts the Bubble Tea program.
func Run(defaults FormDefaults) error {
	Program = tea.NewProgram(New(defaults), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
