// Package dashboard provides the quota monitor's terminal dashboard.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/antigravity-tools/quota-monitor/internal/models"
	"github.com/antigravity-tools/quota-monitor/internal/services"
	"github.com/antigravity-tools/quota-monitor/internal/ui/components"
)

const historyWindow = 24 * time.Hour

type refreshResultMsg struct {
	report  *models.QuotaReport
	history []models.QuotaSnapshot
	err     error
}

// keyMap defines the dashboard key bindings.
type keyMap struct {
	Refresh    key.Binding
	Invalidate key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Invalidate: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "re-detect server"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the dashboard's bubbletea model.
type Model struct {
	manager *services.Manager
	events  chan services.ServiceEvent

	spinner components.LoadingSpinner
	keys    keyMap

	report      *models.QuotaReport
	history     []models.QuotaSnapshot
	err         error
	loading     bool
	lastUpdated time.Time

	width  int
	height int
}

// New creates the dashboard model wired to a service manager.
func New(manager *services.Manager) *Model {
	return &Model{
		manager: manager,
		spinner: components.NewSpinner("Detecting language server..."),
		keys:    defaultKeyMap(),
		loading: true,
	}
}

// Init subscribes to service events and triggers the first refresh.
func (m *Model) Init() tea.Cmd {
	events, eventCmd := m.manager.Subscribe()
	m.events = events

	return tea.Batch(m.spinner.Init(), eventCmd, m.refreshCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				m.loading = true
				cmds = append(cmds, m.refreshCmd())
			}
		case key.Matches(msg, m.keys.Invalidate):
			if !m.loading {
				m.manager.Invalidate()
				m.loading = true
				m.spinner.SetLabel("Re-detecting language server...")
				cmds = append(cmds, m.refreshCmd())
			}
		}

	case refreshResultMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.history = msg.history
			m.lastUpdated = time.Now()
		}

	case services.ReportUpdatedEvent:
		// Background poll cycle completed; pick up its report.
		m.report = msg.Report
		m.err = nil
		m.loading = false
		m.lastUpdated = time.Now()
		cmds = append(cmds, m.historyCmd(), services.WaitForEvent(m.events))

	case services.ReportErrorEvent:
		m.err = msg.Err
		m.loading = false
		cmds = append(cmds, services.WaitForEvent(m.events))

	case services.ConfigReloadedEvent:
		cmds = append(cmds, services.WaitForEvent(m.events))

	case refreshHistoryMsg:
		if msg.err == nil {
			m.history = msg.history
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refreshCmd runs a full refresh cycle off the UI goroutine.
func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.manager.Refresh()
		if err != nil {
			return refreshResultMsg{err: err}
		}
		history, _ := m.manager.History(time.Now().UTC().Add(-historyWindow))
		return refreshResultMsg{report: report, history: history}
	}
}

type refreshHistoryMsg struct {
	history []models.QuotaSnapshot
	err     error
}

func (m *Model) historyCmd() tea.Cmd {
	return func() tea.Msg {
		history, err := m.manager.History(time.Now().UTC().Add(-historyWindow))
		return refreshHistoryMsg{history: history, err: err}
	}
}
