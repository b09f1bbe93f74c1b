// Package services orchestrates polling, persistence, and event routing.
package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"

	"github.com/antigravity-tools/quota-monitor/internal/config"
	"github.com/antigravity-tools/quota-monitor/internal/db"
	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

type (
	// ReportUpdatedEvent is emitted when a fresh quota report is available.
	ReportUpdatedEvent struct {
		Report *models.QuotaReport
	}

	// ReportErrorEvent is emitted when a refresh cycle fails.
	ReportErrorEvent struct {
		Err error
	}

	// ConfigReloadedEvent is emitted after a config file change is applied.
	ConfigReloadedEvent struct {
		Config *config.Config
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ReportUpdatedEvent) isServiceEvent()  {}
func (ReportErrorEvent) isServiceEvent()    {}
func (ConfigReloadedEvent) isServiceEvent() {}

// Reporter produces quota reports. *quota.Service satisfies it.
type Reporter interface {
	Report() (*models.QuotaReport, error)
	Invalidate()
}

// Manager drives the refresh cycle: poll, persist, notify, broadcast.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	reporter    Reporter
	database    *db.DB
	subscribers []chan<- ServiceEvent

	lastReport *models.QuotaReport

	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer // guarded by mu

	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager, opens the history database, and starts the
// poll loop plus the config file watcher.
func NewManager(cfg *config.Config, reporter Reporter) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		reporter: reporter,
		stopChan: make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Path() != "" {
		if err := m.startWatcher(cfg.Path()); err != nil {
			logger.Warn("config watcher unavailable, live reload disabled", "error", err)
		}
	}

	go m.pollLoop()

	return m, nil
}

// Refresh runs one full refresh cycle: report, snapshot, notifications,
// broadcast. Errors are broadcast as well as returned.
func (m *Manager) Refresh() (*models.QuotaReport, error) {
	report, err := m.reporter.Report()
	if err != nil {
		m.broadcast(ReportErrorEvent{Err: err})
		return nil, err
	}

	m.recordSnapshot(report)

	m.mu.Lock()
	previous := m.lastReport
	m.lastReport = report
	cfg := m.cfg
	m.mu.Unlock()

	if cfg.Notifications.Enabled {
		m.checkNotifications(previous, report, cfg.Notifications.LowCreditThreshold)
	}

	m.broadcast(ReportUpdatedEvent{Report: report})
	return report, nil
}

// Invalidate drops the cached connection so the next refresh re-detects.
func (m *Manager) Invalidate() {
	m.reporter.Invalidate()
}

// LastReport returns the most recent successful report, or nil.
func (m *Manager) LastReport() *models.QuotaReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

// History returns stored snapshots captured at or after since.
func (m *Manager) History(since time.Time) ([]models.QuotaSnapshot, error) {
	return m.database.GetSnapshots(since)
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// pollLoop refreshes on the configured interval until Close.
func (m *Manager) pollLoop() {
	for {
		m.mu.RLock()
		interval := m.cfg.RefreshInterval
		m.mu.RUnlock()
		if interval <= 0 {
			interval = time.Minute
		}

		select {
		case <-time.After(interval):
			if _, err := m.Refresh(); err != nil {
				logger.Warn("scheduled refresh failed", "error", err)
			}
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) recordSnapshot(report *models.QuotaReport) {
	snap := db.SnapshotFromReport(report)
	if err := m.database.InsertSnapshot(snap); err != nil {
		logger.Error("failed to record snapshot", "error", err)
		return
	}

	m.mu.RLock()
	retention := m.cfg.HistoryRetention
	m.mu.RUnlock()

	cutoff := report.Timestamp.Add(-retention)
	if deleted, err := m.database.PruneOlderThan(cutoff); err != nil {
		logger.Error("failed to prune history", "error", err)
	} else if deleted > 0 {
		logger.Debug("pruned old snapshots", "deleted", deleted)
	}
}

// checkNotifications fires desktop notifications on threshold crossings.
// Transitions only: the first report never notifies, and a condition that
// was already true last cycle stays silent.
func (m *Manager) checkNotifications(previous, current *models.QuotaReport, threshold float64) {
	if previous == nil {
		return
	}

	wasExhausted := make(map[string]bool)
	for _, mq := range previous.Models {
		if mq.IsExhausted {
			wasExhausted[mq.Label] = true
		}
	}
	for _, mq := range current.Models {
		if mq.IsExhausted && !wasExhausted[mq.Label] {
			title := fmt.Sprintf("Quota Exhausted: %s", mq.Label)
			_ = beeep.Notify(title, "This model is out of quota until the next reset.", "")
		}
	}

	notifyLowCredits("Prompt", previous.PromptCredits, current.PromptCredits, threshold)
	notifyLowCredits("Flow", previous.FlowCredits, current.FlowCredits, threshold)
}

func notifyLowCredits(kind string, previous, current *models.CreditBlock, threshold float64) {
	if previous == nil || current == nil {
		return
	}
	if current.RemainingPercentage < threshold && previous.RemainingPercentage >= threshold {
		title := fmt.Sprintf("Low %s Credits", kind)
		body := fmt.Sprintf("Remaining credits are below %.0f%% (%.1f%%)", threshold, current.RemainingPercentage)
		_ = beeep.Notify(title, body, "")
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// startWatcher watches the config file's directory for changes.
func (m *Manager) startWatcher(configPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	// Watch the directory (to catch atomic save-and-rename editors)
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go m.watchLoop(configPath)
	return nil
}

// watchLoop handles file system events with debouncing.
func (m *Manager) watchLoop(configPath string) {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(configPath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.mu.Lock()
				if m.debounceTimer != nil {
					m.debounceTimer.Stop()
				}
				m.debounceTimer = time.AfterFunc(debounceInterval, func() {
					m.reloadConfig(configPath)
				})
				m.mu.Unlock()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher error", "error", err)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) reloadConfig(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to reload config, keeping previous", "error", err)
		return
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	logger.Info("config reloaded", "path", configPath)
	m.broadcast(ConfigReloadedEvent{Config: cfg})
}

// Close stops the poll loop, the watcher, and all subscriptions.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		if m.watcher != nil {
			if err := m.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		m.mu.Lock()
		if m.debounceTimer != nil {
			m.debounceTimer.Stop()
		}
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
