package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/scheduler"
	"github.com/sandeepkv93/hydrate/internal/store"
	"github.com/sandeepkv93/hydrate/internal/views"
)

const (
	maxReminderLog   = 20
	maxNotifications = 40
)

func (m Model) Init() tea.Cmd {
	return waitForReminderCmd(m.Reminders)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Today:
			m.CurrentView = ViewToday
			return m, nil
		case m.Keys.Calendar:
			m.CurrentView = ViewCalendar
			return m, nil
		case m.Keys.Stats:
			m.CurrentView = ViewStats
			return m, nil
		case m.Keys.Settings:
			m.CurrentView = ViewSettings
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewToday:
			return m.handleTodayKey(typed), nil
		case ViewCalendar:
			return m.handleCalendarKey(typed), nil
		case ViewStats:
			return m.handleStatsKey(typed), nil
		case ViewSettings:
			return m.handleSettingsKey(typed), nil
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case PersistErrorMsg:
		m.LastError = typed.Err
		text := fmt.Sprintf("could not save %s: %v", typed.Key, typed.Err)
		m.Status = StatusBar{Text: text, IsError: true}
		m.notify("Storage", text, "error")
		return m, nil
	case ReminderDueMsg:
		m.ReminderLog = append(m.ReminderLog, typed.Event)
		if len(m.ReminderLog) > maxReminderLog {
			m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-maxReminderLog:]
		}
		m.metrics.ObserveReminderFired(string(typed.Event.Kind))
		body := typed.Event.Message
		if strings.TrimSpace(body) == "" {
			body = store.DefaultReminderMessage
		}
		if p := m.Store.TodayProgress(); p.TargetMl > 0 {
			body = fmt.Sprintf("%s (%d/%d ml)", body, p.TotalMl, p.TargetMl)
		}
		m.Status = StatusBar{Text: "reminder: " + body}
		m.notify("Hydrate", body, "reminder")
		return m, waitForReminderCmd(m.Reminders)
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	mainPane := ""
	switch m.CurrentView {
	case ViewToday:
		mainPane = m.renderTodayView()
	case ViewCalendar:
		mainPane = m.renderCalendarView()
	case ViewStats:
		mainPane = m.renderStatsView()
	case ViewSettings:
		mainPane = m.renderSettingsView()
	}
	sidePane := strings.TrimSpace(strings.Join([]string{m.renderCommandPalette(), m.renderHelpIfVisible()}, "\n\n"))

	notificationView := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		notificationView = fmt.Sprintf("last reminder: %s @ %s", last.Kind, last.TriggerAt.Format("15:04"))
	}
	notificationView = strings.TrimSpace(strings.Join([]string{notificationView, m.renderNotificationsView()}, "\n"))

	tabs := make([]string, 0, len(allViews))
	for _, v := range allViews {
		tabs = append(tabs, string(v))
	}
	return views.RenderApp(views.AppData{
		Header:       "hydrate",
		Tabs:         tabs,
		ActiveTab:    string(m.CurrentView),
		MainPane:     mainPane,
		SidePane:     sidePane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s today | %s calendar | %s stats | %s settings | / cmd | %s help | %s quit",
			m.Keys.Today, m.Keys.Calendar, m.Keys.Stats, m.Keys.Settings, m.Keys.Help, m.Keys.Quit),
	})
}

// syncBubbleData copies store state into the bubble components and clamps
// cursors after mutations.
func (m *Model) syncBubbleData() {
	if m.Store == nil {
		return
	}
	logs := m.todayLogs()
	m.Today.Cursor = clamp(m.Today.Cursor, len(logs))
	m.Today.PresetCursor = clamp(m.Today.PresetCursor, len(m.quickAddOptions()))
	m.Settings.Cursor = clamp(m.Settings.Cursor, len(m.Store.Reminders()))

	rows := make([]table.Row, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, table.Row{
			entry.CreatedAt.Local().Format("15:04"),
			entry.Beverage,
			fmt.Sprintf("%d ml", entry.AmountMl),
			shortID(entry.ID),
		})
	}
	m.logTable.SetRows(rows)
	if len(rows) > 0 {
		m.logTable.SetCursor(m.Today.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	} else {
		m.commandInput.Blur()
	}
}

func (m Model) todayLogs() []model.IntakeLog {
	return m.Store.LogsByDate(model.DayKey(m.now()))
}

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func isKnownView(v View) bool {
	for _, known := range allViews {
		if v == known {
			return true
		}
	}
	return false
}

func clamp(cursor, size int) int {
	if size == 0 || cursor < 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	return cursor
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
