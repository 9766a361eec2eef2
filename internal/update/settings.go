package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/views"
)

func (m Model) handleSettingsKey(msg tea.KeyMsg) Model {
	reminders := model.SortReminders(m.Store.Reminders())
	switch msg.String() {
	case "j", "down":
		if m.Settings.Cursor < len(reminders)-1 {
			m.Settings.Cursor++
		}
	case "k", "up":
		if m.Settings.Cursor > 0 {
			m.Settings.Cursor--
		}
	case "x", "delete":
		if len(reminders) == 0 {
			return m
		}
		target := reminders[clamp(m.Settings.Cursor, len(reminders))]
		if m.Store.RemoveReminder(m.ctx, target.ID) {
			m.Status = StatusBar{Text: "removed reminder at " + target.Label()}
		}
	case "i":
		m = m.cycleInterval()
	case "m":
		if m.Store.ReminderMode() != model.ReminderModeOff {
			if err := m.Store.SetReminderMode(m.ctx, model.ReminderModeOff); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				return m
			}
			m.Status = StatusBar{Text: "reminders off"}
			return m
		}
		m = m.startInterval(model.DefaultIntervalMinutes)
	}
	return m
}

// cycleInterval steps through the interval options and turns the interval
// reminder off after the last one.
func (m Model) cycleInterval() Model {
	current, running := m.Store.Interval()
	if !running {
		return m.startInterval(model.IntervalOptions[0])
	}
	for i, option := range model.IntervalOptions {
		if option == current.Minutes && i+1 < len(model.IntervalOptions) {
			return m.startInterval(model.IntervalOptions[i+1])
		}
	}
	m.Store.StopIntervalReminder(m.ctx)
	m.Status = StatusBar{Text: "interval reminder stopped"}
	return m
}

func (m Model) startInterval(minutes int) Model {
	if _, err := m.Store.StartIntervalReminder(m.ctx, minutes); err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("reminding every %d min", minutes)}
	return m
}

func (m Model) renderSettingsView() string {
	data := views.SettingsPanelData{
		Mode:         string(m.Store.ReminderMode()),
		Summary:      m.Store.ReminderSummary(),
		Cursor:       m.Settings.Cursor,
		CustomCount:  len(m.Store.CustomPresets()),
		Notification: string(m.NotifyMode),
	}
	if profile, ok := m.Store.Profile(); ok {
		data.HasProfile = true
		data.WeightKg = profile.WeightKg
		data.HeightCm = profile.HeightCm
		data.TargetMl = profile.DailyTargetMl
	}
	if interval, ok := m.Store.Interval(); ok {
		data.Interval = interval.Minutes
	}
	for _, reminder := range model.SortReminders(m.Store.Reminders()) {
		data.Reminders = append(data.Reminders, views.ReminderRowData{ID: reminder.ID, Label: reminder.Label()})
	}
	return views.RenderSettingsPanel(data)
}
