package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/commands"
	"github.com/sandeepkv93/hydrate/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		m.commandInput, _ = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			beverage, amount := a.Beverage, a.AmountMl
			if a.PresetID != "" {
				option, ok := m.quickAddOption(a.PresetID)
				if !ok {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown preset %q", a.PresetID)}
				}
				beverage, amount = option.Beverage, option.AmountMl
			}
			entry, err := m.logIntake(beverage, amount)
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewToday
			return commands.Result{Message: m.loggedMessage(entry)}, nil
		},
		Remove: func(r commands.RemoveArgs) (commands.Result, error) {
			id := r.ID
			if r.Last {
				logs := m.Store.Logs()
				if len(logs) == 0 {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no logs to remove"}
				}
				id = logs[len(logs)-1].ID
			} else if full, ok := m.resolveLogID(id); ok {
				id = full
			}
			if !m.Store.RemoveLog(id) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no log with id %q", r.ID)}
			}
			return commands.Result{Message: "removed log " + shortID(id)}, nil
		},
		Weight: func(w commands.WeightArgs) (commands.Result, error) {
			height := w.HeightCm
			if height == 0 {
				if current, ok := m.Store.Profile(); ok {
					height = current.HeightCm
				}
			}
			profile, err := m.Store.SetProfile(height, w.WeightKg)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("daily target set to %d ml", profile.DailyTargetMl)}, nil
		},
		Remind: func(r commands.RemindArgs) (commands.Result, error) {
			label := model.ClockLabel(r.Hour, r.Minute)
			if r.Remove {
				removed := 0
				for _, reminder := range m.Store.Reminders() {
					if reminder.Hour == r.Hour && reminder.Minute == r.Minute && m.Store.RemoveReminder(m.ctx, reminder.ID) {
						removed++
					}
				}
				if removed == 0 {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no reminder at " + label}
				}
				return commands.Result{Message: "removed reminder at " + label}, nil
			}
			if _, err := m.Store.AddDailyReminder(m.ctx, r.Hour, r.Minute); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "daily reminder set for " + label}, nil
		},
		Interval: func(i commands.IntervalArgs) (commands.Result, error) {
			if i.Off {
				if !m.Store.StopIntervalReminder(m.ctx) {
					return commands.Result{Message: "no interval reminder running"}, nil
				}
				return commands.Result{Message: "interval reminder stopped"}, nil
			}
			started, err := m.Store.StartIntervalReminder(m.ctx, i.Minutes)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("reminding every %d min", started.Minutes)}, nil
		},
		Mode: func(md commands.ModeArgs) (commands.Result, error) {
			if err := m.Store.SetReminderMode(m.ctx, md.Mode); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "reminder mode " + string(md.Mode)}, nil
		},
		Preset: func(p commands.PresetArgs) (commands.Result, error) {
			if p.Remove != "" {
				if !m.Store.RemovePreset(p.Remove) {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no custom preset %q", p.Remove)}
				}
				return commands.Result{Message: "removed preset " + p.Remove}, nil
			}
			preset, err := m.Store.AddPreset(p.Label, p.AmountMl, "")
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added preset %s (%s)", preset.Label, preset.ID)}, nil
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			for _, v := range allViews {
				if strings.EqualFold(string(v), s.Subject) {
					m.CurrentView = v
					return commands.Result{Message: "showing " + strings.ToLower(string(v))}, nil
				}
			}
			return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown view %q", s.Subject)}
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	return m
}

// resolveLogID expands a unique id prefix, as shown in the log table.
func (m Model) resolveLogID(prefix string) (string, bool) {
	match := ""
	for _, entry := range m.Store.Logs() {
		if entry.ID == prefix {
			return entry.ID, true
		}
		if strings.HasPrefix(entry.ID, prefix) {
			if match != "" {
				return "", false
			}
			match = entry.ID
		}
	}
	return match, match != ""
}
