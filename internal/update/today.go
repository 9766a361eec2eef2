package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/views"
)

func (m Model) handleTodayKey(msg tea.KeyMsg) Model {
	logs := m.todayLogs()
	options := m.quickAddOptions()
	switch msg.String() {
	case "j", "down":
		if m.Today.Cursor < len(logs)-1 {
			m.Today.Cursor++
		}
	case "k", "up":
		if m.Today.Cursor > 0 {
			m.Today.Cursor--
		}
	case ">", "]", "right":
		if len(options) > 0 {
			m.Today.PresetCursor = (m.Today.PresetCursor + 1) % len(options)
		}
	case "<", "[", "left":
		if len(options) > 0 {
			m.Today.PresetCursor = (m.Today.PresetCursor - 1 + len(options)) % len(options)
		}
	case "a", "enter":
		if len(options) == 0 {
			return m
		}
		option := options[clamp(m.Today.PresetCursor, len(options))]
		entry, err := m.logIntake(option.Beverage, option.AmountMl)
		if err != nil {
			m.LastError = err
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m
		}
		m.Today.Cursor = len(logs)
		m.Status = StatusBar{Text: m.loggedMessage(entry)}
	case "x", "delete":
		if len(logs) == 0 {
			return m
		}
		target := logs[clamp(m.Today.Cursor, len(logs))]
		if m.Store.RemoveLog(target.ID) {
			m.Status = StatusBar{Text: fmt.Sprintf("removed %d ml %s", target.AmountMl, target.Beverage)}
		}
	case "u":
		if len(logs) == 0 {
			m.Status = StatusBar{Text: "nothing to undo today"}
			return m
		}
		last := logs[len(logs)-1]
		if m.Store.RemoveLog(last.ID) {
			m.Status = StatusBar{Text: fmt.Sprintf("undid %d ml %s", last.AmountMl, last.Beverage)}
		}
	}
	return m
}

// logIntake adds a log and raises a goal notification when it is the log
// that crosses today's target.
func (m *Model) logIntake(beverage string, amountMl int) (model.IntakeLog, error) {
	before := m.Store.TodayProgress()
	entry, err := m.Store.AddLog(beverage, amountMl)
	if err != nil {
		return entry, err
	}
	after := m.Store.TodayProgress()
	if !before.Reached && after.Reached {
		m.notify("Goal reached", fmt.Sprintf("You drank %d ml today, your goal is %d ml.", after.TotalMl, after.TargetMl), "goal")
	}
	return entry, nil
}

func (m Model) loggedMessage(entry model.IntakeLog) string {
	p := m.Store.TodayProgress()
	if p.TargetMl <= 0 {
		return fmt.Sprintf("logged %d ml %s (%d ml today)", entry.AmountMl, entry.Beverage, p.TotalMl)
	}
	return fmt.Sprintf("logged %d ml %s (%d/%d ml)", entry.AmountMl, entry.Beverage, p.TotalMl, p.TargetMl)
}

// quickAddOptions lists presets followed by one entry per beverage at its
// default amount.
func (m Model) quickAddOptions() []model.PresetOption {
	out := m.Store.Presets()
	for _, b := range model.Beverages {
		out = append(out, model.PresetOption{
			ID:       b.ID,
			Label:    fmt.Sprintf("%s (%dml)", b.Name, b.DefaultAmount),
			Beverage: b.Name,
			AmountMl: b.DefaultAmount,
			Icon:     b.Icon,
		})
	}
	return out
}

func (m Model) quickAddOption(id string) (model.PresetOption, bool) {
	for _, option := range m.quickAddOptions() {
		if option.ID == id {
			return option, true
		}
	}
	return model.PresetOption{}, false
}

func (m Model) renderTodayView() string {
	p := m.Store.Progress(model.DayKey(m.now()))
	logs := m.todayLogs()
	rows := make([]views.LogRowData, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, views.LogRowData{
			ID:       entry.ID,
			Time:     entry.CreatedAt.Local().Format("15:04"),
			Beverage: entry.Beverage,
			AmountMl: entry.AmountMl,
		})
	}
	selected := ""
	if len(logs) > 0 {
		selected = logs[clamp(m.Today.Cursor, len(logs))].ID
	}
	options := m.quickAddOptions()
	chips := make([]views.PresetChipData, 0, len(options))
	for _, option := range options {
		chips = append(chips, views.PresetChipData{ID: option.ID, Label: option.Label, AmountMl: option.AmountMl})
	}
	return views.RenderTodayPanel(views.TodayPanelData{
		DayKey:       p.DayKey,
		TotalMl:      p.TotalMl,
		TargetMl:     p.TargetMl,
		Percent:      p.Percent,
		RemainingMl:  p.RemainingMl(),
		Reached:      p.Reached,
		ProgressView: m.dayProgress.ViewAs(p.Ratio()),
		TableView:    m.logTable.View(),
		Logs:         rows,
		SelectedID:   selected,
		Presets:      chips,
		PresetCursor: m.Today.PresetCursor,
	})
}
