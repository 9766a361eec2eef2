package views

import (
	"fmt"
	"strings"
	"time"
)

type LogRowData struct {
	ID       string
	Time     string
	Beverage string
	AmountMl int
}

type PresetChipData struct {
	ID       string
	Label    string
	AmountMl int
}

type TodayPanelData struct {
	DayKey       string
	TotalMl      int
	TargetMl     int
	Percent      int
	RemainingMl  int
	Reached      bool
	ProgressView string
	TableView    string
	Logs         []LogRowData
	SelectedID   string
	Presets      []PresetChipData
	PresetCursor int
}

type CalendarDayData struct {
	Day     int
	DayKey  string
	TotalMl int
	GoalMet bool
}

type CalendarPanelData struct {
	Year     int
	Month    time.Month
	TodayKey string
	TargetMl int
	Days     []CalendarDayData
}

type StatsRowData struct {
	DayKey  string
	TotalMl int
}

type StatsPanelData struct {
	Days     int
	TargetMl int
	Rows     []StatsRowData
}

type ReminderRowData struct {
	ID    string
	Label string
}

type SettingsPanelData struct {
	HasProfile   bool
	WeightKg     float64
	HeightCm     float64
	TargetMl     int
	Mode         string
	Summary      string
	Interval     int
	Reminders    []ReminderRowData
	Cursor       int
	CustomCount  int
	Notification string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTodayPanel(data TodayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("today %s:\n", data.DayKey))
	if data.TargetMl <= 0 {
		b.WriteString(fmt.Sprintf("intake: %d ml (set your weight with /weight <kg>)\n", data.TotalMl))
	} else {
		b.WriteString(fmt.Sprintf("intake: %d / %d ml (%d%%)\n", data.TotalMl, data.TargetMl, data.Percent))
		b.WriteString(data.ProgressView + "\n")
		if data.Reached {
			b.WriteString(goalStyle.Render("goal reached") + "\n")
		} else {
			b.WriteString(fmt.Sprintf("remaining: %d ml\n", data.RemainingMl))
		}
	}

	b.WriteString("\nquick add: ")
	for i, preset := range data.Presets {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == data.PresetCursor {
			b.WriteString(fmt.Sprintf("[%s]", preset.Label))
		} else {
			b.WriteString(preset.Label)
		}
	}
	b.WriteString("\nactions: [a]add [</>]preset [j/k]move [x]delete [u]undo\n\n")

	if len(data.Logs) == 0 {
		b.WriteString("(no drinks logged today)")
		return b.String()
	}
	if data.TableView != "" {
		b.WriteString(data.TableView)
		return strings.TrimSpace(b.String())
	}
	for _, row := range data.Logs {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %-8s %5d ml\n", cursor, row.Time, row.Beverage, row.AmountMl))
	}
	return strings.TrimSpace(b.String())
}

// RenderCalendarPanel lays the month out Monday first. A ">" marks today,
// "*" a day that met the target and "." a day with some intake.
func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("calendar %s %d:\n", data.Month, data.Year))
	b.WriteString("actions: [h/l]month [t]this month\n\n")
	b.WriteString(" Mo   Tu   We   Th   Fr   Sa   Su\n")

	if len(data.Days) == 0 {
		return strings.TrimSpace(b.String())
	}
	first := time.Date(data.Year, data.Month, 1, 0, 0, 0, 0, time.Local)
	offset := (int(first.Weekday()) + 6) % 7
	cells := make([]string, 0, offset+len(data.Days))
	for i := 0; i < offset; i++ {
		cells = append(cells, "    ")
	}
	met := 0
	for _, day := range data.Days {
		cells = append(cells, calendarCell(day, data.TodayKey))
		if day.GoalMet {
			met++
		}
	}
	for start := 0; start < len(cells); start += 7 {
		end := min(start+7, len(cells))
		b.WriteString(strings.TrimRight(strings.Join(cells[start:end], " "), " ") + "\n")
	}

	if data.TargetMl > 0 {
		b.WriteString(fmt.Sprintf("\ngoal met on %d of %d days", met, len(data.Days)))
	} else {
		b.WriteString("\nno target set")
	}
	return b.String()
}

func calendarCell(day CalendarDayData, todayKey string) string {
	prefix := " "
	if day.DayKey == todayKey {
		prefix = ">"
	}
	mark := " "
	switch {
	case day.GoalMet:
		mark = "*"
	case day.TotalMl > 0:
		mark = "."
	}
	return fmt.Sprintf("%s%2d%s", prefix, day.Day, mark)
}

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("stats last %d days:\n", data.Days))
	b.WriteString("actions: [t]toggle 7/30 days\n\n")

	scale := data.TargetMl
	sum, met := 0, 0
	for _, row := range data.Rows {
		scale = max(scale, row.TotalMl)
		sum += row.TotalMl
		if data.TargetMl > 0 && row.TotalMl >= data.TargetMl {
			met++
		}
	}
	for _, row := range data.Rows {
		ratio := 0.0
		if scale > 0 {
			ratio = float64(row.TotalMl) / float64(scale)
		}
		label := row.DayKey
		if len(label) == len("2006-01-02") {
			label = label[5:]
		}
		b.WriteString(fmt.Sprintf("%s %s %5d\n", label, Bar(ratio, 24), row.TotalMl))
	}

	average := 0
	if len(data.Rows) > 0 {
		average = sum / len(data.Rows)
	}
	b.WriteString(fmt.Sprintf("\naverage: %d ml/day", average))
	if data.TargetMl > 0 {
		b.WriteString(fmt.Sprintf("\ngoal met: %d/%d days", met, len(data.Rows)))
	}
	return b.String()
}

func RenderSettingsPanel(data SettingsPanelData) string {
	var b strings.Builder
	b.WriteString("settings:\n")
	if data.HasProfile {
		b.WriteString(fmt.Sprintf("weight: %.1f kg\n", data.WeightKg))
		if data.HeightCm > 0 {
			b.WriteString(fmt.Sprintf("height: %.0f cm\n", data.HeightCm))
		}
		b.WriteString(fmt.Sprintf("daily target: %d ml\n", data.TargetMl))
	} else {
		b.WriteString("profile: not set (/weight <kg> [cm])\n")
	}

	b.WriteString(fmt.Sprintf("\nreminders: %s (mode %s)\n", data.Summary, data.Mode))
	if data.Interval > 0 {
		b.WriteString(fmt.Sprintf("interval: every %d min\n", data.Interval))
	}
	for i, reminder := range data.Reminders {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", cursor, reminder.Label))
	}
	b.WriteString(fmt.Sprintf("custom presets: %d\n", data.CustomCount))
	if data.Notification != "" {
		b.WriteString(fmt.Sprintf("notifications: %s\n", data.Notification))
	}
	b.WriteString("actions: [j/k]move [x]remove reminder [i]cycle interval [m]reminders on/off")
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

// Bar draws ratio (clamped to [0,1]) as a fixed width text bar.
func Bar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
