package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/views"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.shiftMonth(-1)
	case "l", "right":
		m.shiftMonth(1)
	case "t":
		now := m.now()
		m.Calendar = CalendarState{Year: now.Year(), Month: now.Month()}
	}
	return m
}

func (m *Model) shiftMonth(delta int) {
	first := time.Date(m.Calendar.Year, m.Calendar.Month+time.Month(delta), 1, 0, 0, 0, 0, time.Local)
	m.Calendar = CalendarState{Year: first.Year(), Month: first.Month()}
}

func (m Model) renderCalendarView() string {
	summaries := m.Store.MonthSummary(m.Calendar.Year, m.Calendar.Month)
	days := make([]views.CalendarDayData, 0, len(summaries))
	for i, summary := range summaries {
		days = append(days, views.CalendarDayData{
			Day:     i + 1,
			DayKey:  summary.DayKey,
			TotalMl: summary.TotalMl,
			GoalMet: summary.GoalMet,
		})
	}
	target := 0
	if profile, ok := m.Store.Profile(); ok {
		target = profile.DailyTargetMl
	}
	return views.RenderCalendarPanel(views.CalendarPanelData{
		Year:     m.Calendar.Year,
		Month:    m.Calendar.Month,
		TodayKey: model.DayKey(m.now()),
		TargetMl: target,
		Days:     days,
	})
}
