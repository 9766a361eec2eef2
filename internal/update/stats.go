package update

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/hydrate/internal/views"
)

func (m Model) handleStatsKey(msg tea.KeyMsg) Model {
	if msg.String() == "t" {
		if m.Stats.Days == 7 {
			m.Stats.Days = 30
		} else {
			m.Stats.Days = 7
		}
	}
	return m
}

func (m Model) renderStatsView() string {
	totals := m.Store.RecentTotals(m.Stats.Days)
	rows := make([]views.StatsRowData, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, views.StatsRowData{DayKey: total.DayKey, TotalMl: total.TotalMl})
	}
	target := 0
	if profile, ok := m.Store.Profile(); ok {
		target = profile.DailyTargetMl
	}
	return views.RenderStatsPanel(views.StatsPanelData{
		Days:     m.Stats.Days,
		TargetMl: target,
		Rows:     rows,
	})
}
