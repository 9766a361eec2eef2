package store

import (
	"math"
	"time"

	"github.com/sandeepkv93/hydrate/internal/model"
)

// Progress is one day's intake measured against the current target.
type Progress struct {
	DayKey   string
	TotalMl  int
	TargetMl int
	// Percent is capped at 100.
	Percent int
	Reached bool
}

func (p Progress) RemainingMl() int {
	if p.TotalMl >= p.TargetMl {
		return 0
	}
	return p.TargetMl - p.TotalMl
}

// Ratio is Percent as a fraction for progress bars.
func (p Progress) Ratio() float64 {
	return float64(p.Percent) / 100
}

type DayTotal struct {
	DayKey  string `json:"day" yaml:"day"`
	TotalMl int    `json:"totalMl" yaml:"total_ml"`
}

type DaySummary struct {
	DayKey  string
	TotalMl int
	GoalMet bool
}

func progressFor(dayKey string, total, target int) Progress {
	p := Progress{DayKey: dayKey, TotalMl: total, TargetMl: target}
	if target <= 0 {
		return p
	}
	p.Percent = int(math.Min(100, math.Floor(float64(total)/float64(target)*100+0.5)))
	p.Reached = total >= target
	return p
}

func (s *Store) targetLocked() int {
	if s.profile == nil {
		return 0
	}
	return s.profile.DailyTargetMl
}

// Progress reports a day against the current profile target. Without a
// profile the target is zero and the goal is never reached.
func (s *Store) Progress(dayKey string) Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return progressFor(dayKey, s.totals[dayKey], s.targetLocked())
}

func (s *Store) TodayProgress() Progress {
	return s.Progress(model.DayKey(s.now()))
}

// RecentTotals returns the last n days ending today, oldest first, with
// empty days reported as zero.
func (s *Store) RecentTotals(days int) []DayTotal {
	keys := model.LastDayKeys(s.now(), days)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DayTotal, 0, len(keys))
	for _, key := range keys {
		out = append(out, DayTotal{DayKey: key, TotalMl: s.totals[key]})
	}
	return out
}

func (s *Store) MonthSummary(year int, month time.Month) []DaySummary {
	keys := model.MonthDayKeys(year, month)
	s.mu.RLock()
	defer s.mu.RUnlock()
	target := s.targetLocked()
	out := make([]DaySummary, 0, len(keys))
	for _, key := range keys {
		total := s.totals[key]
		out = append(out, DaySummary{DayKey: key, TotalMl: total, GoalMet: target > 0 && total >= target})
	}
	return out
}
