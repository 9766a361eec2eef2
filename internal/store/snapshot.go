package store

import "github.com/sandeepkv93/hydrate/internal/model"

// Snapshot is a detached copy of the persisted state.
type Snapshot struct {
	Profile   *model.Profile          `json:"profile" yaml:"profile"`
	Logs      []model.IntakeLog       `json:"logs" yaml:"logs"`
	Reminders []model.Reminder        `json:"reminders" yaml:"reminders"`
	Presets   []model.CustomPreset    `json:"presets" yaml:"presets"`
	Interval  *model.IntervalReminder `json:"interval,omitempty" yaml:"interval,omitempty"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		Logs:      append([]model.IntakeLog{}, s.logs...),
		Reminders: append([]model.Reminder{}, s.reminders...),
		Presets:   append([]model.CustomPreset{}, s.presets...),
	}
	if s.profile != nil {
		profile := *s.profile
		out.Profile = &profile
	}
	if s.interval != nil {
		interval := *s.interval
		out.Interval = &interval
	}
	return out
}
