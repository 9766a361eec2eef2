package store

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/hydrate/internal/model"
)

func (s *Store) Reminders() []model.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Reminder(nil), s.reminders...)
}

func (s *Store) requirePermission(ctx context.Context) error {
	granted, err := s.sched.CheckOrRequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

// AddDailyReminder schedules a notification every day at hour:minute. No
// record is kept unless the backend accepted the schedule.
func (s *Store) AddDailyReminder(ctx context.Context, hour, minute int) (model.Reminder, error) {
	if err := model.ValidateClock(hour, minute); err != nil {
		return model.Reminder{}, err
	}
	if err := s.requirePermission(ctx); err != nil {
		return model.Reminder{}, err
	}
	externalID, err := s.sched.ScheduleDaily(ctx, hour, minute, s.message)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.uniqueIDLocked("", func(id string) bool { return s.reminderIndexLocked(id) >= 0 })
	if err != nil {
		s.cancelQuietly(ctx, externalID)
		return model.Reminder{}, err
	}
	reminder := model.Reminder{ID: id, Hour: hour, Minute: minute, ExternalID: externalID}
	s.reminders = append(s.reminders[:len(s.reminders):len(s.reminders)], reminder)
	s.persistLocked(KeyReminders, s.reminders)
	s.log.Info("daily reminder added", "id", id, "at", reminder.Label())
	return reminder, nil
}

// RemoveReminder cancels the external schedule and drops the record even
// when cancellation fails.
func (s *Store) RemoveReminder(ctx context.Context, id string) bool {
	s.mu.RLock()
	idx := s.reminderIndexLocked(id)
	var target model.Reminder
	if idx >= 0 {
		target = s.reminders[idx]
	}
	s.mu.RUnlock()
	if idx < 0 {
		return false
	}

	s.cancelQuietly(ctx, target.ExternalID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropRemindersLocked(map[string]struct{}{id: {}})
	return true
}

// RemoveAllReminders removes every daily reminder and returns how many there were.
func (s *Store) RemoveAllReminders(ctx context.Context) int {
	current := s.Reminders()
	if len(current) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(current))
	for _, reminder := range current {
		s.cancelQuietly(ctx, reminder.ExternalID)
		ids[reminder.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropRemindersLocked(ids)
	return len(current)
}

func (s *Store) dropRemindersLocked(ids map[string]struct{}) {
	next := make([]model.Reminder, 0, len(s.reminders))
	for _, reminder := range s.reminders {
		if _, drop := ids[reminder.ID]; !drop {
			next = append(next, reminder)
		}
	}
	s.reminders = next
	s.persistLocked(KeyReminders, s.reminders)
}

func (s *Store) reminderIndexLocked(id string) int {
	for i := range s.reminders {
		if s.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

// cancelQuietly cancels an external schedule, logging and counting failures.
func (s *Store) cancelQuietly(ctx context.Context, externalID string) {
	if err := s.sched.Cancel(ctx, externalID); err != nil {
		s.metrics.ObserveCancelFailure()
		s.log.Warn("cancel schedule failed", "external_id", externalID, "error", err)
	}
}

func (s *Store) Interval() (model.IntervalReminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.interval == nil {
		return model.IntervalReminder{}, false
	}
	return *s.interval, true
}

// StartIntervalReminder replaces any running interval reminder with one
// firing every minutes.
func (s *Store) StartIntervalReminder(ctx context.Context, minutes int) (model.IntervalReminder, error) {
	if err := model.ValidateInterval(minutes); err != nil {
		return model.IntervalReminder{}, err
	}
	if err := s.requirePermission(ctx); err != nil {
		return model.IntervalReminder{}, err
	}

	if previous, ok := s.Interval(); ok {
		s.cancelQuietly(ctx, previous.ExternalID)
	}
	externalID, err := s.sched.ScheduleInterval(ctx, minutes, s.message)
	if err != nil {
		s.mu.Lock()
		if s.interval != nil {
			s.interval = nil
			s.w.remove(KeyInterval)
		}
		s.mu.Unlock()
		return model.IntervalReminder{}, fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}

	interval := model.IntervalReminder{Minutes: minutes, ExternalID: externalID}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = &interval
	s.persistLocked(KeyInterval, s.interval)
	s.log.Info("interval reminder started", "minutes", minutes)
	return interval, nil
}

// StopIntervalReminder reports whether an interval reminder was running.
func (s *Store) StopIntervalReminder(ctx context.Context) bool {
	current, ok := s.Interval()
	if !ok {
		return false
	}
	s.cancelQuietly(ctx, current.ExternalID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = nil
	s.w.remove(KeyInterval)
	return true
}

// ReminderMode is derived from what is scheduled. A running interval
// reminder takes precedence over daily reminders.
func (s *Store) ReminderMode() model.ReminderMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.interval != nil:
		return model.ReminderModeInterval
	case len(s.reminders) > 0:
		return model.ReminderModeTime
	default:
		return model.ReminderModeOff
	}
}

// SetReminderMode clears whatever the new mode excludes. Switching to
// interval mode does not start an interval reminder by itself.
func (s *Store) SetReminderMode(ctx context.Context, mode model.ReminderMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidReminderMode, mode)
	}
	switch mode {
	case model.ReminderModeOff:
		s.StopIntervalReminder(ctx)
		s.RemoveAllReminders(ctx)
	case model.ReminderModeTime:
		s.StopIntervalReminder(ctx)
	case model.ReminderModeInterval:
		s.RemoveAllReminders(ctx)
	}
	s.log.Info("reminder mode set", "mode", string(mode))
	return nil
}

// ReminderSummary renders the active reminders for status lines.
func (s *Store) ReminderSummary() string {
	if interval, ok := s.Interval(); ok {
		return fmt.Sprintf("every %d min", interval.Minutes)
	}
	reminders := model.SortReminders(s.Reminders())
	if len(reminders) == 0 {
		return "off"
	}
	out := "daily "
	for i, reminder := range reminders {
		if i > 0 {
			out += " / "
		}
		out += reminder.Label()
	}
	return out
}
