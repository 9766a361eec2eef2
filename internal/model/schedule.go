package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidScheduleKind = errors.New("model: invalid schedule kind")

type ScheduleKind string

const (
	ScheduleDaily    ScheduleKind = "daily"
	ScheduleInterval ScheduleKind = "interval"
)

// ScheduleSpec is what the reminder backend is asked to fire.
type ScheduleSpec struct {
	Kind          ScheduleKind `json:"kind"`
	Hour          int          `json:"hour,omitempty"`
	Minute        int          `json:"minute,omitempty"`
	PeriodMinutes int          `json:"periodMinutes,omitempty"`
}

func (s ScheduleSpec) Validate() error {
	switch s.Kind {
	case ScheduleDaily:
		return ValidateClock(s.Hour, s.Minute)
	case ScheduleInterval:
		return ValidateInterval(s.PeriodMinutes)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScheduleKind, s.Kind)
	}
}

// NextAfter returns the first fire time strictly after from. Daily specs
// follow local wall-clock time across DST changes.
func (s ScheduleSpec) NextAfter(from time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	switch s.Kind {
	case ScheduleDaily:
		local := from.In(time.Local)
		y, m, d := local.Date()
		candidate := time.Date(y, m, d, s.Hour, s.Minute, 0, 0, time.Local)
		if !candidate.After(local) {
			candidate = time.Date(y, m, d+1, s.Hour, s.Minute, 0, 0, time.Local)
		}
		return candidate, nil
	default:
		return from.Add(time.Duration(s.PeriodMinutes) * time.Minute), nil
	}
}

func (s ScheduleSpec) String() string {
	if s.Kind == ScheduleInterval {
		return fmt.Sprintf("every %d min", s.PeriodMinutes)
	}
	return "daily " + ClockLabel(s.Hour, s.Minute)
}
