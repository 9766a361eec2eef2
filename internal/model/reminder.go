package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidClock        = errors.New("model: invalid reminder clock time")
	ErrInvalidInterval     = errors.New("model: invalid reminder interval")
	ErrInvalidReminderMode = errors.New("model: invalid reminder mode")
)

// Reminder is a live daily notification. ExternalID is the scheduler's opaque handle.
type Reminder struct {
	ID         string `json:"id" yaml:"id"`
	Hour       int    `json:"hour" yaml:"hour"`
	Minute     int    `json:"minute" yaml:"minute"`
	ExternalID string `json:"notifId" yaml:"external_id"`
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return errors.New("model: reminder external id is required")
	}
	return ValidateClock(r.Hour, r.Minute)
}

func (r Reminder) Label() string {
	return ClockLabel(r.Hour, r.Minute)
}

func ValidateClock(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidClock, hour, minute)
	}
	return nil
}

func ClockLabel(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseClock accepts H:MM or HH:MM.
func ParseClock(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	if err := ValidateClock(hour, minute); err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}

// SortReminders orders by time of day without touching the input.
func SortReminders(in []Reminder) []Reminder {
	out := append([]Reminder(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hour*60+out[i].Minute < out[j].Hour*60+out[j].Minute
	})
	return out
}

// IntervalOptions are the periods offered by the settings screen.
var IntervalOptions = []int{60, 90, 120, 180}

const DefaultIntervalMinutes = 120

// IntervalReminder is the single repeating every-N-minutes notification.
type IntervalReminder struct {
	Minutes    int    `json:"minutes" yaml:"minutes"`
	ExternalID string `json:"notifId" yaml:"external_id"`
}

func ValidateInterval(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, minutes)
	}
	return nil
}

type ReminderMode string

const (
	ReminderModeOff      ReminderMode = "off"
	ReminderModeTime     ReminderMode = "time"
	ReminderModeInterval ReminderMode = "interval"
)

func (m ReminderMode) IsValid() bool {
	switch m {
	case ReminderModeOff, ReminderModeTime, ReminderModeInterval:
		return true
	default:
		return false
	}
}

func ParseReminderMode(raw string) (ReminderMode, error) {
	mode := ReminderMode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReminderMode, raw)
	}
	return mode, nil
}
