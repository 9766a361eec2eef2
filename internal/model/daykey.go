package model

import (
	"fmt"
	"time"
)

// DayKeyLayout is the canonical calendar-day key form, YYYY-MM-DD.
const DayKeyLayout = "2006-01-02"

// DayKey buckets a timestamp into its local calendar day.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format(DayKeyLayout)
}

func ParseDayKey(key string) (time.Time, error) {
	day, err := time.ParseInLocation(DayKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid day key %q: %w", key, err)
	}
	return day, nil
}

// LastDayKeys returns the keys of the n days ending at now, oldest first.
func LastDayKeys(now time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	local := now.In(time.Local)
	y, m, d := local.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i).Format(DayKeyLayout))
	}
	return out
}

// MonthDayKeys lists every day key of the given month.
func MonthDayKeys(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	out := make([]string, 0, 31)
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		out = append(out, day.Format(DayKeyLayout))
	}
	return out
}
