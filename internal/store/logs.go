package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/hydrate/internal/model"
)

func (s *Store) Logs() []model.IntakeLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.IntakeLog(nil), s.logs...)
}

// AddLog records an intake stamped with the current time. An empty beverage
// is recorded as water.
func (s *Store) AddLog(beverage string, amountMl int) (model.IntakeLog, error) {
	if amountMl <= 0 {
		return model.IntakeLog{}, fmt.Errorf("%w: %d", model.ErrInvalidAmount, amountMl)
	}
	beverage = strings.TrimSpace(beverage)
	if beverage == "" {
		beverage = model.DefaultBeverage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.uniqueIDLocked("", func(id string) bool { return s.logIndexLocked(id) >= 0 })
	if err != nil {
		return model.IntakeLog{}, err
	}
	entry := model.IntakeLog{
		ID:        id,
		Beverage:  beverage,
		AmountMl:  amountMl,
		CreatedAt: time.UnixMilli(s.now().UnixMilli()),
	}
	s.logs = append(s.logs[:len(s.logs):len(s.logs)], entry)
	s.totals[entry.DayKey()] += entry.AmountMl
	s.persistLocked(KeyLogs, s.logs)
	s.metrics.ObserveLogAdded(amountMl)
	s.observeTodayLocked()
	return entry, nil
}

// RemoveLog deletes the log with the given id and reports whether it existed.
func (s *Store) RemoveLog(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.logIndexLocked(id)
	if idx < 0 {
		return false
	}
	removed := s.logs[idx]
	next := make([]model.IntakeLog, 0, len(s.logs)-1)
	next = append(next, s.logs[:idx]...)
	next = append(next, s.logs[idx+1:]...)
	s.logs = next

	key := removed.DayKey()
	s.totals[key] -= removed.AmountMl
	if s.totals[key] == 0 {
		delete(s.totals, key)
	}
	s.persistLocked(KeyLogs, s.logs)
	s.observeTodayLocked()
	return true
}

func (s *Store) logIndexLocked(id string) int {
	for i := range s.logs {
		if s.logs[i].ID == id {
			return i
		}
	}
	return -1
}

// LogsByDate returns the logs of one local day in insertion order.
func (s *Store) LogsByDate(dayKey string) []model.IntakeLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.IntakeLog, 0)
	for _, entry := range s.logs {
		if entry.DayKey() == dayKey {
			out = append(out, entry)
		}
	}
	return out
}

func (s *Store) TodayTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[model.DayKey(s.now())]
}

// DayTotals returns a copy of the day key to running total index. Days with
// no surviving logs are absent.
func (s *Store) DayTotals() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.totals))
	for key, total := range s.totals {
		out[key] = total
	}
	return out
}

func (s *Store) rebuildTotalsLocked() {
	s.totals = make(map[string]int, len(s.logs))
	for _, entry := range s.logs {
		s.totals[entry.DayKey()] += entry.AmountMl
	}
}
