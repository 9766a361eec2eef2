// Package store holds the user's profile, intake history, reminders and
// custom presets in memory, derives daily aggregates from them and mirrors
// every change to durable storage and the reminder backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/sandeepkv93/hydrate/internal/metrics"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/storage"
)

var (
	ErrPermissionDenied = errors.New("store: notification permission denied")
	ErrScheduleFailed   = errors.New("store: schedule failed")
	ErrDuplicateID      = errors.New("store: could not allocate a unique id")
)

// Persisted record keys.
const (
	KeyProfile   = "profile"
	KeyLogs      = "logs"
	KeyReminders = "reminders"
	KeyPresets   = "presets"
	KeyInterval  = "interval"
)

const (
	DefaultReminderMessage = "Time to drink some water"
	maxIDAttempts          = 8
)

// Scheduler is the reminder backend. External ids are opaque to the store.
type Scheduler interface {
	CheckOrRequestPermission(ctx context.Context) (bool, error)
	ScheduleDaily(ctx context.Context, hour, minute int, message string) (string, error)
	ScheduleInterval(ctx context.Context, periodMinutes int, message string) (string, error)
	Cancel(ctx context.Context, externalID string) error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDs(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

func WithLogger(logger hclog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithMessage sets the notification text used for new schedules.
func WithMessage(message string) Option {
	return func(s *Store) {
		if message != "" {
			s.message = message
		}
	}
}

// WithPersistTimeout bounds each individual storage write.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

// WithPersistErrorHook is called from the writer goroutine for every failed write.
func WithPersistErrorHook(fn func(key string, err error)) Option {
	return func(s *Store) {
		s.onPersistError = fn
	}
}

type Store struct {
	kv             storage.KV
	sched          Scheduler
	log            hclog.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
	newID          func() string
	message        string
	persistTimeout time.Duration
	onPersistError func(key string, err error)
	w              *writer

	mu        sync.RWMutex
	profile   *model.Profile
	logs      []model.IntakeLog
	reminders []model.Reminder
	presets   []model.CustomPreset
	interval  *model.IntervalReminder
	totals    map[string]int
}

func New(kv storage.KV, sched Scheduler, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		sched:     sched,
		log:       hclog.NewNullLogger(),
		now:       time.Now,
		newID:     uuid.NewString,
		message:   DefaultReminderMessage,
		logs:      []model.IntakeLog{},
		reminders: []model.Reminder{},
		presets:   []model.CustomPreset{},
		totals:    map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.w = newWriter(kv, s.persistTimeout, s.persistResult)
	return s
}

func (s *Store) persistResult(key string, err error) {
	s.metrics.ObservePersist(key, err)
	if err == nil {
		return
	}
	s.log.Warn("persist failed", "key", key, "error", err)
	if s.onPersistError != nil {
		s.onPersistError(key, err)
	}
}

// Flush waits for queued writes and returns the persistence errors seen
// since the previous Flush.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close flushes pending writes and stops the writer. Mutations after Close
// still update memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	return s.w.close(ctx)
}

// Load replaces in-memory state with the persisted records. Each record is
// decoded independently; a broken record leaves its collection empty and is
// reported in the joined error while the others still load.
func (s *Store) Load(ctx context.Context) error {
	var errs []error
	read := func(key string, into any) bool {
		raw, err := s.kv.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				errs = append(errs, fmt.Errorf("load %s: %w", key, err))
			}
			return false
		}
		if err := json.Unmarshal(raw, into); err != nil {
			errs = append(errs, fmt.Errorf("decode %s: %w", key, err))
			return false
		}
		return true
	}

	var profile *model.Profile
	read(KeyProfile, &profile)
	var logs []model.IntakeLog
	read(KeyLogs, &logs)
	var reminders []model.Reminder
	read(KeyReminders, &reminders)
	var presets []model.CustomPreset
	read(KeyPresets, &presets)
	var interval *model.IntervalReminder
	read(KeyInterval, &interval)

	if profile != nil {
		if err := model.ValidateBody(profile.HeightCm, profile.WeightKg); err != nil {
			s.log.Warn("dropping invalid profile", "error", err)
			profile = nil
		}
	}
	if profile != nil {
		derived := model.NewProfile(profile.HeightCm, profile.WeightKg)
		if derived.DailyTargetMl != profile.DailyTargetMl {
			s.log.Warn("re-derived stale daily target", "stored", profile.DailyTargetMl, "derived", derived.DailyTargetMl)
		}
		profile = &derived
	}
	if interval != nil && (interval.ExternalID == "" || model.ValidateInterval(interval.Minutes) != nil) {
		s.log.Warn("dropping invalid interval reminder", "minutes", interval.Minutes)
		interval = nil
	}
	logs = keepValid(s.log, KeyLogs, logs, model.IntakeLog.Validate)
	reminders = keepValid(s.log, KeyReminders, reminders, model.Reminder.Validate)
	presets = keepValid(s.log, KeyPresets, presets, model.CustomPreset.Validate)

	s.mu.Lock()
	s.profile = profile
	s.logs = dedupe(s.log, KeyLogs, logs, func(l model.IntakeLog) string { return l.ID })
	s.reminders = dedupe(s.log, KeyReminders, reminders, func(r model.Reminder) string { return r.ID })
	s.presets = dedupe(s.log, KeyPresets, presets, func(p model.CustomPreset) string { return p.ID })
	s.interval = interval
	s.rebuildTotalsLocked()
	s.observeTodayLocked()
	s.mu.Unlock()

	s.log.Debug("state loaded", "logs", len(logs), "reminders", len(reminders), "presets", len(presets))
	return errors.Join(errs...)
}

// keepValid drops records that fail validation.
func keepValid[T any](logger hclog.Logger, key string, in []T, validate func(T) error) []T {
	out := in[:0:0]
	for _, item := range in {
		if err := validate(item); err != nil {
			logger.Warn("dropping invalid record", "key", key, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out
}

func dedupe[T any](logger hclog.Logger, key string, in []T, id func(T) string) []T {
	out := make([]T, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		itemID := id(item)
		if _, ok := seen[itemID]; ok {
			logger.Warn("dropping duplicate record", "key", key, "id", itemID)
			continue
		}
		seen[itemID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (s *Store) Profile() (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.Profile{}, false
	}
	return *s.profile, true
}

// SetProfile replaces the profile. The daily target is always derived from
// the weight.
func (s *Store) SetProfile(heightCm, weightKg float64) (model.Profile, error) {
	if err := model.ValidateBody(heightCm, weightKg); err != nil {
		return model.Profile{}, err
	}
	profile := model.NewProfile(heightCm, weightKg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &profile
	s.persistLocked(KeyProfile, s.profile)
	s.observeTodayLocked()
	s.log.Info("profile set", "weight_kg", weightKg, "daily_target_ml", profile.DailyTargetMl)
	return profile, nil
}

// persistLocked queues a full snapshot of one collection. Callers hold s.mu,
// which keeps queue order equal to mutation order.
func (s *Store) persistLocked(key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.w.fail(key, fmt.Errorf("encode %s: %w", key, err))
		return
	}
	s.w.set(key, payload)
}

// uniqueIDLocked draws ids until one is unused in the collection.
func (s *Store) uniqueIDLocked(prefix string, taken func(string) bool) (string, error) {
	for range maxIDAttempts {
		id := prefix + s.newID()
		if !taken(id) {
			return id, nil
		}
	}
	return "", ErrDuplicateID
}

func (s *Store) observeTodayLocked() {
	if s.metrics == nil {
		return
	}
	target := 0
	if s.profile != nil {
		target = s.profile.DailyTargetMl
	}
	s.metrics.SetToday(s.totals[model.DayKey(s.now())], target)
}
