package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/storage"
)

var ErrUnknownSchedule = errors.New("scheduler: unknown schedule")

// Permission reports whether reminders can be delivered to the user.
type Permission interface {
	Available(ctx context.Context) (bool, error)
}

// ScheduleStore is the durable home of live schedules, one key per schedule.
type ScheduleStore interface {
	storage.KV
	storage.Lister
}

type record struct {
	Spec      model.ScheduleSpec `json:"spec"`
	Message   string             `json:"message"`
	CreatedAt int64              `json:"createdAt"`
}

type Option func(*Local)

func WithLogger(logger hclog.Logger) Option {
	return func(l *Local) {
		if logger != nil {
			l.log = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Local) {
		if now != nil {
			l.now = now
		}
	}
}

func WithIDs(next func() string) Option {
	return func(l *Local) {
		if next != nil {
			l.newID = next
		}
	}
}

func WithPermission(p Permission) Option {
	return func(l *Local) {
		l.perm = p
	}
}

func WithBuffer(size int) Option {
	return func(l *Local) {
		if size > 0 {
			l.buffer = size
		}
	}
}

// Local is an in-process reminder backend. Each live schedule is persisted
// under its external id and re-armed after every firing, so ids handed out
// before a restart stay cancellable once Restore has run.
type Local struct {
	engine  *Engine
	kv      ScheduleStore
	perm    Permission
	log     hclog.Logger
	now     func() time.Time
	newID   func() string
	buffer  int
	out     chan ReminderEvent
	dropped uint64

	mu      sync.Mutex
	entries map[string]record
	started bool
	done    chan struct{}
}

func NewLocal(kv ScheduleStore, opts ...Option) *Local {
	l := &Local{
		kv:      kv,
		log:     hclog.NewNullLogger(),
		now:     time.Now,
		newID:   uuid.NewString,
		buffer:  16,
		entries: map[string]record{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.engine = NewEngine(l.buffer)
	l.out = make(chan ReminderEvent, l.buffer)
	return l
}

// C delivers fired reminders. It is closed after Stop.
func (l *Local) C() <-chan ReminderEvent {
	return l.out
}

func (l *Local) Dropped() uint64 {
	return atomic.LoadUint64(&l.dropped) + l.engine.Dropped()
}

func (l *Local) CheckOrRequestPermission(ctx context.Context) (bool, error) {
	if l.perm == nil {
		return true, nil
	}
	return l.perm.Available(ctx)
}

func (l *Local) ScheduleDaily(ctx context.Context, hour, minute int, message string) (string, error) {
	return l.schedule(ctx, model.ScheduleSpec{Kind: model.ScheduleDaily, Hour: hour, Minute: minute}, message)
}

func (l *Local) ScheduleInterval(ctx context.Context, periodMinutes int, message string) (string, error) {
	return l.schedule(ctx, model.ScheduleSpec{Kind: model.ScheduleInterval, PeriodMinutes: periodMinutes}, message)
}

func (l *Local) schedule(ctx context.Context, spec model.ScheduleSpec, message string) (string, error) {
	now := l.now()
	next, err := spec.NextAfter(now)
	if err != nil {
		return "", err
	}
	id := l.newID()
	rec := record{Spec: spec, Message: message, CreatedAt: now.UnixMilli()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := l.kv.Set(ctx, id, payload); err != nil {
		return "", fmt.Errorf("persist schedule: %w", err)
	}

	l.mu.Lock()
	l.entries[id] = rec
	l.mu.Unlock()

	if err := l.engine.Schedule(ReminderEvent{ID: id, Kind: spec.Kind, Message: message, TriggerAt: next}); err != nil {
		l.mu.Lock()
		delete(l.entries, id)
		l.mu.Unlock()
		_ = l.kv.Remove(ctx, id)
		return "", err
	}
	l.log.Debug("schedule armed", "id", id, "spec", spec.String(), "next", next)
	return id, nil
}

func (l *Local) Cancel(ctx context.Context, externalID string) error {
	l.mu.Lock()
	_, ok := l.entries[externalID]
	delete(l.entries, externalID)
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchedule, externalID)
	}

	l.engine.Cancel(externalID)
	if err := l.kv.Remove(ctx, externalID); err != nil {
		return fmt.Errorf("forget schedule: %w", err)
	}
	l.log.Debug("schedule cancelled", "id", externalID)
	return nil
}

// Active lists the live schedules keyed by external id.
func (l *Local) Active() map[string]model.ScheduleSpec {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]model.ScheduleSpec, len(l.entries))
	for id, rec := range l.entries {
		out[id] = rec.Spec
	}
	return out
}

// Pending counts the firings currently queued in the engine.
func (l *Local) Pending() int {
	return l.engine.Pending()
}

// Restore re-arms every persisted schedule. Undecodable records are logged
// and skipped.
func (l *Local) Restore(ctx context.Context) (int, error) {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list schedules: %w", err)
	}
	now := l.now()
	restored := 0
	for _, id := range keys {
		raw, err := l.kv.Get(ctx, id)
		if err != nil {
			l.log.Warn("skip schedule", "id", id, "error", err)
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			l.log.Warn("skip undecodable schedule", "id", id, "error", err)
			continue
		}
		next, err := rec.Spec.NextAfter(now)
		if err != nil {
			l.log.Warn("skip invalid schedule", "id", id, "error", err)
			continue
		}

		l.mu.Lock()
		_, exists := l.entries[id]
		if !exists {
			l.entries[id] = rec
		}
		l.mu.Unlock()
		if exists {
			continue
		}
		if err := l.engine.Schedule(ReminderEvent{ID: id, Kind: rec.Spec.Kind, Message: rec.Message, TriggerAt: next}); err != nil {
			return restored, err
		}
		restored++
	}
	l.log.Info("schedules restored", "count", restored)
	return restored, nil
}

func (l *Local) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	l.engine.Start()
	go l.pump()
}

// Stop halts the engine and closes C. Persisted schedules are kept.
func (l *Local) Stop() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return
	}
	l.engine.Stop()
	<-l.done
}

func (l *Local) pump() {
	defer close(l.done)
	defer close(l.out)

	for ev := range l.engine.C() {
		l.mu.Lock()
		rec, ok := l.entries[ev.ID]
		l.mu.Unlock()
		if !ok {
			continue
		}

		from := l.now()
		if ev.TriggerAt.After(from) {
			from = ev.TriggerAt
		}
		if next, err := rec.Spec.NextAfter(from); err == nil {
			if err := l.engine.Schedule(ReminderEvent{ID: ev.ID, Kind: ev.Kind, Message: ev.Message, TriggerAt: next}); err != nil && !errors.Is(err, ErrEngineStopped) {
				l.log.Warn("re-arm schedule", "id", ev.ID, "error", err)
			}
		}

		select {
		case l.out <- ev:
		default:
			atomic.AddUint64(&l.dropped, 1)
		}
	}
}
