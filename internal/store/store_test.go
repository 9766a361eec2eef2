package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/storage"
)

func TestDayTotalsMatchRescanAfterEveryMutation(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local))
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler(), WithClock(clock.Now))
	rng := rand.New(rand.NewPCG(7, 11))

	for step := 0; step < 400; step++ {
		logs := s.Logs()
		if len(logs) > 0 && rng.IntN(3) == 0 {
			victim := logs[rng.IntN(len(logs))]
			if !s.RemoveLog(victim.ID) {
				t.Fatalf("step %d: remove of existing log %s reported false", step, victim.ID)
			}
		} else {
			if _, err := s.AddLog("water", 50+rng.IntN(500)); err != nil {
				t.Fatalf("step %d: add log: %v", step, err)
			}
		}
		clock.Advance(time.Duration(rng.IntN(10)) * time.Hour)

		if got, want := s.DayTotals(), rescanTotals(s); !reflect.DeepEqual(got, want) {
			t.Fatalf("step %d: day totals drifted\n got=%v\nwant=%v", step, got, want)
		}
		if got, want := s.TodayTotal(), s.DayTotals()[model.DayKey(clock.Now())]; got != want {
			t.Fatalf("step %d: today total %d != day totals entry %d", step, got, want)
		}
	}
}

func TestRemoveLogUnknownIDIsNoop(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	if _, err := s.AddLog("", 200); err != nil {
		t.Fatalf("add log: %v", err)
	}
	if s.RemoveLog("missing") {
		t.Fatal("expected unknown id to report false")
	}
	logs := s.Logs()
	if len(logs) != 1 || logs[0].Beverage != model.DefaultBeverage {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestAddLogRejectsNonPositiveAmount(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	for _, amount := range []int{0, -250} {
		if _, err := s.AddLog("water", amount); !errors.Is(err, model.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %d, got %v", amount, err)
		}
	}
	if len(s.Logs()) != 0 {
		t.Fatal("rejected amounts must not be recorded")
	}
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	ctx := context.Background()

	seen := map[string]struct{}{}
	check := func(kind, id string) {
		if _, ok := seen[kind+id]; ok {
			t.Fatalf("duplicate %s id %s", kind, id)
		}
		seen[kind+id] = struct{}{}
	}
	for i := 0; i < 300; i++ {
		entry, err := s.AddLog("water", 100)
		if err != nil {
			t.Fatalf("add log: %v", err)
		}
		check("log", entry.ID)
	}
	for i := 0; i < 60; i++ {
		reminder, err := s.AddDailyReminder(ctx, i%24, i%60)
		if err != nil {
			t.Fatalf("add reminder: %v", err)
		}
		check("reminder", reminder.ID)

		preset, err := s.AddPreset("Glass", 250, "")
		if err != nil {
			t.Fatalf("add preset: %v", err)
		}
		check("preset", preset.ID)
	}
}

func TestIDCollisionsAreRedrawn(t *testing.T) {
	ids := []string{"a", "a", "b"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler(), WithIDs(next))

	first, err := s.AddLog("water", 100)
	if err != nil || first.ID != "a" {
		t.Fatalf("unexpected first log: %+v %v", first, err)
	}
	second, err := s.AddLog("water", 100)
	if err != nil || second.ID != "b" {
		t.Fatalf("expected collision to be redrawn, got %+v %v", second, err)
	}
	if _, err := s.AddLog("water", 100); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID once ids are exhausted, got %v", err)
	}
	if len(s.Logs()) != 2 {
		t.Fatalf("failed add must not record a log: %d", len(s.Logs()))
	}
}

func TestSetProfileDerivesClampedTarget(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	cases := []struct {
		weight float64
		want   int
	}{
		{weight: 50, want: 1500},
		{weight: 72, want: 2160},
		{weight: 200, want: 4000},
	}
	for _, tc := range cases {
		profile, err := s.SetProfile(170, tc.weight)
		if err != nil {
			t.Fatalf("set profile %v: %v", tc.weight, err)
		}
		if profile.DailyTargetMl != tc.want {
			t.Fatalf("weight %v: target %d, want %d", tc.weight, profile.DailyTargetMl, tc.want)
		}
		stored, ok := s.Profile()
		if !ok || stored != profile {
			t.Fatalf("stored profile mismatch: %+v", stored)
		}
	}
	if _, err := s.SetProfile(170, 0); !errors.Is(err, model.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}
	if stored, _ := s.Profile(); stored.WeightKg != 200 {
		t.Fatalf("rejected weight must not replace profile: %+v", stored)
	}
}

func TestSetProfileRejectsNonFiniteBody(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	ctx := context.Background()

	profile, err := s.SetProfile(170, 1e18)
	if err != nil {
		t.Fatalf("huge finite weight should be accepted: %v", err)
	}
	if profile.DailyTargetMl != model.MaxDailyTargetMl {
		t.Fatalf("expected ceiling target, got %d", profile.DailyTargetMl)
	}

	cases := []struct {
		name   string
		height float64
		weight float64
		want   error
	}{
		{name: "inf weight", height: 170, weight: math.Inf(1), want: model.ErrInvalidWeight},
		{name: "nan weight", height: 170, weight: math.NaN(), want: model.ErrInvalidWeight},
		{name: "negative inf weight", height: 170, weight: math.Inf(-1), want: model.ErrInvalidWeight},
		{name: "nan height", height: math.NaN(), weight: 70, want: model.ErrInvalidHeight},
	}
	for _, tc := range cases {
		if _, err := s.SetProfile(tc.height, tc.weight); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if stored, _ := s.Profile(); stored.WeightKg != 1e18 {
		t.Fatalf("rejected input replaced profile: %+v", stored)
	}
}

func TestEncodeFailureIsReportedByFlush(t *testing.T) {
	var mu sync.Mutex
	var hooked []string
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler(), WithPersistErrorHook(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, key)
	}))

	s.mu.Lock()
	s.persistLocked(KeyProfile, math.NaN())
	s.mu.Unlock()

	if err := s.Flush(context.Background()); err == nil {
		t.Fatal("expected flush to report the encode failure")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 || hooked[0] != KeyProfile {
		t.Fatalf("unexpected hook calls: %v", hooked)
	}
}

func TestRemoveReminderSurvivesCancelFailure(t *testing.T) {
	sched := newFakeScheduler()
	kv := storage.NewMemoryKV()
	s := newTestStore(t, kv, sched)
	ctx := context.Background()

	reminder, err := s.AddDailyReminder(ctx, 8, 0)
	if err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	sched.cancelErr = errors.New("backend unavailable")

	if !s.RemoveReminder(ctx, reminder.ID) {
		t.Fatal("expected existing reminder to be removed")
	}
	if len(s.Reminders()) != 0 {
		t.Fatalf("reminder still present: %+v", s.Reminders())
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != reminder.ExternalID {
		t.Fatalf("expected cancel attempt for %s, got %v", reminder.ExternalID, sched.cancelled)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	raw, err := kv.Get(ctx, KeyReminders)
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected empty persisted reminders, got %q %v", raw, err)
	}
	if s.RemoveReminder(ctx, reminder.ID) {
		t.Fatal("second removal should be a no-op")
	}
}

func TestAddDailyReminderFailuresLeaveCollectionUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("permission denied", func(t *testing.T) {
		sched := newFakeScheduler()
		s := newTestStore(t, storage.NewMemoryKV(), sched)
		if _, err := s.AddDailyReminder(ctx, 9, 0); err != nil {
			t.Fatalf("seed reminder: %v", err)
		}
		before := s.Reminders()
		sched.denied = true

		if _, err := s.AddDailyReminder(ctx, 10, 0); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if !reflect.DeepEqual(before, s.Reminders()) {
			t.Fatalf("reminders changed: %+v", s.Reminders())
		}
		if sched.scheduled != 1 {
			t.Fatalf("backend must not be asked to schedule without permission, calls=%d", sched.scheduled)
		}
	})

	t.Run("permission check error", func(t *testing.T) {
		sched := newFakeScheduler()
		sched.permErr = errors.New("dbus down")
		s := newTestStore(t, storage.NewMemoryKV(), sched)
		if _, err := s.AddDailyReminder(ctx, 10, 0); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if len(s.Reminders()) != 0 {
			t.Fatal("no reminder expected")
		}
	})

	t.Run("schedule failure", func(t *testing.T) {
		sched := newFakeScheduler()
		sched.scheduleErr = errors.New("quota")
		s := newTestStore(t, storage.NewMemoryKV(), sched)
		_, err := s.AddDailyReminder(ctx, 10, 0)
		if !errors.Is(err, ErrScheduleFailed) || !errors.Is(err, sched.scheduleErr) {
			t.Fatalf("expected wrapped ErrScheduleFailed, got %v", err)
		}
		if len(s.Reminders()) != 0 {
			t.Fatal("no reminder expected")
		}
	})

	t.Run("invalid clock", func(t *testing.T) {
		sched := newFakeScheduler()
		s := newTestStore(t, storage.NewMemoryKV(), sched)
		if _, err := s.AddDailyReminder(ctx, 24, 0); !errors.Is(err, model.ErrInvalidClock) {
			t.Fatalf("expected ErrInvalidClock, got %v", err)
		}
		if sched.scheduled != 0 {
			t.Fatal("invalid clock must not reach the backend")
		}
	})
}

func TestRoundTripRestoresDeepEqualState(t *testing.T) {
	db, err := storage.OpenSQLite(storage.DriverCGO, filepath.Join(t.TempDir(), "hydrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	kv, err := storage.NewSQLiteKV(db, storage.ScopeHydrate)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}

	clock := newFakeClock(time.Date(2024, 3, 15, 8, 0, 0, 123456789, time.Local))
	sched := newFakeScheduler()
	ctx := context.Background()
	original := newTestStore(t, kv, sched, WithClock(clock.Now))

	if _, err := original.SetProfile(182.5, 81.3); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	for i, beverage := range []string{"water", "coffee", "soda", "water"} {
		if _, err := original.AddLog(beverage, 100*(i+1)); err != nil {
			t.Fatalf("add log: %v", err)
		}
		clock.Advance(7*time.Hour + 13*time.Millisecond)
	}
	if _, err := original.AddDailyReminder(ctx, 8, 0); err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	if _, err := original.AddDailyReminder(ctx, 21, 45); err != nil {
		t.Fatalf("add reminder: %v", err)
	}
	if _, err := original.AddPreset("  Flask ", 750, "flask"); err != nil {
		t.Fatalf("add preset: %v", err)
	}
	if _, err := original.StartIntervalReminder(ctx, 90); err != nil {
		t.Fatalf("start interval: %v", err)
	}
	if err := original.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	restored := newTestStore(t, kv, sched, WithClock(clock.Now))
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	want, got := original.Snapshot(), restored.Snapshot()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch\nwant=%+v\n got=%+v", want, got)
	}
	if !reflect.DeepEqual(original.DayTotals(), restored.DayTotals()) {
		t.Fatalf("day totals differ after load: %v vs %v", original.DayTotals(), restored.DayTotals())
	}
}

func TestLogsByDateReturnsMatchesInInsertionOrder(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 15, 8, 0, 0, 0, time.Local))
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler(), WithClock(clock.Now))

	var want []string
	for _, at := range []time.Time{
		time.Date(2024, 3, 15, 8, 0, 0, 0, time.Local),
		time.Date(2024, 3, 15, 13, 30, 0, 0, time.Local),
		time.Date(2024, 3, 16, 0, 5, 0, 0, time.Local),
		time.Date(2024, 3, 15, 23, 59, 0, 0, time.Local),
	} {
		clock.Set(at)
		entry, err := s.AddLog("water", 250)
		if err != nil {
			t.Fatalf("add log: %v", err)
		}
		if model.DayKey(at) == "2024-03-15" {
			want = append(want, entry.ID)
		}
	}

	got := s.LogsByDate("2024-03-15")
	if len(got) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("unexpected order at %d: %s != %s", i, got[i].ID, want[i])
		}
	}
	if len(s.LogsByDate("2024-03-16")) != 1 {
		t.Fatal("expected one log on the adjacent day")
	}
}

func TestPersistenceFailureIsSwallowedAndReportedByFlush(t *testing.T) {
	kv := &failingKV{MemoryKV: storage.NewMemoryKV()}
	kv.setFail(true)
	var mu sync.Mutex
	var hooked []string
	s := newTestStore(t, kv, newFakeScheduler(), WithPersistErrorHook(func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, key)
	}))
	ctx := context.Background()

	entry, err := s.AddLog("water", 300)
	if err != nil {
		t.Fatalf("mutation must not fail on persistence errors: %v", err)
	}
	if s.TodayTotal() != 300 || s.Logs()[0].ID != entry.ID {
		t.Fatal("in-memory state must stay authoritative")
	}
	if err := s.Flush(ctx); err == nil {
		t.Fatal("expected flush to report the failed write")
	}
	mu.Lock()
	if len(hooked) != 1 || hooked[0] != KeyLogs {
		t.Fatalf("unexpected hook calls: %v", hooked)
	}
	mu.Unlock()

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("errors must be reported once, got %v", err)
	}

	kv.setFail(false)
	if _, err := s.AddLog("water", 200); err != nil {
		t.Fatalf("add log: %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	restored := newTestStore(t, kv, newFakeScheduler())
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(restored.Logs()) != 2 {
		t.Fatalf("later full snapshot should carry both logs, got %d", len(restored.Logs()))
	}
}

type recordingKV struct {
	*storage.MemoryKV
	mu     sync.Mutex
	writes []int
}

func (r *recordingKV) Set(ctx context.Context, key string, value []byte) error {
	time.Sleep(time.Millisecond)
	r.mu.Lock()
	r.writes = append(r.writes, len(value))
	r.mu.Unlock()
	return r.MemoryKV.Set(ctx, key, value)
}

func TestWritesApplyInSubmissionOrder(t *testing.T) {
	kv := &recordingKV{MemoryKV: storage.NewMemoryKV()}
	s := newTestStore(t, kv, newFakeScheduler())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := s.AddLog("water", 100); err != nil {
			t.Fatalf("add log: %v", err)
		}
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	kv.mu.Lock()
	for i := 1; i < len(kv.writes); i++ {
		if kv.writes[i] <= kv.writes[i-1] {
			t.Fatalf("snapshot %d is not newer than its predecessor: %v", i, kv.writes)
		}
	}
	kv.mu.Unlock()

	restored := newTestStore(t, kv, newFakeScheduler())
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(restored.Logs()) != 20 {
		t.Fatalf("expected the last snapshot to win, got %d logs", len(restored.Logs()))
	}
}

func TestLoadKeepsGoodRecordsWhenOneIsCorrupt(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	if err := kv.Set(ctx, KeyProfile, []byte(`{"heightCm":170,"weightKg":72,"dailyTargetMl":9999}`)); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if err := kv.Set(ctx, KeyLogs, []byte(`not json`)); err != nil {
		t.Fatalf("seed logs: %v", err)
	}
	if err := kv.Set(ctx, KeyPresets, []byte(`[{"id":"custom-1","label":"Jug","amount":1000,"icon":"cup"},{"id":"custom-1","label":"Jug","amount":1000,"icon":"cup"}]`)); err != nil {
		t.Fatalf("seed presets: %v", err)
	}

	s := newTestStore(t, kv, newFakeScheduler())
	if err := s.Load(ctx); err == nil {
		t.Fatal("expected decode error for logs")
	}
	profile, ok := s.Profile()
	if !ok || profile.DailyTargetMl != 2160 {
		t.Fatalf("expected profile with re-derived target, got %+v ok=%v", profile, ok)
	}
	if len(s.Logs()) != 0 {
		t.Fatal("corrupt logs should load empty")
	}
	if len(s.CustomPresets()) != 1 {
		t.Fatalf("duplicate preset ids should be collapsed, got %d", len(s.CustomPresets()))
	}
}

func TestLoadEmptyStorage(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryKV(), newFakeScheduler())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if _, ok := s.Profile(); ok {
		t.Fatal("expected no profile")
	}
	if s.ReminderMode() != model.ReminderModeOff {
		t.Fatalf("unexpected mode: %s", s.ReminderMode())
	}
}

func TestLoadDropsInvalidRecords(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local).UnixMilli()
	seed := map[string]string{
		KeyProfile:   `{"heightCm":170,"weightKg":-3,"dailyTargetMl":1500}`,
		KeyLogs:      fmt.Sprintf(`[{"id":"a","beverage":"water","amount":0,"createdAt":%d},{"id":"b","beverage":"water","amount":200,"createdAt":%d},{"id":"","beverage":"tea","amount":100,"createdAt":%d}]`, day, day, day),
		KeyReminders: `[{"id":"r1","hour":99,"minute":-5,"notifId":""},{"id":"r2","hour":8,"minute":0,"notifId":"ext-1"}]`,
		KeyPresets:   `[{"id":"custom-1","label":" ","amount":300,"icon":"cup"},{"id":"custom-2","label":"Jug","amount":1000,"icon":"cup"}]`,
		KeyInterval:  `{"minutes":0,"notifId":"ext-2"}`,
	}
	for key, raw := range seed {
		if err := kv.Set(ctx, key, []byte(raw)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	s := newTestStore(t, kv, newFakeScheduler())
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := s.Profile(); ok {
		t.Fatal("profile with negative weight should be dropped")
	}
	if logs := s.Logs(); len(logs) != 1 || logs[0].ID != "b" {
		t.Fatalf("expected only the valid log, got %+v", logs)
	}
	if reminders := s.Reminders(); len(reminders) != 1 || reminders[0].ID != "r2" {
		t.Fatalf("expected only the valid reminder, got %+v", reminders)
	}
	if presets := s.CustomPresets(); len(presets) != 1 || presets[0].ID != "custom-2" {
		t.Fatalf("expected only the valid preset, got %+v", presets)
	}
	if _, ok := s.Interval(); ok {
		t.Fatal("interval with zero minutes should be dropped")
	}

	if !s.RemoveLog("b") {
		t.Fatal("expected valid log to be removable")
	}
	if got, want := s.DayTotals(), rescanTotals(s); !reflect.DeepEqual(got, want) {
		t.Fatalf("index drifted from rescan: %v vs %v", got, want)
	}
}
