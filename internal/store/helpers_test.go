package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/hydrate/internal/storage"
)

type fakeScheduler struct {
	mu          sync.Mutex
	denied      bool
	permErr     error
	scheduleErr error
	cancelErr   error
	seq         int
	scheduled   int
	active      map[string]string
	cancelled   []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{active: map[string]string{}}
}

func (f *fakeScheduler) CheckOrRequestPermission(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denied, f.permErr
}

func (f *fakeScheduler) ScheduleDaily(_ context.Context, hour, minute int, _ string) (string, error) {
	return f.schedule(fmt.Sprintf("daily %02d:%02d", hour, minute))
}

func (f *fakeScheduler) ScheduleInterval(_ context.Context, periodMinutes int, _ string) (string, error) {
	return f.schedule(fmt.Sprintf("every %d", periodMinutes))
}

func (f *fakeScheduler) schedule(desc string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled++
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	f.seq++
	id := fmt.Sprintf("ext-%d", f.seq)
	f.active[id] = desc
	return id, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, externalID)
	if f.cancelErr != nil {
		return f.cancelErr
	}
	delete(f.active, externalID)
	return nil
}

func (f *fakeScheduler) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingKV fails every Set while fail is true.
type failingKV struct {
	*storage.MemoryKV
	mu   sync.Mutex
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *failingKV) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestStore(t *testing.T, kv storage.KV, sched Scheduler, opts ...Option) *Store {
	t.Helper()
	s := New(kv, sched, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func rescanTotals(s *Store) map[string]int {
	out := map[string]int{}
	for _, entry := range s.Logs() {
		out[entry.DayKey()] += entry.AmountMl
	}
	return out
}
