package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/hydrate/internal/model"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
)

// ReminderEvent is one firing of a schedule. ID is the schedule's external id.
type ReminderEvent struct {
	ID        string
	Kind      model.ScheduleKind
	Message   string
	TriggerAt time.Time
}

// pending is a queued event. seq keeps events with the same trigger time in
// the order they were scheduled.
type pending struct {
	ev    ReminderEvent
	seq   uint64
	index int
}

type timeline []*pending

func (t timeline) Len() int { return len(t) }

func (t timeline) Less(i, j int) bool {
	a, b := t[i], t[j]
	if a.ev.TriggerAt.Equal(b.ev.TriggerAt) {
		return a.seq < b.seq
	}
	return a.ev.TriggerAt.Before(b.ev.TriggerAt)
}

func (t timeline) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
	t[i].index = i
	t[j].index = j
}

func (t *timeline) Push(x any) {
	p := x.(*pending)
	p.index = len(*t)
	*t = append(*t, p)
}

func (t *timeline) Pop() any {
	old := *t
	last := len(old) - 1
	p := old[last]
	old[last] = nil
	p.index = -1
	*t = old[:last]
	return p
}

type engineState int

const (
	engineIdle engineState = iota
	engineRunning
	engineStopped
)

// Engine fires queued reminder events at their trigger time on a single
// goroutine. Delivery never blocks: when the output buffer is full the event
// is counted as dropped.
type Engine struct {
	mu    sync.Mutex
	queue timeline
	seq   uint64
	state engineState

	out     chan ReminderEvent
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		out:  make(chan ReminderEvent, bufferSize),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// C delivers due events. It is closed once the engine stops.
func (e *Engine) C() <-chan ReminderEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != engineIdle {
		return
	}
	e.state = engineRunning
	go e.run()
}

// Stop halts the loop and waits for it to exit. Queued events are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != engineRunning {
		e.state = engineStopped
		e.mu.Unlock()
		return
	}
	e.state = engineStopped
	close(e.quit)
	e.mu.Unlock()
	<-e.done
}

func (e *Engine) Schedule(ev ReminderEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == engineStopped {
		return ErrEngineStopped
	}
	e.seq++
	heap.Push(&e.queue, &pending{ev: ev, seq: e.seq})
	e.poke()
	return nil
}

// Cancel drops every queued event with the given id and reports whether any
// were pending.
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var matches []*pending
	for _, p := range e.queue {
		if p.ev.ID == id {
			matches = append(matches, p)
		}
	}
	for _, p := range matches {
		heap.Remove(&e.queue, p.index)
	}
	if len(matches) > 0 {
		e.poke()
	}
	return len(matches) > 0
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *Engine) run() {
	defer close(e.done)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var fire <-chan time.Time
		if at, ok := e.nextTrigger(); ok {
			timer.Reset(max(time.Until(at), 0))
			fire = timer.C
		}

		select {
		case <-e.quit:
			return
		case <-e.wake:
			timer.Stop()
		case now := <-fire:
			for _, ev := range e.takeDue(now.UTC()) {
				e.emit(ev)
			}
		}
	}
}

func (e *Engine) emit(ev ReminderEvent) {
	select {
	case e.out <- ev:
	default:
		e.dropped.Add(1)
	}
}

func (e *Engine) poke() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) nextTrigger() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].ev.TriggerAt, true
}

func (e *Engine) takeDue(now time.Time) []ReminderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []ReminderEvent
	for len(e.queue) > 0 && !e.queue[0].ev.TriggerAt.After(now) {
		due = append(due, heap.Pop(&e.queue).(*pending).ev)
	}
	return due
}
