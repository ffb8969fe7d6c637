// Package loop provides the single-threaded event loop that trigger state is
// confined to, and timers whose callbacks are delivered onto that loop.
//
// Anything that completes on another goroutine, such as a clock firing or a
// deferred payload resolving, must hand its continuation to the loop with
// EmitEvent instead of touching widget state directly.
package loop

import (
	"context"
	"sync"
	"time"

	"honnef.co/go/ctxmenu/mem"

	"github.com/benbjohnson/clock"
)

type CallbackEvent func()

func (CallbackEvent) ImplementsEvent() {}

// Loop runs callbacks one at a time, in the order they were emitted. Only one
// goroutine may run a Loop at a time.
type Loop struct {
	mu sync.Mutex
	// Back is guarded by mu. Front and cur belong to the running goroutine.
	queue  mem.DoubleBufferedSlice[CallbackEvent]
	cur    int
	wakeup chan struct{}
}

func New() *Loop {
	return &Loop{wakeup: make(chan struct{}, 1)}
}

// EmitEvent queues ev for execution on the loop. It never blocks and is safe
// to call from any goroutine, including the loop itself.
func (l *Loop) EmitEvent(ev CallbackEvent) {
	l.mu.Lock()
	l.queue.Back = append(l.queue.Back, ev)
	l.mu.Unlock()
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (CallbackEvent, bool) {
	if l.cur == len(l.queue.Front) {
		l.mu.Lock()
		l.queue.Swap()
		l.mu.Unlock()
		l.cur = 0
		if len(l.queue.Front) == 0 {
			return nil, false
		}
	}
	ev := l.queue.Front[l.cur]
	l.cur++
	return ev, true
}

// Queued returns the number of callbacks waiting to run. It must be called
// from the goroutine running the loop.
func (l *Loop) Queued() int {
	l.mu.Lock()
	n := len(l.queue.Back)
	l.mu.Unlock()
	return n + len(l.queue.Front) - l.cur
}

// Run executes callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wakeup:
		}
	}
}

// Drain runs every callback that is already queued, without blocking, and
// returns how many it ran. Callbacks queued by the callbacks it runs are
// executed too.
func (l *Loop) Drain() int {
	n := 0
	for {
		ev, ok := l.next()
		if !ok {
			return n
		}
		ev()
		n++
	}
}

// RunOne waits up to timeout for a single callback and runs it. It reports
// whether a callback ran.
func (l *Loop) RunOne(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	for {
		if ev, ok := l.next(); ok {
			ev()
			return true
		}
		select {
		case <-l.wakeup:
		case <-t.C:
			return false
		}
	}
}

type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call stopped
	// the timer; false means it had already fired or been stopped.
	Stop() bool
}

// Scheduler starts timers on a clock and delivers their callbacks on a loop.
// It keeps track of its outstanding timers, which lets a driver of a mock
// clock step from one deadline to the next.
type Scheduler struct {
	Clock clock.Clock
	Loop  *Loop

	mu sync.Mutex
	// timers maps outstanding timers to their deadlines. A timer is
	// outstanding until it is stopped or its callback has been queued.
	timers map[*timer]time.Time
}

type timer struct {
	s *Scheduler
	t *clock.Timer
}

func (t *timer) Stop() bool {
	t.s.forget(t)
	return t.t.Stop()
}

func NewScheduler(l *Loop, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{Clock: clk, Loop: l}
}

// AfterFunc arranges for f to run on the loop once d has elapsed.
//
// A timer that has already fired may have queued f before Stop is called;
// callers that need Stop to be final must guard f themselves.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) Timer {
	tm := &timer{s: s}
	s.mu.Lock()
	if s.timers == nil {
		s.timers = make(map[*timer]time.Time)
	}
	s.timers[tm] = s.Clock.Now().Add(d)
	s.mu.Unlock()

	tm.t = s.Clock.AfterFunc(d, func() {
		// Queue and forget atomically, so a timer never looks finished
		// before its callback is on the loop.
		s.mu.Lock()
		s.Loop.EmitEvent(CallbackEvent(f))
		delete(s.timers, tm)
		s.mu.Unlock()
	})
	return tm
}

func (s *Scheduler) forget(tm *timer) {
	s.mu.Lock()
	delete(s.timers, tm)
	s.mu.Unlock()
}

// Outstanding returns the number of timers that have neither been stopped
// nor queued their callback.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Overdue returns the number of outstanding timers whose deadline has passed
// on the scheduler's clock. Their callbacks are about to be queued.
func (s *Scheduler) Overdue() int {
	now := s.Clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, deadline := range s.timers {
		if !deadline.After(now) {
			n++
		}
	}
	return n
}

// NextDeadline returns the earliest deadline of the outstanding timers. ok is
// false if there are none.
func (s *Scheduler) NextDeadline() (deadline time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.timers {
		if !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	return deadline, ok
}
