// Package clocktest provides a manual clock and scheduler for tests.
package clocktest

import (
	"sync"
	"time"
)

// Clock is a settable clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now implements clock.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Add moves the clock forward.
func (c *Clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type job struct {
	id       int
	interval time.Duration
	due      time.Duration
	fn       func()
	stopped  bool
}

// Scheduler fires registered jobs only when Advance is called.
// Jobs fire in registration order; a job registered while a tick is being
// delivered does not fire in that same tick.
type Scheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	nextID  int
	jobs    []*job
	clock   *Clock
}

// NewScheduler returns a manual scheduler. If clk is not nil it is moved
// forward together with the scheduler.
func NewScheduler(clk *Clock) *Scheduler {
	return &Scheduler{clock: clk}
}

// Every implements clock.Scheduler.
func (s *Scheduler) Every(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	j := &job{id: s.nextID, interval: interval, due: s.elapsed + interval, fn: fn}
	s.jobs = append(s.jobs, j)
	return func() {
		s.mu.Lock()
		j.stopped = true
		s.mu.Unlock()
	}
}

// Active returns the number of jobs that have not been stopped.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if !j.stopped {
			n++
		}
	}
	return n
}

// Tick advances by one second.
func (s *Scheduler) Tick() {
	s.Advance(time.Second)
}

// Ticks advances by n seconds, one second at a time.
func (s *Scheduler) Ticks(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Advance moves time forward by d and fires every job that became due.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.elapsed + d
	s.mu.Unlock()
	for {
		next, ok := s.nextDue(target)
		if !ok {
			break
		}
		s.fireAt(next)
	}
	s.mu.Lock()
	if s.clock != nil {
		s.clock.Add(target - s.elapsed)
	}
	s.elapsed = target
	s.mu.Unlock()
}

func (s *Scheduler) nextDue(target time.Duration) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	var next time.Duration
	for _, j := range s.jobs {
		if j.stopped || j.due > target {
			continue
		}
		if !found || j.due < next {
			next = j.due
			found = true
		}
	}
	return next, found
}

func (s *Scheduler) fireAt(at time.Duration) {
	s.mu.Lock()
	if s.clock != nil {
		s.clock.Add(at - s.elapsed)
	}
	s.elapsed = at
	var due []*job
	for _, j := range s.jobs {
		if !j.stopped && j.due == at {
			due = append(due, j)
		}
	}
	s.mu.Unlock()
	for _, j := range due {
		s.mu.Lock()
		stopped := j.stopped
		if !stopped {
			j.due += j.interval
		}
		s.mu.Unlock()
		if !stopped {
			j.fn()
		}
	}
	s.compact()
}

func (s *Scheduler) compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.stopped {
			live = append(live, j)
		}
	}
	s.jobs = live
}
