package clocktest

import (
	"testing"
	"time"
)

func TestSchedulerFiresInRegistrationOrder(t *testing.T) {
	s := NewScheduler(nil)
	var order []string
	s.Every(time.Second, func() { order = append(order, "a") })
	s.Every(time.Second, func() { order = append(order, "b") })
	s.Ticks(2)
	want := []string{"a", "b", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestSchedulerStopInsideTick(t *testing.T) {
	s := NewScheduler(nil)
	count := 0
	var stop func()
	stop = s.Every(time.Second, func() {
		count++
		stop()
	})
	s.Ticks(5)
	if count != 1 {
		t.Fatalf("expected one fire, got %d", count)
	}
	if s.Active() != 0 {
		t.Fatalf("expected no active jobs, got %d", s.Active())
	}
}

func TestSchedulerJobRegisteredDuringTickWaits(t *testing.T) {
	s := NewScheduler(nil)
	inner := 0
	registered := false
	s.Every(time.Second, func() {
		if !registered {
			registered = true
			s.Every(time.Second, func() { inner++ })
		}
	})
	s.Tick()
	if inner != 0 {
		t.Fatalf("new job fired in the tick it was registered in")
	}
	s.Tick()
	if inner != 1 {
		t.Fatalf("expected new job to fire once, got %d", inner)
	}
}

func TestSchedulerMovesClock(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	clk := NewClock(start)
	s := NewScheduler(clk)
	s.Ticks(3)
	if got := clk.Now().Sub(start); got != 3*time.Second {
		t.Fatalf("expected clock to move 3s, moved %s", got)
	}
}
