// Package clock abstracts wall time and repeating timers so session timing
// can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time to keep sessions deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Scheduler runs fn repeatedly every interval until the returned stop func
// is called. Stop must be safe to call more than once and must not block on
// an in-flight fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler is a Scheduler backed by time.Ticker, one goroutine per
// registration.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Locked wraps a Scheduler so every fn runs while holding l.
func Locked(s Scheduler, l sync.Locker) Scheduler {
	return lockedScheduler{inner: s, locker: l}
}

type lockedScheduler struct {
	inner  Scheduler
	locker sync.Locker
}

func (s lockedScheduler) Every(interval time.Duration, fn func()) func() {
	return s.inner.Every(interval, func() {
		s.locker.Lock()
		defer s.locker.Unlock()
		fn()
	})
}
