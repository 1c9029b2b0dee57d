// Package schedule provides repeating callbacks with cancel handles.
package schedule

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback. It is safe to call more than once and
// from inside the callback itself.
type Cancel func()

// Scheduler runs fn every interval until cancelled. Invocations of one fn
// never overlap; the next one is armed only after the previous returns.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

// Ticker schedules on the wall clock, one goroutine per callback.
type Ticker struct{}

func (Ticker) Every(interval time.Duration, fn func()) Cancel {
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		for {
			select {
			case <-stop:
				return
			case <-timer.C:
			}
			select {
			case <-stop:
				return
			default:
			}
			fn()
			timer.Reset(interval)
		}
	}()
	return func() { once.Do(func() { close(stop) }) }
}

// Manual fires callbacks only when Advance is called. Tests use it to drive
// ticks synchronously.
type Manual struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
	order  []int
}

func NewManual() *Manual {
	return &Manual{jobs: make(map[int]func())}
}

func (m *Manual) Every(_ time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.jobs[id] = fn
	m.order = append(m.order, id)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Advance fires every live callback n times, in registration order. A callback
// cancelled mid-way is not fired again.
func (m *Manual) Advance(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		ids := append([]int(nil), m.order...)
		m.mu.Unlock()
		for _, id := range ids {
			m.mu.Lock()
			fn, ok := m.jobs[id]
			m.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// Active returns the number of live callbacks.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
