package cache

import (
	"fmt"
	"sync"
)

// flight is one in-progress load
type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
	dups int
}

// SingleFlight collapses concurrent loads of the same key into one call.
// Waiters share the leader's result, including its error.
type SingleFlight[T any] struct {
	mu      sync.Mutex
	flights map[string]*flight[T]
}

// NewSingleFlight creates a new SingleFlight instance
func NewSingleFlight[T any]() *SingleFlight[T] {
	return &SingleFlight[T]{flights: make(map[string]*flight[T])}
}

// Do runs fn once per key among concurrent callers. shared reports whether
// the result went to more than one caller. A panic in fn is returned to
// every caller as an error.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if f, ok := g.flights[key]; ok {
		f.dups++
		g.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}
	f := &flight[T]{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.flights[key] == f {
			delete(g.flights, key)
		}
		shared = f.dups > 0
		g.mu.Unlock()
		close(f.done)
	}()

	func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("cache: load of %q panicked: %v", key, r)
			}
		}()
		f.val, f.err = fn()
	}()
	return f.val, f.err, false
}

// Forget drops the in-flight entry for key; the next Do starts a new load
func (g *SingleFlight[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.flights, key)
	g.mu.Unlock()
}
