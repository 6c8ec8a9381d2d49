package service

import (
	"sync"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// Flight is one attached element and the requests waiting on it.
//
// It settles exactly once. Subscribers are notified after the flight lock
// is released.
type Flight struct {
	name string

	mu      sync.Mutex
	subs    map[*Pending]struct{}
	settled bool
	event   domain.Event

	done chan struct{}
}

// NewFlight creates an unsettled flight for name.
func NewFlight(name string) *Flight {
	return &Flight{
		name: name,
		subs: make(map[*Pending]struct{}),
		done: make(chan struct{}),
	}
}

// Name returns the script name of the flight.
func (f *Flight) Name() string {
	return f.name
}

// Done is closed once the flight settled and the repository was updated.
func (f *Flight) Done() <-chan struct{} {
	return f.done
}

// Subscribers returns the number of requests still waiting.
func (f *Flight) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Settled reports whether a terminal event was taken.
func (f *Flight) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// subscribe adds p. It returns false if the flight already settled.
func (f *Flight) subscribe(p *Pending) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return false
	}
	f.subs[p] = struct{}{}
	p.flight = f
	return true
}

// unsubscribe removes p. It returns false if p is no longer waiting, either
// because the flight settled or because p was already removed.
func (f *Flight) unsubscribe(p *Pending) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return false
	}
	if _, ok := f.subs[p]; !ok {
		return false
	}
	delete(f.subs, p)
	return true
}

// settle takes ev as the terminal event and returns the requests that were
// waiting. ok is false if the flight had already settled.
func (f *Flight) settle(ev domain.Event) (subs []*Pending, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return nil, false
	}
	f.settled = true
	f.event = ev

	subs = make([]*Pending, 0, len(f.subs))
	for p := range f.subs {
		subs = append(subs, p)
	}
	f.subs = nil
	return subs, true
}

// close marks the flight finished.
func (f *Flight) close() {
	close(f.done)
}
