package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on w while a request is in flight.
//
// Stop, Success and Fail may be called more than once, and without Start.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	mu       sync.Mutex
	started  bool
	stopped  bool
	done     chan struct{}
	finished chan struct{}
}

// NewSpinner creates a spinner that redraws every 100ms.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start starts the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	go func() {
		defer close(s.finished)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.draw(spinnerFrames[i%len(spinnerFrames)])
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	fmt.Fprintf(s.w, "\r%s %s", frame, s.message)
}

// stop ends the animation and reports whether this call did it.
func (s *Spinner) stop() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.stopped = true
	started := s.started
	close(s.done)
	s.mu.Unlock()

	if started {
		<-s.finished
	}
	return true
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	if s.stop() {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	if s.stop() {
		fmt.Fprintf(s.w, "\r\033[K✓ %s\n", message)
	}
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	if s.stop() {
		fmt.Fprintf(s.w, "\r\033[K✗ %s\n", message)
	}
}
