package domain

import "fmt"

// EventKind is one of the three terminal page events.
type EventKind int

const (
	EventLoad EventKind = iota + 1
	EventAbort
	EventError
)

// String returns the DOM name of the event.
func (k EventKind) String() string {
	switch k {
	case EventLoad:
		return "load"
	case EventAbort:
		return "abort"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a terminal event fired by the page for one attached script.
type Event struct {
	Kind   EventKind
	Reason error
}

// Err returns the failure reason of an abort or error event. A page that
// fires without a reason gets a generic one so failures are never nil.
func (e Event) Err() error {
	if e.Kind == EventLoad {
		return nil
	}
	if e.Reason != nil {
		return e.Reason
	}
	return fmt.Errorf("script %s event", e.Kind)
}
