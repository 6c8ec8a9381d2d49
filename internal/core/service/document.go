package service

import "github.com/yndnr/scriptloader-go/internal/core/domain"

// ScriptType is the element type set on every injected script.
const ScriptType = "text/javascript"

// Element is a script-like resource descriptor.
//
// Exactly one of OnLoad, OnAbort or OnError is expected to fire once the
// element is attached. Extra calls are ignored by the loader.
type Element struct {
	Tag       string
	Type      string
	Src       string
	Async     bool
	ID        string
	Integrity string

	OnLoad  func()
	OnAbort func(reason error)
	OnError func(reason error)
}

// Document creates and attaches script elements.
type Document interface {
	// CreateElement returns a fresh element for tag.
	CreateElement(tag string) (*Element, error)

	// Attach inserts el into the page. Handlers may fire on any goroutine,
	// including before Attach returns.
	Attach(el *Element) (*Element, error)
}

// ModuleResolver looks up the module a script registered under name after
// it loaded. ok is false if the script registered nothing.
type ModuleResolver func(name string) (module any, ok bool)

// ScriptRepository stores outcomes by name and tracks the flight of each
// name that is being loaded.
type ScriptRepository interface {
	// Get returns a copy of the outcome recorded for name.
	Get(name string) (*domain.Outcome, bool)

	// Exists reports whether an outcome is recorded for name.
	Exists(name string) bool

	// IsLoaded reports whether name has a loaded outcome.
	IsLoaded(name string) bool

	// Put records an outcome. A loaded outcome is never replaced.
	Put(outcome *domain.Outcome)

	// State returns the tri-state of name.
	State(name string) domain.EntryState

	// Begin returns the loaded outcome for name if there is one. Otherwise
	// it returns the flight in progress for name, creating it when there is
	// none; leader is true for the caller that created it.
	Begin(name string) (cached *domain.Outcome, f *Flight, leader bool)

	// Finish clears f as the flight of name and records outcome if it is
	// not nil.
	Finish(name string, f *Flight, outcome *domain.Outcome)

	// List returns every recorded outcome sorted by name.
	List() []*domain.Outcome

	// Len returns the number of recorded outcomes.
	Len() int
}
