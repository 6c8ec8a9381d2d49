package domain

import (
	"strings"
)

// ScriptRef names a remote script and carries per-request option overrides.
//
// Name is the dedup key; two refs with the same Name share one registry
// entry regardless of Src.
type ScriptRef struct {
	// Name is the unique script name.
	Name string `json:"name"`

	// Src is the URL to fetch.
	Src string `json:"src"`

	// Integrity is an optional subresource-integrity value
	// ("sha256-<base64>", "sha384-...", "sha512-...").
	Integrity string `json:"integrity,omitempty"`

	// Options overrides the instance configuration for this request only.
	Options
}

// Validate checks that the reference can be loaded.
func (r ScriptRef) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidScriptRef.WithDetails("name is required")
	}
	if strings.TrimSpace(r.Src) == "" {
		return ErrInvalidScriptRef.WithDetails("src is required for " + r.Name)
	}
	return nil
}

// Outcome is the terminal result of one load attempt.
//
// Fetched is set on every terminal transition that yields a value; Loaded
// only on success. Module is set only on success and is whatever the page's
// module resolver returned for Name.
type Outcome struct {
	Name    string `json:"name"`
	Src     string `json:"src"`
	Fetched bool   `json:"fetched"`
	Loaded  bool   `json:"loaded"`
	Module  any    `json:"module,omitempty"`
}

// Clone returns a shallow copy. Module is shared.
func (o *Outcome) Clone() *Outcome {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// LoadedOutcome builds the outcome of a load event.
func LoadedOutcome(ref ScriptRef, module any) *Outcome {
	return &Outcome{
		Name:    ref.Name,
		Src:     ref.Src,
		Fetched: true,
		Loaded:  true,
		Module:  module,
	}
}

// SuppressedOutcome builds the outcome of a skipped abort or error event.
func SuppressedOutcome(ref ScriptRef) *Outcome {
	return &Outcome{
		Name:    ref.Name,
		Src:     ref.Src,
		Fetched: true,
	}
}

// EntryState is the registry state of a script name.
type EntryState int

const (
	// StateAbsent means nothing is known about the name.
	StateAbsent EntryState = iota
	// StatePending means a load for the name is in flight.
	StatePending
	// StateResolved means the registry holds an outcome for the name.
	StateResolved
)

// String returns the state name.
func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return "absent"
	}
}
