package domain

// LoadConfig is the effective configuration of one load request.
type LoadConfig struct {
	// Async is copied to the script element.
	Async bool

	// SkipError turns an error event into a value with Loaded=false
	// instead of a failed result.
	SkipError bool

	// SkipAbort turns an abort event into a value with Loaded=false
	// instead of a failed result.
	SkipAbort bool

	// OnError runs before a propagated error event fails the result.
	OnError func(reason error)

	// OnAbort runs before a propagated abort event fails the result.
	OnAbort func(reason error)

	// OnLoad runs on a load event before the outcome is delivered.
	OnLoad func(outcome *Outcome)
}

// Options is one override layer. Nil fields leave the lower layer untouched.
type Options struct {
	Async     *bool `json:"async,omitempty"`
	SkipError *bool `json:"skip_error,omitempty"`
	SkipAbort *bool `json:"skip_abort,omitempty"`

	OnError func(reason error)     `json:"-"`
	OnAbort func(reason error)     `json:"-"`
	OnLoad  func(outcome *Outcome) `json:"-"`
}

// DefaultLoadConfig returns the library defaults: async, both failure kinds
// skipped, no-op callbacks.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		Async:     true,
		SkipError: true,
		SkipAbort: true,
		OnError:   func(error) {},
		OnAbort:   func(error) {},
		OnLoad:    func(*Outcome) {},
	}
}

// Merge applies layers over base in order; a later layer wins for every
// field it sets.
func Merge(base LoadConfig, layers ...Options) LoadConfig {
	cfg := base
	for _, l := range layers {
		if l.Async != nil {
			cfg.Async = *l.Async
		}
		if l.SkipError != nil {
			cfg.SkipError = *l.SkipError
		}
		if l.SkipAbort != nil {
			cfg.SkipAbort = *l.SkipAbort
		}
		if l.OnError != nil {
			cfg.OnError = l.OnError
		}
		if l.OnAbort != nil {
			cfg.OnAbort = l.OnAbort
		}
		if l.OnLoad != nil {
			cfg.OnLoad = l.OnLoad
		}
	}
	return cfg
}

// Resolve merges library defaults, the instance layer and the request layer.
func Resolve(instance, request Options) LoadConfig {
	return Merge(DefaultLoadConfig(), instance, request)
}

// Bool returns a pointer to v, for building Options literals.
func Bool(v bool) *bool {
	return &v
}
