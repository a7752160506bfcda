// Package window intercepts construction of the host runtime's UI window
// type.
//
// The guest declares window chrome for the environment it was built for;
// on a differing real host those declarations produce broken frames. The
// interception is a WindowFactory implementation wrapping the real one:
// the factory is substituted where the host runtime module is resolved, so
// the constructor itself stays a fixed, non-reassignable export.
package window

import (
	"context"
)

// Options is the construction intent passed to the factory. The interceptor
// mutates it in place before construction.
type Options struct {
	Title           string
	Width           int
	Height          int
	Frame           *bool
	Transparent     bool
	TitleBarStyle   string
	TitleBarOverlay map[string]any
	AutoHideMenuBar bool
}

// Window is a constructed UI window.
type Window interface {
	ID() string
}

// MenuBarSetter is the optional post-construction capability. Not every
// constructed instance has it; the interceptor probes with a type assertion
// and ignores its absence.
type MenuBarSetter interface {
	SetMenuBarVisibility(visible bool)
}

// Factory constructs windows. The host-runtime-binding layer obtains its
// factory through this capability rather than by naming the constructor
// type, which is what makes interception possible at all.
type Factory interface {
	Create(ctx context.Context, opts *Options) (Window, error)
}

// boolVal reports the value of an optional bool with a default.
func boolVal(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// True and False are convenience pointers for Options.Frame literals.
// Interception code never assigns them into an Options: the intent object
// stays guest-mutable, so normalization allocates fresh bools instead.
var (
	ptrTrue  = true
	ptrFalse = false
	True     = &ptrTrue
	False    = &ptrFalse
)
