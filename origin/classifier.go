package origin

import "strings"

// Class is the provenance verdict for a call site.
type Class int

const (
	// Guest marks a call originating from the guest application.
	Guest Class = iota
	// Trusted marks a call originating from host-runtime internals or the
	// interposition layer itself.
	Trusted
)

func (c Class) String() string {
	if c == Trusted {
		return "trusted"
	}
	return "guest"
}

// Frame describes one captured stack frame.
type Frame struct {
	Function string
	File     string
}

// defaultMarkers is the built-in allow-list of trusted provenance markers.
// A frame whose function or file contains any marker is host-runtime
// provenance. The interposition packages are included so interception code
// observing identity facts sees the real environment. The trailing dot on
// package markers keeps "crosshost/emul." from matching the simulated guest
// under "crosshost/emul/guest".
//
// The boot package is deliberately absent: its guard frame encloses all
// guest execution, and a marker there would classify every guarded guest
// access as trusted. Same for the Go runtime's own frames, which sit at the
// bottom of every goroutine stack.
var defaultMarkers = []string{
	"crosshost/identity.",
	"crosshost/origin.",
	"crosshost/resolver.",
	"crosshost/dispatch.",
	"crosshost/window.",
	"crosshost/emul.",
}

// Classifier decides whether a stack snapshot belongs to trusted runtime
// internals or to the guest application.
type Classifier struct {
	markers []string
}

// NewClassifier creates a classifier with the given trusted markers.
// With no markers it falls back to the built-in allow-list.
func NewClassifier(markers ...string) *Classifier {
	if len(markers) == 0 {
		markers = defaultMarkers
	}
	return &Classifier{markers: markers}
}

// Markers returns a copy of the active marker list.
func (c *Classifier) Markers() []string {
	out := make([]string, len(c.markers))
	copy(out, c.markers)
	return out
}

// Classify inspects a stack snapshot and returns its provenance.
// Matching is substring-based and stops at the first hit. An empty or nil
// snapshot classifies as Guest: when provenance cannot be established the
// layer fails toward virtualization, never toward leaking the real identity.
func (c *Classifier) Classify(frames []Frame) Class {
	for _, f := range frames {
		for _, m := range c.markers {
			if strings.Contains(f.Function, m) || strings.Contains(f.File, m) {
				return Trusted
			}
		}
	}
	return Guest
}
