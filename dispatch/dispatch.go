// Package dispatch rewrites the effective behavior of registered request
// handlers by channel-name pattern.
//
// The host runtime exposes handler registration on a process-wide surface
// and on each UI content surface. Both get wrapped before the guest
// registers anything; every registration then passes through the policy
// tables first. Channel names carry an opaque, version-dependent identifier
// segment, so matching is substring-based against the stable handler-name
// suffix only and behavior is independent of whatever identifier the guest
// build embeds.
package dispatch

import (
	"context"
	"strings"
)

// Handler processes one dispatched request. A rejected request maps to the
// error return; an asynchronous handler blocks on ctx like any Go call.
type Handler func(ctx context.Context, payload any) (any, error)

// Surface is a handler-registration surface of the host runtime. The
// process-wide surface and each per-content surface both satisfy it.
type Surface interface {
	Register(channel string, h Handler)
	Remove(channel string)
}

// Lifecycle announces newly created content surfaces so their registration
// entry points can be wrapped as they appear.
type Lifecycle interface {
	OnSurfaceCreated(fn func(id string, s Surface))
}

// Rule binds a channel-name pattern to a policy handler.
type Rule struct {
	Pattern string
	Handler Handler
}

// PolicyTable holds the two interception policies.
//
// ForceOverride rules replace the guest's handler outright; the guest's
// handler is never invoked for a matching channel and the registration can
// never be removed. FallbackOnError rules keep the guest's handler but
// recover any error it returns with the fallback's result.
type PolicyTable struct {
	ForceOverride   []Rule
	FallbackOnError []Rule
}

// matchRules returns the first rule whose pattern is a substring of the
// channel name. The identifier segment of the channel never participates:
// patterns only name the stable suffix.
func matchRules(rules []Rule, channel string) (Rule, bool) {
	for _, r := range rules {
		if strings.Contains(channel, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// Overridden reports whether a channel matches any force-override pattern.
func (t PolicyTable) Overridden(channel string) bool {
	_, ok := matchRules(t.ForceOverride, channel)
	return ok
}
