package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/portside/crosshost/errors"
)

// Action selects what a matching entry does with a load request.
type Action int

const (
	// ActionSubstitute redirects the load to a named substitute module.
	ActionSubstitute Action = iota
	// ActionStub answers the load with an inert empty capability.
	ActionStub
)

func (a Action) String() string {
	if a == ActionStub {
		return "stub"
	}
	return "substitute"
}

// Entry is one substitution rule. Matching is substring-based; entries are
// tried in order and the first match wins, so a given identifier pattern
// maps to exactly one action.
type Entry struct {
	Pattern    string
	Action     Action
	Substitute string
}

// Registry wraps the host runtime's original resolution entry point.
// It must be installed before any component load so later interception
// layers find the runtime module already mediated.
type Registry struct {
	next      Resolver
	entries   []Entry
	sourceDir string

	mu    sync.Mutex
	cache map[string]Component
}

// NewRegistry creates a registry over the original resolver. sourceDir is
// the directory substitute sources must exist in; an empty dir disables the
// existence probe (tests provide their own next resolver).
func NewRegistry(next Resolver, entries []Entry, sourceDir string) *Registry {
	return &Registry{
		next:      next,
		entries:   entries,
		sourceDir: sourceDir,
		cache:     make(map[string]Component),
	}
}

// Entries returns a copy of the substitution table, for introspection.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Resolve applies the substitution table to one load request.
// No match delegates to the original path unchanged. Internal requests
// (loads the registry issued itself) always delegate.
func (r *Registry) Resolve(ctx context.Context, id string, req Request) (Component, error) {
	if req.Internal {
		return r.next.Resolve(ctx, id, req)
	}

	for _, e := range r.entries {
		if !strings.Contains(id, e.Pattern) {
			continue
		}
		switch e.Action {
		case ActionStub:
			Logger().Debug("stubbed component load",
				zap.String("id", id),
				zap.String("pattern", e.Pattern))
			return inertStub, nil
		default:
			return r.substitute(ctx, id, e)
		}
	}

	return r.next.Resolve(ctx, id, req)
}

// substitute loads the entry's substitute module, memoized per identifier.
// The first successful load is cached and returned on all later requests so
// the substitute's initialization side effects run exactly once.
func (r *Registry) substitute(ctx context.Context, id string, e Entry) (Component, error) {
	r.mu.Lock()
	if c, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	if r.sourceDir != "" {
		src := filepath.Join(r.sourceDir, e.Substitute)
		if _, err := statAny(src); err != nil {
			// Falling through here would let the guest load the unavailable
			// native component and crash later with an unrelated error.
			return nil, errors.SubstituteMissing(id, src)
		}
	}

	c, err := r.next.Resolve(ctx, e.Substitute, Request{Referrer: id, Internal: true})
	if err != nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindSubstituteMissing).
			Component(id).
			Cause(err).
			Detail("substitute %q failed to load", e.Substitute).
			Build()
	}

	r.mu.Lock()
	// First successful load wins even if a concurrent load slipped in.
	if prior, ok := r.cache[id]; ok {
		c = prior
	} else {
		r.cache[id] = c
	}
	r.mu.Unlock()

	Logger().Info("substituted component",
		zap.String("id", id),
		zap.String("substitute", e.Substitute))
	return c, nil
}

// statAny accepts the substitute source as a file, a directory, or any
// matching extension variant (swift-shim, swift-shim.yaml, swift-shim.js).
func statAny(path string) (os.FileInfo, error) {
	if fi, err := os.Stat(path); err == nil {
		return fi, nil
	}
	matches, _ := filepath.Glob(path + ".*")
	if len(matches) > 0 {
		return os.Stat(matches[0])
	}
	return os.Stat(path)
}
