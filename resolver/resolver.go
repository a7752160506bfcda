// Package resolver mediates named-component loads for the host runtime.
//
// The host runtime exposes a single resolution chokepoint through which
// every component load passes. The Registry decorates that chokepoint:
// identifiers matching a substitution entry are redirected to substitute
// implementations or answered with an inert stub, everything else delegates
// to the original path unchanged. The chokepoint stays an explicit interface
// (chain-of-responsibility), never a patched loading primitive.
package resolver

import "context"

// Component is an opaque capability object produced by a load.
type Component any

// Request carries per-load context through the chain.
type Request struct {
	// Referrer names the component that issued the load, when known.
	Referrer string
	// Internal marks loads the registry issues itself while performing a
	// substitution. Internal loads bypass the substitution tables so a
	// substitute's own source resolves through the original path instead
	// of recursing back into the registry.
	Internal bool
}

// Resolver is the component-resolution chokepoint.
type Resolver interface {
	Resolve(ctx context.Context, id string, req Request) (Component, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, id string, req Request) (Component, error)

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context, id string, req Request) (Component, error) {
	return f(ctx, id, req)
}

// Stub is the inert empty capability object returned for stubbed
// identifiers. It carries no exports; the guest receives it in place of a
// native component it must never actually load.
type Stub struct{}

// inertStub is the process-wide stub instance. Every stubbed load returns
// the same object.
var inertStub = &Stub{}
