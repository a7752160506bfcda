// Package emul is an in-memory host runtime: a component loader, handler
// registration surfaces with a surface-creation lifecycle, and a window
// factory. It exposes the chokepoints the interposition layer needs and
// nothing else, so the layer's installation order and behavior can be
// exercised end to end without a real embedding runtime.
package emul

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/resolver"
	"github.com/portside/crosshost/window"
)

// Host owns the runtime's consumed interfaces. Every chokepoint is held as
// an interface value that interposition replaces before any guest activity.
type Host struct {
	loader *Loader

	mu         sync.Mutex
	chokepoint resolver.Resolver
	rawMain    *ChannelSurface
	guestMain  dispatch.Surface
	listeners  []func(id string, s dispatch.Surface)
	surfaces   map[string]*surfaceSlot
	stock      *StockFactory
	factory    window.Factory
}

type surfaceSlot struct {
	raw   *ChannelSurface
	guest dispatch.Surface
}

// NewHost creates a host runtime loading components from the search paths.
func NewHost(searchPaths ...string) *Host {
	loader := NewLoader(searchPaths...)
	stock := NewStockFactory()
	main := NewChannelSurface("main")
	return &Host{
		loader:     loader,
		chokepoint: loader,
		rawMain:    main,
		guestMain:  main,
		surfaces:   make(map[string]*surfaceSlot),
		stock:      stock,
		factory:    stock,
	}
}

// BaseResolver returns the original, non-intercepted resolution entry
// point. The substitution registry delegates here.
func (h *Host) BaseResolver() resolver.Resolver { return h.loader }

// SetChokepoint installs a wrapped resolver as the resolution chokepoint.
// Must happen before any component is loaded.
func (h *Host) SetChokepoint(r resolver.Resolver) {
	h.mu.Lock()
	h.chokepoint = r
	h.mu.Unlock()
}

// Resolve routes a load through the current chokepoint.
func (h *Host) Resolve(ctx context.Context, id string, req resolver.Request) (resolver.Component, error) {
	h.mu.Lock()
	r := h.chokepoint
	h.mu.Unlock()
	return r.Resolve(ctx, id, req)
}

// RawMain returns the underlying process-wide surface, the one inbound
// requests actually dispatch against.
func (h *Host) RawMain() *ChannelSurface { return h.rawMain }

// Main returns the registration surface the guest sees. Before interception
// installs, that is the raw surface itself.
func (h *Host) Main() dispatch.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.guestMain
}

// InstallMain splices a wrapped surface in front of the raw one.
func (h *Host) InstallMain(s dispatch.Surface) {
	h.mu.Lock()
	h.guestMain = s
	h.mu.Unlock()
}

// OnSurfaceCreated implements dispatch.Lifecycle.
func (h *Host) OnSurfaceCreated(fn func(id string, s dispatch.Surface)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// CreateSurface mints a new content surface, announces it to lifecycle
// listeners, and returns its id.
func (h *Host) CreateSurface() string {
	id := uuid.NewString()
	raw := NewChannelSurface(id)

	h.mu.Lock()
	h.surfaces[id] = &surfaceSlot{raw: raw, guest: raw}
	listeners := make([]func(string, dispatch.Surface), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(id, raw)
	}
	return id
}

// InstallSurface splices a wrapped surface in front of a content surface.
func (h *Host) InstallSurface(id string, s dispatch.Surface) {
	h.mu.Lock()
	if slot, ok := h.surfaces[id]; ok {
		slot.guest = s
	}
	h.mu.Unlock()
}

// Surface returns the registration surface the guest sees for a content
// surface id, or nil for an unknown id.
func (h *Host) Surface(id string) dispatch.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	if slot, ok := h.surfaces[id]; ok {
		return slot.guest
	}
	return nil
}

// Invoke dispatches an inbound request on the process-wide surface.
func (h *Host) Invoke(ctx context.Context, channel string, payload any) (any, error) {
	return h.rawMain.Invoke(ctx, channel, payload)
}

// InvokeOn dispatches an inbound request on a content surface.
func (h *Host) InvokeOn(ctx context.Context, surfaceID, channel string, payload any) (any, error) {
	h.mu.Lock()
	slot, ok := h.surfaces[surfaceID]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no such surface %q", surfaceID)
	}
	return slot.raw.Invoke(ctx, channel, payload)
}

// StockWindows returns the real window factory, pre-interception.
func (h *Host) StockWindows() *StockFactory { return h.stock }

// Windows returns the window factory the guest obtains, post-interception.
func (h *Host) Windows() window.Factory {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.factory
}

// SetWindowFactory installs a wrapped factory as the guest-visible one.
func (h *Host) SetWindowFactory(f window.Factory) {
	h.mu.Lock()
	h.factory = f
	h.mu.Unlock()
}
