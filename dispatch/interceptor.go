package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Policy labels recorded against an intercepted registration.
const (
	PolicyForceOverride   = "force_override"
	PolicyFallbackOnError = "fallback_on_error"
	PolicyPassthrough     = "passthrough"
)

// Record describes one registration as the interceptor last saw it.
type Record struct {
	Surface string
	Channel string
	Policy  string
}

// Interceptor wraps registration surfaces with the policy tables.
//
// The policy tables can be swapped at runtime (config hot reload); lookup
// happens on every Register call, never once per channel, because the guest
// may register, unregister, and re-register the same channel and each
// occurrence is re-evaluated independently.
type Interceptor struct {
	mu      sync.RWMutex
	table   PolicyTable
	records map[string]Record
	wrapped map[string]bool
}

// NewInterceptor creates an interceptor over the given policy table.
func NewInterceptor(table PolicyTable) *Interceptor {
	return &Interceptor{
		table:   table,
		records: make(map[string]Record),
		wrapped: make(map[string]bool),
	}
}

// SetTable swaps the policy tables. Registrations already in place keep the
// policy in effect when they were made; future registrations see the new
// tables.
func (i *Interceptor) SetTable(table PolicyTable) {
	i.mu.Lock()
	i.table = table
	i.mu.Unlock()
	Logger().Info("dispatch policy tables swapped",
		zap.Int("force_override", len(table.ForceOverride)),
		zap.Int("fallback_on_error", len(table.FallbackOnError)))
}

func (i *Interceptor) snapshot() PolicyTable {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.table
}

// Wrap returns an interposing surface over s. The name identifies the
// surface in introspection records ("main" for the process-wide surface).
func (i *Interceptor) Wrap(name string, s Surface) Surface {
	return &wrappedSurface{parent: i, name: name, inner: s}
}

// WatchSurfaces subscribes to surface creation and wraps each new surface's
// registration entry point. Wrapping is idempotent per surface id: a
// lifecycle source that announces the same surface twice gets the wrapper
// installed once.
//
// install receives the wrapped surface and must splice it into whatever the
// guest will call for that surface.
func (i *Interceptor) WatchSurfaces(lc Lifecycle, install func(id string, wrapped Surface)) {
	lc.OnSurfaceCreated(func(id string, s Surface) {
		i.mu.Lock()
		if i.wrapped[id] {
			i.mu.Unlock()
			return
		}
		i.wrapped[id] = true
		i.mu.Unlock()

		Logger().Debug("wrapping content surface", zap.String("surface", id))
		install(id, i.Wrap(id, s))
	})
}

// Records returns the registrations the interceptor has processed, in no
// particular order.
func (i *Interceptor) Records() []Record {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Record, 0, len(i.records))
	for _, r := range i.records {
		out = append(out, r)
	}
	return out
}

func (i *Interceptor) record(surface, channel, policy string) {
	i.mu.Lock()
	i.records[surface+"\x00"+channel] = Record{Surface: surface, Channel: channel, Policy: policy}
	i.mu.Unlock()
}

func (i *Interceptor) unrecord(surface, channel string) {
	i.mu.Lock()
	delete(i.records, surface+"\x00"+channel)
	i.mu.Unlock()
}

type wrappedSurface struct {
	parent *Interceptor
	name   string
	inner  Surface
}

// Register applies the policy tables to one registration. Re-registration
// of the same channel replaces the previous record.
func (w *wrappedSurface) Register(channel string, h Handler) {
	table := w.parent.snapshot()

	if rule, ok := matchRules(table.ForceOverride, channel); ok {
		// The guest's handler is dropped: the replacement is registered in
		// its place and is never removable.
		Logger().Info("force-overriding handler",
			zap.String("surface", w.name),
			zap.String("channel", channel),
			zap.String("pattern", rule.Pattern))
		w.inner.Register(channel, rule.Handler)
		w.parent.record(w.name, channel, PolicyForceOverride)
		return
	}

	if rule, ok := matchRules(table.FallbackOnError, channel); ok {
		guest := h
		fallback := rule.Handler
		w.inner.Register(channel, func(ctx context.Context, payload any) (any, error) {
			res, err := guest(ctx, payload)
			if err == nil {
				return res, nil
			}
			Logger().Debug("guest handler failed, invoking fallback",
				zap.String("channel", channel),
				zap.Error(err))
			return fallback(ctx, payload)
		})
		w.parent.record(w.name, channel, PolicyFallbackOnError)
		return
	}

	w.inner.Register(channel, h)
	w.parent.record(w.name, channel, PolicyPassthrough)
}

// Remove refuses to remove force-overridden channels; overrides are
// permanent for the process lifetime. Everything else passes through.
func (w *wrappedSurface) Remove(channel string) {
	table := w.parent.snapshot()
	if table.Overridden(channel) {
		Logger().Debug("refusing removal of force-overridden channel",
			zap.String("surface", w.name),
			zap.String("channel", channel))
		return
	}
	w.inner.Remove(channel)
	w.parent.unrecord(w.name, channel)
}
