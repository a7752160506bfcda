package emul

import (
	"context"
	"fmt"
	"sync"

	"github.com/portside/crosshost/dispatch"
)

// ChannelSurface is one handler-registration surface: a channel map with an
// inbound invoke path. The process-wide main surface and each content
// surface are both ChannelSurfaces.
type ChannelSurface struct {
	id       string
	mu       sync.RWMutex
	handlers map[string]dispatch.Handler
}

// NewChannelSurface creates an empty surface.
func NewChannelSurface(id string) *ChannelSurface {
	return &ChannelSurface{
		id:       id,
		handlers: make(map[string]dispatch.Handler),
	}
}

// ID returns the surface identifier.
func (s *ChannelSurface) ID() string { return s.id }

// Register implements dispatch.Surface. Re-registration replaces.
func (s *ChannelSurface) Register(channel string, h dispatch.Handler) {
	s.mu.Lock()
	s.handlers[channel] = h
	s.mu.Unlock()
}

// Remove implements dispatch.Surface.
func (s *ChannelSurface) Remove(channel string) {
	s.mu.Lock()
	delete(s.handlers, channel)
	s.mu.Unlock()
}

// Invoke dispatches an inbound request to the registered handler.
func (s *ChannelSurface) Invoke(ctx context.Context, channel string, payload any) (any, error) {
	s.mu.RLock()
	h, ok := s.handlers[channel]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler registered for channel %q", channel)
	}
	return h(ctx, payload)
}

// Channels lists the registered channel names.
func (s *ChannelSurface) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.handlers))
	for ch := range s.handlers {
		out = append(out, ch)
	}
	return out
}
