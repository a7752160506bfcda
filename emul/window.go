package emul

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/portside/crosshost/window"
)

// StockWindow is a constructed emulated window. It carries the options as
// they arrived at construction time, after any interception upstream.
type StockWindow struct {
	id          string
	Opts        window.Options
	MenuVisible bool
}

// ID implements window.Window.
func (w *StockWindow) ID() string { return w.id }

// SetMenuBarVisibility implements the optional menu-bar capability.
func (w *StockWindow) SetMenuBarVisibility(visible bool) {
	w.MenuVisible = visible
}

// StockFactory is the host runtime's real window constructor. It records
// every construction so tests and the inspector can examine outcomes.
type StockFactory struct {
	mu      sync.Mutex
	created []*StockWindow
}

// NewStockFactory creates an empty factory.
func NewStockFactory() *StockFactory {
	return &StockFactory{}
}

// Create implements window.Factory.
func (f *StockFactory) Create(_ context.Context, opts *window.Options) (window.Window, error) {
	w := &StockWindow{id: uuid.NewString()}
	if opts != nil {
		w.Opts = *opts
	}
	f.mu.Lock()
	f.created = append(f.created, w)
	f.mu.Unlock()
	return w, nil
}

// Created returns every window constructed so far.
func (f *StockFactory) Created() []*StockWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*StockWindow, len(f.created))
	copy(out, f.created)
	return out
}
