package window

import (
	"context"

	"go.uber.org/zap"

	"github.com/portside/crosshost/identity"
)

// Interceptor wraps the real window factory. When the real host identity
// differs from the one the guest targets, declarative borderless chrome is
// normalized to a native frame before construction.
type Interceptor struct {
	inner Factory
	ident *identity.Context
}

// NewInterceptor wraps a factory with identity-aware normalization.
func NewInterceptor(inner Factory, ident *identity.Context) *Interceptor {
	return &Interceptor{inner: inner, ident: ident}
}

// Create normalizes the construction intent, constructs through the real
// factory, then applies the environment-specific post-construction call.
func (i *Interceptor) Create(ctx context.Context, opts *Options) (Window, error) {
	// The decision consults the real, non-virtualized identity: the guest
	// targets the virtual triple, so a mismatch between real and virtual is
	// exactly "running somewhere the guest was not built for".
	if i.ident.Spoofing() && opts != nil {
		i.normalize(opts)
	}

	w, err := i.inner.Create(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Best effort: the target method may not exist on all constructed
	// instances, and the call is a convenience, not a contract.
	func() {
		defer func() {
			if r := recover(); r != nil {
				Logger().Debug("menu-bar toggle panicked, ignored", zap.Any("reason", r))
			}
		}()
		if m, ok := w.(MenuBarSetter); ok {
			m.SetMenuBarVisibility(true)
		}
	}()

	return w, nil
}

// normalize rewrites a decorationless-decorative intent into a native-framed
// one, leaving recognized overlay windows alone.
func (i *Interceptor) normalize(opts *Options) {
	if isOverlayIntent(opts) {
		Logger().Debug("overlay window intent, passing through unmodified",
			zap.String("title", opts.Title))
		return
	}

	borderless := opts.TitleBarStyle == "hidden" ||
		opts.TitleBarStyle == "hiddenInset" ||
		opts.TitleBarOverlay != nil

	if !borderless {
		return
	}

	Logger().Debug("normalizing borderless window to native frame",
		zap.String("title", opts.Title),
		zap.String("titleBarStyle", opts.TitleBarStyle))

	// Fresh allocation: Options stays guest-mutable after construction, so
	// the pointer must not be shared across normalizations.
	frame := true
	opts.Frame = &frame
	opts.TitleBarStyle = "default"
	opts.TitleBarOverlay = nil
	opts.AutoHideMenuBar = false
}

// isOverlayIntent recognizes a fully transparent, frameless overlay window.
// Those are legitimate non-decorated surfaces on every host and must not be
// rewritten.
func isOverlayIntent(opts *Options) bool {
	return !boolVal(opts.Frame, true) && opts.Transparent
}
