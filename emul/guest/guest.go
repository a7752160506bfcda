// Package guest simulates the hosted application. It is deliberately NOT a
// trusted package: its call frames classify as guest provenance, so the
// identity accessors answer it with the virtual triple.
//
// The simulation reproduces the guest behaviors the interposition layer
// exists for: it derives a per-build channel prefix, registers handlers
// whose own logic is wrong off its native platform, loads the native addon
// it was bundled with, and asks for a borderless main window.
package guest

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/google/uuid"

	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/identity"
	"github.com/portside/crosshost/resolver"
	"github.com/portside/crosshost/window"
)

// Env is the slice of the host runtime the guest can reach.
type Env interface {
	Identity() *identity.Context
	Resolver() resolver.Resolver
	Main() dispatch.Surface
	Windows() window.Factory
}

// App is one simulated guest build.
type App struct {
	Version string

	prefix string
	window window.Window
}

// New creates a guest build with a fresh opaque channel identifier segment:
// a uuid fragment plus the build's semver, the kind of junk real builds
// embed in channel names.
func New(version string) *App {
	v := semver.New(version)
	id := strings.Split(uuid.NewString(), "-")[0]
	return &App{
		Version: version,
		prefix:  fmt.Sprintf("%s-v%d.%d_PREFIX_", id, v.Major, v.Minor),
	}
}

// Channel builds a full channel name from the stable suffix.
func (a *App) Channel(suffix string) string {
	return a.prefix + suffix
}

// Run performs the guest's startup sequence against the host environment.
func (a *App) Run(ctx context.Context, env Env) error {
	ident := env.Identity()

	// The guest trusts what it observes; built for darwin, it takes any
	// other answer as a corrupt install.
	if p := ident.Platform(); p != "darwin" {
		return fmt.Errorf("unsupported platform %q, reinstall the application", p)
	}

	// Native addon the bundle ships for its original host.
	if _, err := env.Resolver().Resolve(ctx, "swift_addon.node", resolver.Request{Referrer: "app/main"}); err != nil {
		return fmt.Errorf("load swift addon: %w", err)
	}

	a.registerHandlers(env.Main(), ident)

	// Borderless chrome the way the original host draws it.
	w, err := env.Windows().Create(ctx, &window.Options{
		Title:           "Guest",
		Width:           1200,
		Height:          800,
		TitleBarStyle:   "hidden",
		TitleBarOverlay: map[string]any{"height": 36},
	})
	if err != nil {
		return fmt.Errorf("create main window: %w", err)
	}
	a.window = w
	return nil
}

// registerHandlers mirrors the guest's own dispatch registrations.
func (a *App) registerHandlers(main dispatch.Surface, ident *identity.Context) {
	// Feature probe: the guest gates features on a fresh platform check.
	// Dispatched handlers run under host-runtime frames, so the probe
	// observes the real platform and the gate fails off the guest's native
	// host. The interposition layer force-overrides this channel.
	main.Register(a.Channel("AppFeatures_getSupportedFeatures"),
		func(context.Context, any) (any, error) {
			state := "unsupported"
			if ident.Platform() == "darwin" {
				state = "supported"
			}
			return map[string]any{"quietPenguin": state, "louderPenguin": state}, nil
		})

	// Settings store: rejects when its native keychain backing is absent.
	main.Register(a.Channel("Settings_get"),
		func(context.Context, any) (any, error) {
			return nil, fmt.Errorf("keychain backend unavailable")
		})

	// Plain window control, no policy applies.
	main.Register(a.Channel("Window_minimize"),
		func(context.Context, any) (any, error) {
			return "minimized", nil
		})
}

// MainWindow returns the constructed main window, if Run succeeded.
func (a *App) MainWindow() window.Window { return a.window }
