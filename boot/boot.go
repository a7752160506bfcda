// Package boot installs the interposition layer in its required order and
// loads the guest strictly last.
//
// Ordering is the whole point: identity virtualization and the substitution
// registry go in before any component load, dispatch interception wraps the
// registration surfaces before the guest registers anything, the window
// factory is wrapped before the guest constructs a window, and only then is
// the guest entry resolved, through the already-mediated chokepoint.
package boot

import (
	"context"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"

	"github.com/portside/crosshost/config"
	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/emul"
	"github.com/portside/crosshost/errors"
	"github.com/portside/crosshost/fsops"
	"github.com/portside/crosshost/identity"
	"github.com/portside/crosshost/origin"
	"github.com/portside/crosshost/resolver"
	"github.com/portside/crosshost/window"
)

// Runtime is the booted layer: every interception mechanism installed and
// the guest entry component loaded.
type Runtime struct {
	host     *emul.Host
	ident    *identity.Context
	registry *resolver.Registry
	dispatch *dispatch.Interceptor
	staging  fsops.Staging
	guest    resolver.Component
	log      *zap.Logger
}

// Boot wires the layer into the host in strict order and loads the guest.
func Boot(ctx context.Context, cfg *config.Config, host *emul.Host, log *zap.Logger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := gateVersion(cfg.Guest); err != nil {
		return nil, err
	}

	// 1. Identity virtualization. The real triple is captured here, once.
	platform, arch, osVersion := cfg.VirtualDescriptor()
	classifier := origin.NewClassifier(cfg.Markers...)
	ident := identity.New(identity.Descriptor{
		Platform:  platform,
		Arch:      arch,
		OSVersion: osVersion,
	}, classifier, nil)
	log.Info("identity virtualization installed",
		zap.String("real", ident.Real().String()),
		zap.String("virtual", ident.Virtual().String()))

	// 2. Substitution registry, before anything resolves. Substitute
	// sources live in the staging directory.
	staging := fsops.Staging{Root: cfg.Staging.Root}
	registry := resolver.NewRegistry(host.BaseResolver(), cfg.Entries(), staging.Root)
	host.SetChokepoint(registry)

	// 3. Dispatch interception: process-wide surface now, each content
	// surface as the lifecycle announces it.
	table, err := cfg.PolicyTable()
	if err != nil {
		return nil, err
	}
	ic := dispatch.NewInterceptor(table)
	host.InstallMain(ic.Wrap("main", host.RawMain()))
	ic.WatchSurfaces(host, func(id string, wrapped dispatch.Surface) {
		host.InstallSurface(id, wrapped)
	})

	// 4. Window factory interception.
	host.SetWindowFactory(window.NewInterceptor(host.StockWindows(), ident))

	// 5. Staging directory and fetch-skip markers.
	if err := staging.Ensure(); err != nil {
		return nil, errors.Wrap(errors.PhaseBoot, errors.KindInvalidInput, err, "ensure staging directory")
	}
	if err := staging.WriteMarkers(cfg.Staging.Markers); err != nil {
		return nil, errors.Wrap(errors.PhaseBoot, errors.KindInvalidInput, err, "write staging markers")
	}

	// 6. Guest last, through the mediated chokepoint.
	guest, err := host.Resolve(ctx, cfg.Guest.Entry, resolver.Request{})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBoot, errors.KindNotFound, err, "load guest entry")
	}
	log.Info("guest loaded", zap.String("entry", cfg.Guest.Entry))

	return &Runtime{
		host:     host,
		ident:    ident,
		registry: registry,
		dispatch: ic,
		staging:  staging,
		guest:    guest,
		log:      log,
	}, nil
}

func gateVersion(g config.Guest) error {
	if g.Version == "" || g.MinSupported == "" {
		return nil
	}
	have, err := semver.NewVersion(g.Version)
	if err != nil {
		return errors.InvalidConfig("guest.version is not a semver", err)
	}
	want, err := semver.NewVersion(g.MinSupported)
	if err != nil {
		return errors.InvalidConfig("guest.min_supported is not a semver", err)
	}
	if have.LessThan(*want) {
		return errors.VersionGate(g.Version, g.MinSupported)
	}
	return nil
}

// Identity returns the identity context.
func (r *Runtime) Identity() *identity.Context { return r.ident }

// Resolver returns the mediated resolution chokepoint.
func (r *Runtime) Resolver() resolver.Resolver { return r.registry }

// Main returns the guest-visible process-wide registration surface.
func (r *Runtime) Main() dispatch.Surface { return r.host.Main() }

// Windows returns the guest-visible window factory.
func (r *Runtime) Windows() window.Factory { return r.host.Windows() }

// Dispatch returns the dispatch interceptor, for introspection and policy
// table swaps on config reload.
func (r *Runtime) Dispatch() *dispatch.Interceptor { return r.dispatch }

// Registry returns the substitution registry.
func (r *Runtime) Registry() *resolver.Registry { return r.registry }

// Staging returns the staging directory.
func (r *Runtime) Staging() fsops.Staging { return r.staging }

// Guest returns the loaded guest entry component.
func (r *Runtime) Guest() resolver.Component { return r.guest }

// Host returns the underlying host runtime.
func (r *Runtime) Host() *emul.Host { return r.host }
