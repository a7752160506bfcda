package emul

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/portside/crosshost/errors"
	"github.com/portside/crosshost/resolver"
)

// Manifest describes one loadable component.
type Manifest struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"` // "script" or "native"
	Exports []string `yaml:"exports"`
}

// Module is a loaded component: the manifest plus where it came from.
// Distinct loads of the same identifier produce distinct Module instances,
// which is what makes substitute memoization observable.
type Module struct {
	Manifest
	Source string
}

// Export reports whether the module exposes a named capability.
func (m *Module) Export(name string) bool {
	for _, e := range m.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// Loader is the host runtime's original resolution entry point: it loads
// component manifests from ordered search paths. Native-binary components
// exist on disk but refuse to load, which is exactly the failure the
// substitution registry keeps the guest from ever reaching.
type Loader struct {
	searchPaths []string
}

// NewLoader creates a loader over ordered search paths.
func NewLoader(searchPaths ...string) *Loader {
	return &Loader{searchPaths: searchPaths}
}

// Resolve implements resolver.Resolver.
func (l *Loader) Resolve(_ context.Context, id string, _ resolver.Request) (resolver.Component, error) {
	path, ok := l.find(id)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, id)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Component(id).
			Cause(err).
			Build()
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Component(id).
			Cause(err).
			Detail("malformed component manifest").
			Build()
	}

	if m.Kind == "native" {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnsupported).
			Component(id).
			Detail("native binary built for another host environment").
			Build()
	}

	return &Module{Manifest: m, Source: path}, nil
}

func (l *Loader) find(id string) (string, bool) {
	for _, dir := range l.searchPaths {
		for _, candidate := range []string{id + ".yaml", id} {
			p := filepath.Join(dir, candidate)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p, true
			}
		}
	}
	return "", false
}
