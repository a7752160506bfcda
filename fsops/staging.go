package fsops

import (
	"os"
	"path/filepath"
)

// Staging is the fixed-location staging directory. Guest files are moved
// here so later renames stay on one filesystem, and placeholder markers
// here make the downstream fetcher skip network fetches it would otherwise
// perform.
type Staging struct {
	Root string
}

// Ensure creates the staging root.
func (s Staging) Ensure() error {
	return os.MkdirAll(s.Root, 0o755)
}

// Path joins parts under the staging root.
func (s Staging) Path(parts ...string) string {
	return filepath.Join(append([]string{s.Root}, parts...)...)
}

// WriteMarkers drops zero-byte placeholder files. Existing markers are left
// alone so repeated boots stay idempotent.
func (s Staging) WriteMarkers(names []string) error {
	for _, name := range names {
		p := s.Path(name)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// HasMarker reports whether a placeholder marker exists.
func (s Staging) HasMarker(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}
