package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// exdevMover forces the rename to fail with the cross-device code, the way
// a rename across mount points would.
func exdevMover() *Mover {
	return &Mover{Rename: func(src, dst string) error {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: syscall.EXDEV}
	}}
}

func TestMove_SameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "payload")

	var m Mover
	if err := m.Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if got := readFile(t, dst); got != "payload" {
		t.Errorf("dst content = %q", got)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("src must be gone after move")
	}
}

func TestMove_CrossDeviceFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "payload")

	if err := exdevMover().Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if got := readFile(t, dst); got != "payload" {
		t.Errorf("dst content = %q, want src's original content", got)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("src must be absent after the fallback completes")
	}
}

func TestMove_CrossDeviceDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tree")
	dst := filepath.Join(dir, "moved")
	writeFile(t, filepath.Join(src, "a.txt"), "A")
	writeFile(t, filepath.Join(src, "nested", "b.txt"), "B")

	if err := exdevMover().Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if got := readFile(t, filepath.Join(dst, "a.txt")); got != "A" {
		t.Errorf("a.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(dst, "nested", "b.txt")); got != "B" {
		t.Errorf("nested/b.txt = %q", got)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("src tree must be removed")
	}
}

func TestMove_OtherErrorsPropagate(t *testing.T) {
	sentinel := errors.New("permission denied")
	m := &Mover{Rename: func(string, string) error { return sentinel }}

	err := m.Move("/nope/a", "/nope/b")
	if !errors.Is(err, sentinel) {
		t.Errorf("Move() error = %v, want the rename error unchanged", err)
	}
}

func TestMove_BareEXDEVRecognized(t *testing.T) {
	// Some callers surface EXDEV without the LinkError wrapper.
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "x")

	m := &Mover{Rename: func(string, string) error { return syscall.EXDEV }}
	if err := m.Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got := readFile(t, dst); got != "x" {
		t.Errorf("dst = %q", got)
	}
}

func TestMoveAsync(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "async")

	done := make(chan error, 1)
	exdevMover().MoveAsync(src, dst, func(err error) { done <- err })

	if err := <-done; err != nil {
		t.Fatalf("MoveAsync() error = %v", err)
	}
	if got := readFile(t, dst); got != "async" {
		t.Errorf("dst = %q", got)
	}
}

func TestStaging(t *testing.T) {
	s := Staging{Root: filepath.Join(t.TempDir(), "staging")}

	if err := s.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	markers := []string{"model.fetched", "assets/icons.fetched"}
	if err := s.WriteMarkers(markers); err != nil {
		t.Fatalf("WriteMarkers() error = %v", err)
	}

	for _, m := range markers {
		if !s.HasMarker(m) {
			t.Errorf("HasMarker(%q) = false", m)
		}
		fi, err := os.Stat(s.Path(m))
		if err != nil {
			t.Fatalf("marker stat: %v", err)
		}
		if fi.Size() != 0 {
			t.Errorf("marker %q should be zero-byte, got %d", m, fi.Size())
		}
	}

	if s.HasMarker("never.fetched") {
		t.Error("HasMarker on absent marker = true")
	}

	// Idempotent: rewriting markers must not fail or truncate anything new.
	if err := s.WriteMarkers(markers); err != nil {
		t.Fatalf("second WriteMarkers() error = %v", err)
	}
}
