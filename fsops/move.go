// Package fsops provides the cross-filesystem move fallback and the fixed
// staging directory the layer relocates guest files into.
//
// The staging directory sits on the destination filesystem precisely so
// most moves never cross a device boundary; the fallback covers the ones
// that still do.
package fsops

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Mover performs moves with a copy+delete fallback on cross-device errors.
// The zero value uses the real rename primitive; tests inject Rename to
// force the cross-device path.
type Mover struct {
	Rename func(src, dst string) error
}

func (m *Mover) rename(src, dst string) error {
	if m.Rename != nil {
		return m.Rename(src, dst)
	}
	return os.Rename(src, dst)
}

// Move renames src to dst, falling back to copy-then-delete when the rename
// fails with the cross-device error code. The fallback is explicitly not
// atomic: a crash between copy and delete can leave both paths populated,
// and callers must tolerate residual sources. Any other rename error is
// propagated unchanged.
func (m *Mover) Move(src, dst string) error {
	err := m.rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}

	if err := copyAll(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// MoveAsync runs Move off the caller's goroutine and reports through cb.
// Cancellation is not supported: once initiated the copy+delete sequence
// runs to completion or error.
func (m *Mover) MoveAsync(src, dst string, cb func(error)) {
	go func() {
		cb(m.Move(src, dst))
	}()
}

var defaultMover Mover

// Move is the package-level convenience over a default Mover.
func Move(src, dst string) error {
	return defaultMover.Move(src, dst)
}

// MoveAsync is the package-level convenience over a default Mover.
func MoveAsync(src, dst string, cb func(error)) {
	defaultMover.MoveAsync(src, dst, cb)
}

// isCrossDevice recognizes the one error code the fallback is defined for.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		err = linkErr.Err
	}
	return errors.Is(err, syscall.EXDEV)
}

// copyAll copies a file or a directory tree, preserving permissions.
func copyAll(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case fi.IsDir():
		return copyDir(src, dst, fi.Mode().Perm())
	default:
		return copyFile(src, dst, fi.Mode().Perm())
	}
}

func copyDir(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(dst, perm); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyAll(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
