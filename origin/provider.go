package origin

import "runtime"

// Provider supplies stack snapshots for classification. It is the injectable
// port that lets tests replace real stack capture with canned verdict data.
type Provider interface {
	Snapshot() []Frame
}

const maxDepth = 64

// RuntimeProvider captures the live goroutine stack via runtime.Callers.
// Skip drops that many additional frames beyond the capture machinery
// itself, so callers can hide their own accessor frames from the verdict.
type RuntimeProvider struct {
	Skip int
}

// NewRuntimeProvider creates a provider that skips the given number of
// frames above Snapshot.
func NewRuntimeProvider(skip int) *RuntimeProvider {
	return &RuntimeProvider{Skip: skip}
}

// Snapshot captures the current call stack. A fresh capture happens on
// every call; the caller varies per access, so snapshots are never reused.
func (p *RuntimeProvider) Snapshot() []Frame {
	pcs := make([]uintptr, maxDepth)
	// 2 skips runtime.Callers and Snapshot itself.
	n := runtime.Callers(2+p.Skip, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, Frame{Function: f.Function, File: f.File})
		if !more {
			break
		}
	}
	return out
}

// StaticProvider returns the same canned snapshot on every call.
// Test doubles use it to force a deterministic verdict.
type StaticProvider []Frame

// Snapshot returns the canned frames.
func (p StaticProvider) Snapshot() []Frame {
	return []Frame(p)
}
