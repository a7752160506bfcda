package origin

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cl := NewClassifier()

	tests := []struct {
		name   string
		frames []Frame
		want   Class
	}{
		{
			name: "trusted marker in function",
			frames: []Frame{
				{Function: "main.main", File: "/app/main.go"},
				{Function: "github.com/portside/crosshost/dispatch.(*Interceptor).register", File: "/src/dispatch/interceptor.go"},
			},
			want: Trusted,
		},
		{
			name: "trusted marker in file only",
			frames: []Frame{
				{Function: "anonymous", File: "/build/crosshost/resolver.registry.go"},
			},
			want: Trusted,
		},
		{
			name: "guest frames only",
			frames: []Frame{
				{Function: "index.renderFeatureBar", File: "/opt/guest/.vite/build/index.js"},
				{Function: "index.boot", File: "/opt/guest/.vite/build/index.js"},
			},
			want: Guest,
		},
		{
			name:   "empty snapshot fails toward virtualization",
			frames: []Frame{},
			want:   Guest,
		},
		{
			name:   "nil snapshot fails toward virtualization",
			frames: nil,
			want:   Guest,
		},
		{
			name: "emulated guest is not trusted",
			frames: []Frame{
				{Function: "github.com/portside/crosshost/emul/guest.Run", File: "/src/emul/guest/guest.go"},
			},
			want: Guest,
		},
		{
			name: "emulated host runtime is trusted",
			frames: []Frame{
				{Function: "github.com/portside/crosshost/emul.(*Host).CreateSurface", File: "/src/emul/host.go"},
			},
			want: Trusted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cl.Classify(tt.frames); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	cl := NewClassifier("trusted-marker")

	frames := []Frame{
		{Function: "guest.fn", File: "/guest/a.js"},
		{Function: "trusted-marker.fn", File: "/rt/b.go"},
		{Function: "guest.other", File: "/guest/c.js"},
	}
	if got := cl.Classify(frames); got != Trusted {
		t.Errorf("Classify() = %v, want Trusted", got)
	}
}

func TestClassify_CustomMarkers(t *testing.T) {
	cl := NewClassifier("electron/js2c", "node:internal")

	guest := []Frame{{Function: "renderer.tick", File: "/app/renderer.js"}}
	if got := cl.Classify(guest); got != Guest {
		t.Errorf("custom markers: guest frames classified %v", got)
	}

	trusted := []Frame{{Function: "f", File: "electron/js2c/browser_init"}}
	if got := cl.Classify(trusted); got != Trusted {
		t.Errorf("custom markers: trusted frames classified %v", got)
	}
}

func TestClassifier_Markers(t *testing.T) {
	cl := NewClassifier("a", "b")
	got := cl.Markers()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Markers() = %v", got)
	}

	// Returned slice is a copy.
	got[0] = "mutated"
	if cl.Markers()[0] != "a" {
		t.Error("Markers() must return a copy")
	}
}

func TestRuntimeProvider_Snapshot(t *testing.T) {
	p := NewRuntimeProvider(0)
	frames := p.Snapshot()
	if len(frames) == 0 {
		t.Fatal("expected non-empty snapshot")
	}

	// This test function must appear; the capture machinery must not.
	var sawSelf bool
	for _, f := range frames {
		if strings.Contains(f.Function, "TestRuntimeProvider_Snapshot") {
			sawSelf = true
		}
		if strings.Contains(f.Function, "(*RuntimeProvider).Snapshot") {
			t.Errorf("snapshot contains capture frame %q", f.Function)
		}
	}
	if !sawSelf {
		t.Errorf("snapshot missing caller frame: %+v", frames)
	}
}

func TestRuntimeProvider_Skip(t *testing.T) {
	direct := NewRuntimeProvider(0).Snapshot()
	skipped := NewRuntimeProvider(1).Snapshot()
	if len(skipped) >= len(direct) {
		t.Errorf("skip=1 snapshot (%d frames) not shorter than skip=0 (%d frames)", len(skipped), len(direct))
	}
}

func TestStaticProvider(t *testing.T) {
	canned := StaticProvider{{Function: "x", File: "y"}}
	a := canned.Snapshot()
	b := canned.Snapshot()
	if len(a) != 1 || len(b) != 1 || a[0] != b[0] {
		t.Errorf("StaticProvider should return the canned frames every call")
	}
}
