package identity

import (
	"testing"

	"github.com/portside/crosshost/origin"
)

var (
	realID = Descriptor{Platform: "linux", Arch: "amd64", OSVersion: "6.8.0"}
	virtID = Descriptor{Platform: "darwin", Arch: "arm64", OSVersion: "23.5.0"}
)

var (
	guestFrames   = origin.StaticProvider{{Function: "index.boot", File: "/opt/guest/index.js"}}
	trustedFrames = origin.StaticProvider{{Function: "github.com/portside/crosshost/dispatch.invoke", File: "/src/dispatch/interceptor.go"}}
)

func TestAccessors_GuestSeesVirtualTriple(t *testing.T) {
	ctx := NewWithReal(realID, virtID, origin.NewClassifier(), guestFrames)

	if got := ctx.Platform(); got != "darwin" {
		t.Errorf("Platform() = %q, want darwin", got)
	}
	if got := ctx.Arch(); got != "arm64" {
		t.Errorf("Arch() = %q, want arm64", got)
	}
	if got := ctx.OSVersion(); got != "23.5.0" {
		t.Errorf("OSVersion() = %q, want 23.5.0", got)
	}
}

func TestAccessors_TrustedSeesRealTriple(t *testing.T) {
	ctx := NewWithReal(realID, virtID, origin.NewClassifier(), trustedFrames)

	if got := ctx.Platform(); got != "linux" {
		t.Errorf("Platform() = %q, want linux", got)
	}
	if got := ctx.Arch(); got != "amd64" {
		t.Errorf("Arch() = %q, want amd64", got)
	}
	if got := ctx.OSVersion(); got != "6.8.0" {
		t.Errorf("OSVersion() = %q, want 6.8.0", got)
	}
}

func TestAccessors_StableWithinProcess(t *testing.T) {
	ctx := NewWithReal(realID, virtID, origin.NewClassifier(), guestFrames)

	first := [3]string{ctx.Platform(), ctx.Arch(), ctx.OSVersion()}
	for i := 0; i < 100; i++ {
		got := [3]string{ctx.Platform(), ctx.Arch(), ctx.OSVersion()}
		if got != first {
			t.Fatalf("accessor results changed across calls: %v then %v", first, got)
		}
	}
}

func TestAccessors_EmptySnapshotVirtualizes(t *testing.T) {
	ctx := NewWithReal(realID, virtID, origin.NewClassifier(), origin.StaticProvider(nil))

	if got := ctx.Platform(); got != virtID.Platform {
		t.Errorf("empty snapshot must classify guest: Platform() = %q", got)
	}
}

func TestRealAndVirtual_NotClassified(t *testing.T) {
	// Even a guest-classified provider must not affect the explicit reads.
	ctx := NewWithReal(realID, virtID, origin.NewClassifier(), guestFrames)

	if ctx.Real() != realID {
		t.Errorf("Real() = %v, want %v", ctx.Real(), realID)
	}
	if ctx.Virtual() != virtID {
		t.Errorf("Virtual() = %v, want %v", ctx.Virtual(), virtID)
	}
}

func TestSpoofing(t *testing.T) {
	if !NewWithReal(realID, virtID, nil, guestFrames).Spoofing() {
		t.Error("differing triples: Spoofing() = false")
	}
	if NewWithReal(realID, realID, nil, guestFrames).Spoofing() {
		t.Error("identical triples: Spoofing() = true")
	}
}

func TestNew_CapturesRealHost(t *testing.T) {
	ctx := New(virtID, nil, guestFrames)
	real := ctx.Real()
	if real.Platform == "" || real.Arch == "" || real.OSVersion == "" {
		t.Errorf("New must capture a complete real triple, got %+v", real)
	}
}

func TestLiveCapture_InterpositionIsTrusted(t *testing.T) {
	// With a live provider this call originates inside the crosshost module,
	// whose packages sit on the trusted allow-list via their own marker.
	cl := origin.NewClassifier("crosshost/identity.")
	ctx := NewWithReal(realID, virtID, cl, nil)
	if got := ctx.Platform(); got != realID.Platform {
		t.Errorf("call from marker-listed test package: Platform() = %q, want real %q", got, realID.Platform)
	}
}

func TestDescriptor_String(t *testing.T) {
	got := virtID.String()
	want := "darwin/arm64 23.5.0"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
