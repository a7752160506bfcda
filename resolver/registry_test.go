package resolver

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/portside/crosshost/errors"
)

type loadedComponent struct {
	id string
}

// recordingResolver plays the original resolution entry point.
type recordingResolver struct {
	loads    []string
	internal []bool
	initRuns int
	fail     map[string]error
}

func (r *recordingResolver) Resolve(_ context.Context, id string, req Request) (Component, error) {
	r.loads = append(r.loads, id)
	r.internal = append(r.internal, req.Internal)
	if err, ok := r.fail[id]; ok {
		return nil, err
	}
	r.initRuns++
	return &loadedComponent{id: id}, nil
}

func TestRegistry_NoMatchDelegates(t *testing.T) {
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon", Action: ActionSubstitute, Substitute: "swift-shim"},
	}, "")

	c, err := reg.Resolve(context.Background(), "nativeWidget.bin", Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := c.(*loadedComponent).id; got != "nativeWidget.bin" {
		t.Errorf("delegated load = %q, want nativeWidget.bin", got)
	}
	if len(base.loads) != 1 || base.loads[0] != "nativeWidget.bin" {
		t.Errorf("base loads = %v", base.loads)
	}
	if base.internal[0] {
		t.Error("delegated load must not be marked internal")
	}
}

func TestRegistry_SubstituteMemoized(t *testing.T) {
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon.node", Action: ActionSubstitute, Substitute: "swift-shim"},
	}, "")

	first, err := reg.Resolve(context.Background(), "swift_addon.node", Request{})
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := reg.Resolve(context.Background(), "swift_addon.node", Request{})
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if first.(*loadedComponent) != second.(*loadedComponent) {
		t.Error("second resolve must return the identical cached instance")
	}
	if base.initRuns != 1 {
		t.Errorf("substitute initialization ran %d times, want 1", base.initRuns)
	}

	// The substitute load went through the original path, flagged internal.
	if len(base.loads) != 1 || base.loads[0] != "swift-shim" {
		t.Errorf("base loads = %v, want [swift-shim]", base.loads)
	}
	if !base.internal[0] {
		t.Error("substitute load must be marked internal")
	}
}

func TestRegistry_InternalRequestsBypassTables(t *testing.T) {
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift", Action: ActionStub},
	}, "")

	c, err := reg.Resolve(context.Background(), "swift-shim", Request{Internal: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, isStub := c.(*Stub); isStub {
		t.Error("internal load must bypass the stub entry")
	}
}

func TestRegistry_StubReturnsSharedInert(t *testing.T) {
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: ".node", Action: ActionStub},
	}, "")

	a, err := reg.Resolve(context.Background(), "keytar.node", Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := reg.Resolve(context.Background(), "sqlite3.node", Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	sa, ok := a.(*Stub)
	if !ok {
		t.Fatalf("stubbed load returned %T", a)
	}
	if sb := b.(*Stub); sa != sb {
		t.Error("stubbed loads must share the process-wide inert instance")
	}
	if len(base.loads) != 0 {
		t.Errorf("stubbed loads must not reach the original path, got %v", base.loads)
	}
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon", Action: ActionSubstitute, Substitute: "swift-shim"},
		{Pattern: ".node", Action: ActionStub},
	}, "")

	c, err := reg.Resolve(context.Background(), "swift_addon.node", Request{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, isStub := c.(*Stub); isStub {
		t.Error("earlier substitute entry must win over later stub entry")
	}
}

func TestRegistry_MissingSubstituteSourceIsFatal(t *testing.T) {
	dir := t.TempDir()
	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon", Action: ActionSubstitute, Substitute: "swift-shim"},
	}, dir)

	_, err := reg.Resolve(context.Background(), "swift_addon.node", Request{})
	if err == nil {
		t.Fatal("missing substitute source must be a fatal error, not fallthrough")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindSubstituteMissing}) {
		t.Errorf("error = %v, want [resolve] substitute_missing", err)
	}
	if len(base.loads) != 0 {
		t.Errorf("fatal path must not fall through to the original resolver, got %v", base.loads)
	}
}

func TestRegistry_SubstituteSourceProbeVariants(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "swift-shim.yaml"), []byte("name: swift-shim\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := &recordingResolver{}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon", Action: ActionSubstitute, Substitute: "swift-shim"},
	}, dir)

	if _, err := reg.Resolve(context.Background(), "swift_addon.node", Request{}); err != nil {
		t.Fatalf("extension variant should satisfy the source probe: %v", err)
	}
}

func TestRegistry_SubstituteLoadFailureWrapped(t *testing.T) {
	base := &recordingResolver{fail: map[string]error{
		"swift-shim": errors.NotFound(errors.PhaseResolve, "swift-shim"),
	}}
	reg := NewRegistry(base, []Entry{
		{Pattern: "swift_addon", Action: ActionSubstitute, Substitute: "swift-shim"},
	}, "")

	_, err := reg.Resolve(context.Background(), "swift_addon.node", Request{})
	if err == nil {
		t.Fatal("substitute load failure must surface")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindSubstituteMissing}) {
		t.Errorf("error = %v, want substitute_missing kind", err)
	}
}

func TestRegistry_Entries(t *testing.T) {
	entries := []Entry{{Pattern: "a", Action: ActionStub}}
	reg := NewRegistry(&recordingResolver{}, entries, "")

	got := reg.Entries()
	if len(got) != 1 || got[0].Pattern != "a" {
		t.Errorf("Entries() = %v", got)
	}
	got[0].Pattern = "mutated"
	if reg.Entries()[0].Pattern != "a" {
		t.Error("Entries() must return a copy")
	}
}

func TestFunc_Adapts(t *testing.T) {
	var gotID string
	f := Func(func(_ context.Context, id string, _ Request) (Component, error) {
		gotID = id
		return nil, nil
	})
	if _, err := f.Resolve(context.Background(), "x", Request{}); err != nil {
		t.Fatal(err)
	}
	if gotID != "x" {
		t.Errorf("Func adapter did not forward id, got %q", gotID)
	}
}
