// Package identity virtualizes the environment identity triple.
//
// The guest application was built for one host environment and must keep
// observing it; the surrounding runtime depends on truthful values and must
// keep observing the real one. Every accessor classifies its caller through
// package origin and answers accordingly.
package identity

import (
	"fmt"
	"runtime"

	"github.com/portside/crosshost/origin"
)

// Descriptor is the environment identity triple a caller observes.
type Descriptor struct {
	Platform  string
	Arch      string
	OSVersion string
}

// Equal reports whether two descriptors are identical.
func (d Descriptor) Equal(o Descriptor) bool {
	return d == o
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s %s", d.Platform, d.Arch, d.OSVersion)
}

// Context holds the real and virtual identity for the process lifetime.
// The real triple is captured once at construction and is immutable; the
// virtual triple is a fixed constant. Context is constructed once at process
// start and passed to every component that needs identity-aware behavior.
type Context struct {
	real       Descriptor
	virtual    Descriptor
	classifier *origin.Classifier
	provider   origin.Provider
}

// New captures the real host identity and binds the virtual one.
// The nil provider defaults to live stack capture that skips the accessor
// machinery, so the accessor itself never counts as trusted provenance.
func New(virtual Descriptor, cl *origin.Classifier, prov origin.Provider) *Context {
	real := Descriptor{
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		OSVersion: hostOSVersion(),
	}
	return NewWithReal(real, virtual, cl, prov)
}

// NewWithReal is New with an explicit real triple. Tests use it to pin the
// captured identity; production code should call New.
func NewWithReal(real, virtual Descriptor, cl *origin.Classifier, prov origin.Provider) *Context {
	if cl == nil {
		cl = origin.NewClassifier()
	}
	if prov == nil {
		// Skip classify and the accessor frame; the verdict starts at the
		// accessor's caller.
		prov = origin.NewRuntimeProvider(2)
	}
	return &Context{
		real:       real,
		virtual:    virtual,
		classifier: cl,
		provider:   prov,
	}
}

// Platform returns the platform family the caller is allowed to observe.
func (c *Context) Platform() string {
	if c.classify() == origin.Trusted {
		return c.real.Platform
	}
	return c.virtual.Platform
}

// Arch returns the CPU architecture the caller is allowed to observe.
func (c *Context) Arch() string {
	if c.classify() == origin.Trusted {
		return c.real.Arch
	}
	return c.virtual.Arch
}

// OSVersion returns the OS version string the caller is allowed to observe.
func (c *Context) OSVersion() string {
	if c.classify() == origin.Trusted {
		return c.real.OSVersion
	}
	return c.virtual.OSVersion
}

// Real returns the captured host triple without classification. Interception
// code uses it to decide when construction arguments need rewriting.
func (c *Context) Real() Descriptor {
	return c.real
}

// Virtual returns the triple presented to the guest.
func (c *Context) Virtual() Descriptor {
	return c.virtual
}

// Spoofing reports whether the real and virtual identities differ.
func (c *Context) Spoofing() bool {
	return !c.real.Equal(c.virtual)
}

// classify snaps the current stack and classifies it. A fresh snapshot is
// taken on every access; accessors never fail, a capture failure classifies
// as guest per the origin package contract.
func (c *Context) classify() origin.Class {
	return c.classifier.Classify(c.provider.Snapshot())
}
