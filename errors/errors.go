package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBoot     Phase = "boot"     // layer installation and ordering
	PhaseClassify Phase = "classify" // caller-origin classification
	PhaseIdentity Phase = "identity" // identity virtualization
	PhaseResolve  Phase = "resolve"  // component resolution
	PhaseDispatch Phase = "dispatch" // handler registration and invocation
	PhaseWindow   Phase = "window"   // window construction interception
	PhaseFS       Phase = "fs"       // filesystem operations
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseGuest    Phase = "guest"    // faults escaping the guest application
)

// Kind categorizes the error
type Kind string

const (
	KindSubstituteMissing Kind = "substitute_missing"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupported       Kind = "unsupported"
	KindRegistration      Kind = "registration"
	KindHandlerFailed     Kind = "handler_failed"
	KindCrossDevice       Kind = "cross_device"
	KindInvalidConfig     Kind = "invalid_config"
	KindVersionGate       Kind = "version_gate"
	KindGuestFault        Kind = "guest_fault"
	KindNotInitialized    Kind = "not_initialized"
)

// Error is the structured error type used throughout the layer
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Component string
	Channel   string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Component != "" {
		b.WriteString(" component ")
		b.WriteString(e.Component)
	}
	if e.Channel != "" {
		b.WriteString(" channel ")
		b.WriteString(e.Channel)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Component sets the component identifier involved
func (b *Builder) Component(id string) *Builder {
	b.err.Component = id
	return b
}

// Channel sets the dispatch channel involved
func (b *Builder) Channel(name string) *Builder {
	b.err.Channel = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SubstituteMissing creates a fatal missing-substitute-source error
func SubstituteMissing(component, sourcePath string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindSubstituteMissing,
		Component: component,
		Detail:    fmt.Sprintf("substitute source %q does not exist", sourcePath),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, component string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindNotFound,
		Component: component,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Registration creates a handler registration error
func Registration(channel, detail string) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindRegistration,
		Channel: channel,
		Detail:  detail,
	}
}

// HandlerFailed creates a dispatch handler failure error
func HandlerFailed(channel string, cause error) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindHandlerFailed,
		Channel: channel,
		Cause:   cause,
	}
}

// CrossDevice creates a cross-device link error
func CrossDevice(src, dst string) *Error {
	return &Error{
		Phase:  PhaseFS,
		Kind:   KindCrossDevice,
		Detail: fmt.Sprintf("rename %s -> %s crosses filesystems", src, dst),
	}
}

// InvalidConfig creates a configuration error
func InvalidConfig(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Detail: detail,
		Cause:  cause,
	}
}

// VersionGate creates a guest version gate error
func VersionGate(have, want string) *Error {
	return &Error{
		Phase:  PhaseBoot,
		Kind:   KindVersionGate,
		Detail: fmt.Sprintf("guest version %s below minimum supported %s", have, want),
	}
}

// GuestFault wraps an error that escaped the guest application
func GuestFault(cause error) *Error {
	return &Error{
		Phase: PhaseGuest,
		Kind:  KindGuestFault,
		Cause: cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
