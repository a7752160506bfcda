// Package errors provides structured error types for the crosshost layer.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the component identifier
// or dispatch channel involved, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindSubstituteMissing).
//		Component("swift_addon.node").
//		Detail("substitute source %q not found", path).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SubstituteMissing("swift_addon.node", path)
//	err := errors.NotFound(errors.PhaseResolve, id)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
