// Package origin classifies the provenance of a call site.
//
// The identity accessors in package identity serve two audiences from the
// same call sites: host-runtime internals must observe the real environment,
// while the guest application must observe the virtualized one. The split is
// decided per access by inspecting a snapshot of the current call stack and
// checking each frame against an allow-list of trusted provenance markers.
//
// Stack capture is an injectable port (Provider) so tests can substitute
// canned snapshots for real captures.
package origin
