// Package replayerr defines the typed error hierarchy every component
// boundary in the replay core uses, per spec.md §7. Every error carries
// the structured context (digest, component, operation) the spec
// requires, and distinguishes retryable transport failures from logical
// ones through the Retryable method rather than string matching.
package replayerr

import "fmt"

// Context is the structured metadata attached to every error that
// crosses a suspension point.
type Context struct {
	Digest    string
	Component string
	Operation string
}

func (c Context) String() string {
	return fmt.Sprintf("digest=%s component=%s operation=%s", c.Digest, c.Component, c.Operation)
}

// Retryable is implemented by errors the hydration retry loop is allowed
// to retry. Logical errors (NotFound, version mismatch) must not
// implement it, or must return false.
type Retryable interface {
	Retryable() bool
}

// TransportError wraps a transient transport failure (timeout, 5xx). The
// hydration layer makes up to 3 attempts in total, with exponential
// backoff; once they are exhausted it is surfaced as-is.
type TransportError struct {
	Ctx   Context
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Ctx, e.Cause)
}
func (e *TransportError) Unwrap() error  { return e.Cause }
func (e *TransportError) Retryable() bool { return true }

// NotFoundError is returned when a source cannot locate the requested
// transaction, object, package or checkpoint. Digest holds the key that
// was looked up (a transaction digest, an object id, a package address,
// or "checkpoint:N").
type NotFoundError struct {
	Ctx    Context
	Digest string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found (%s): %s", e.Ctx, e.Digest)
}
func (e *NotFoundError) Retryable() bool { return false }

// HydrationIncompleteError is returned when an input object cannot be
// fetched at its required version and fallback is disallowed.
type HydrationIncompleteError struct {
	Ctx     Context
	ID      string
	Version uint64
}

func (e *HydrationIncompleteError) Error() string {
	return fmt.Sprintf("hydration incomplete (%s): object %s@%d unavailable", e.Ctx, e.ID, e.Version)
}
func (e *HydrationIncompleteError) Retryable() bool { return false }

// MissingDependencyError describes a package that the dependency closure
// could not fetch from any source. The hydration closure does not return
// it: it records such an address with Resolver.MarkMissing and carries on.
type MissingDependencyError struct {
	Ctx     Context
	Address string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("missing dependency (%s): %s", e.Ctx, e.Address)
}
func (e *MissingDependencyError) Retryable() bool { return false }

// InvalidLinkageError describes a linkage cycle (A upgrades to B, B
// upgrades to A) such as Resolver.DetectLinkageCycle reports. The
// hydration closure does not check for cycles and does not return it.
type InvalidLinkageError struct {
	Ctx   Context
	Cycle []string
}

func (e *InvalidLinkageError) Error() string {
	return fmt.Sprintf("invalid linkage (%s): cycle %v", e.Ctx, e.Cycle)
}
func (e *InvalidLinkageError) Retryable() bool { return false }

// PatchError is returned when the historical reconstruction pipeline is
// configured with FailureStrategy=Fail and no rule applies to an object.
type PatchError struct {
	Ctx    Context
	Object string
	Reason string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch failed (%s): object %s: %s", e.Ctx, e.Object, e.Reason)
}
func (e *PatchError) Retryable() bool { return false }

// ChildNotFoundError is returned by the on-demand child fetcher when
// every strategy (prefetch cache, key cache, derivation, upstream
// fallback) misses and self-healing is not configured.
type ChildNotFoundError struct {
	Ctx      Context
	Parent   string
	KeyType  string
}

func (e *ChildNotFoundError) Error() string {
	return fmt.Sprintf("child not found (%s): parent %s key type %s", e.Ctx, e.Parent, e.KeyType)
}
func (e *ChildNotFoundError) Retryable() bool { return false }

// TimeoutError describes an upstream fetch whose deadline elapsed, with
// no partial result attached. No package in this module returns it: an
// elapsed deadline surfaces as the context's own error.
type TimeoutError struct {
	Ctx Context
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout (%s)", e.Ctx) }
func (e *TimeoutError) Retryable() bool { return true }

// InternalError records a VM invariant violation or other implementation
// bug; it always surfaces, never retried.
type InternalError struct {
	Ctx   Context
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error (%s): %v", e.Ctx, e.Cause)
}
func (e *InternalError) Unwrap() error  { return e.Cause }
func (e *InternalError) Retryable() bool { return false }

// IsRetryable reports whether err should be retried by the hydration
// transport loop: true only if err implements Retryable and returns true.
func IsRetryable(err error) bool {
	r, ok := err.(Retryable)
	return ok && r.Retryable()
}
