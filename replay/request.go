// Package replay implements the top-level orchestration spec.md §6
// describes as the core's external interface: a ReplayRequest goes in,
// hydration/resolution/patching/prefetch/execution/comparison run in
// sequence, and a ReplayReport comes out.
package replay

import "suireplay/hydration"

// FetchStrategy controls how eagerly the dynamic field engine populates
// children before execution (spec.md §4.4).
type FetchStrategy int

const (
	FetchFull FetchStrategy = iota
	FetchMinimal
	FetchPrefetchOnly
)

// PrefetchOptions mirrors spec.md §6's ReplayRequest.prefetch block.
type PrefetchOptions struct {
	Depth         uint8
	PerParentLimit uint32
	Enabled       bool
}

// Request is the input to Replay, matching spec.md §6's ReplayRequest
// data shape field-for-field.
type Request struct {
	Digest                      string
	SourcePolicy                hydration.SourcePolicy
	FetchStrategy               FetchStrategy
	AllowFallback               bool
	Prefetch                    PrefetchOptions
	AutoSystemObjects           bool
	SelfHealDynamicFields       bool
	SynthesizeMissingInputs     bool
	ReconcileDynamicFieldEffects bool
	CompareEffects              bool
	GRPCTimeoutMs               uint32
	CacheDir                    string
}

// DefaultRequest returns a Request with spec.md's documented defaults:
// Hybrid source policy, Full fetch strategy, fallback and self-heal
// enabled, a 30s upstream deadline (spec.md §5 "Cancellation &
// timeouts").
func DefaultRequest(digest string) Request {
	return Request{
		Digest:                digest,
		SourcePolicy:          hydration.PolicyHybrid,
		FetchStrategy:         FetchFull,
		AllowFallback:         true,
		Prefetch:              PrefetchOptions{Depth: 2, PerParentLimit: 200, Enabled: true},
		AutoSystemObjects:     true,
		SelfHealDynamicFields: true,
		CompareEffects:        true,
		GRPCTimeoutMs:         30_000,
	}
}
