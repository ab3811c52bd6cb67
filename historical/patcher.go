package historical

import (
	"fmt"

	"suireplay/replayerr"
)

// FailureStrategy controls what happens when every patch rule declines an
// object (spec.md §4.3's "Patching strategy" closing note, §7 error
// handling).
type FailureStrategy int

const (
	// FailureWarnAndSkip logs (the caller's responsibility, via the
	// returned PatchOutcome.Skipped flag) and passes the object through
	// unmodified. This is the default.
	FailureWarnAndSkip FailureStrategy = iota
	// FailureSkip silently passes the object through unmodified.
	FailureSkip
	// FailureFail returns a *replayerr.PatchError instead of an outcome.
	FailureFail
)

// ManualOverride is a caller-supplied unconditional byte patch for one
// object, keyed by object ID (spec.md §4.3 strategy 1: "manual override").
type ManualOverride struct {
	Patches []BytePatch
}

// BytePatch overwrites len(Bytes) bytes starting at Offset.
type BytePatch struct {
	Offset int
	Bytes  []byte
}

// PatchRule identifies which of the four ordered strategies resolved (or
// failed to resolve) one object.
type PatchRule int

const (
	RuleManualOverride PatchRule = iota
	RuleStructuredField
	RuleWellKnownRaw
	RuleSkip
)

func (r PatchRule) String() string {
	switch r {
	case RuleManualOverride:
		return "manual_override"
	case RuleStructuredField:
		return "structured_field"
	case RuleWellKnownRaw:
		return "well_known_raw"
	default:
		return "skip"
	}
}

// PatchOutcome is the result of running the pipeline over one object.
type PatchOutcome struct {
	Bytes   []byte
	Rule    PatchRule
	Skipped bool
}

// PatchStats accumulates per-rule hit counts across a batch of objects,
// mirroring the Rust original's patch_stats structure.
type PatchStats struct {
	ManualOverrideHits  int
	StructuredFieldHits int
	WellKnownRawHits    int
	SkippedCount        int
}

// Patcher applies the ordered four-strategy patching pipeline to
// BCS-encoded objects whose layout predates the currently loaded bytecode
// (spec.md §4.3).
type Patcher struct {
	Offsets  *OffsetCalculator
	Strategy FailureStrategy

	manual map[string]ManualOverride
	stats  PatchStats
}

func NewPatcher(strategy FailureStrategy) *Patcher {
	return &Patcher{
		Offsets:  NewOffsetCalculator(),
		Strategy: strategy,
		manual:   make(map[string]ManualOverride),
	}
}

// RegisterManualOverride installs an unconditional patch for objectID,
// consulted first by Patch (strategy 1).
func (p *Patcher) RegisterManualOverride(objectID string, ov ManualOverride) {
	p.manual[objectID] = ov
}

// Stats returns a snapshot of the accumulated per-rule hit counts.
func (p *Patcher) Stats() PatchStats { return p.stats }

// Patch runs the ordered pipeline against blob, using layout (if known)
// for the structured-field strategy and typeTag for the well-known-raw
// strategy and version validation. targetVersion is the version value the
// patch should write once a target field is located.
//
// The pipeline is idempotent: patching an already-patched object with the
// same targetVersion reproduces the same bytes, since every strategy
// either overwrites a located field with targetVersion or leaves the blob
// untouched.
func (p *Patcher) Patch(objectID, typeTag string, blob []byte, layout *StructLayout, targetVersion uint64) (PatchOutcome, error) {
	if ov, ok := p.manual[objectID]; ok {
		out := append([]byte(nil), blob...)
		for _, bp := range ov.Patches {
			if bp.Offset < 0 || bp.Offset+len(bp.Bytes) > len(out) {
				continue
			}
			copy(out[bp.Offset:], bp.Bytes)
		}
		p.stats.ManualOverrideHits++
		return PatchOutcome{Bytes: out, Rule: RuleManualOverride}, nil
	}

	if layout != nil {
		if field, ok := FindVersionField(*layout); ok {
			res := p.Offsets.CalculateFieldOffset(*layout, field)
			fromEnd := false
			if !res.IsKnown() {
				res = p.Offsets.CalculateFromEnd(*layout, field)
				fromEnd = true
			}
			if res.IsKnown() {
				fieldWidth := 8
				for _, f := range layout.Fields {
					if f.Name == field {
						if w, ok := FixedSizeOf(f); ok {
							fieldWidth = w
						}
						break
					}
				}
				// CalculateFromEnd's Offset is the field's own width
				// measured back from the end of the blob, not a
				// from-start byte position (historical/offset.go).
				var pos FieldPosition
				if fromEnd {
					pos = FieldPosition{FromStart: false, N: fieldWidth, Width: fieldWidth}
				} else {
					pos = FieldPosition{FromStart: true, N: res.Offset, Width: fieldWidth}
				}
				if out, ok := OverwriteByPosition(blob, pos, targetVersion); ok {
					p.stats.StructuredFieldHits++
					return PatchOutcome{Bytes: out, Rule: RuleStructuredField}, nil
				}
			}
		}
	}

	if pos, ok := LookupWellKnownLayout(typeTag); ok {
		if existing, ok := ExtractByPosition(blob, pos); ok && IsVersionLike(existing) {
			if out, ok := OverwriteByPosition(blob, pos, targetVersion); ok {
				p.stats.WellKnownRawHits++
				return PatchOutcome{Bytes: out, Rule: RuleWellKnownRaw}, nil
			}
		}
	}

	p.stats.SkippedCount++
	switch p.Strategy {
	case FailureFail:
		return PatchOutcome{}, &replayerr.PatchError{
			Ctx:    replayerr.Context{Component: "historical", Operation: "patch"},
			Object: objectID,
			Reason: fmt.Sprintf("no patch rule matched for type %s", typeTag),
		}
	default:
		return PatchOutcome{Bytes: append([]byte(nil), blob...), Rule: RuleSkip, Skipped: true}, nil
	}
}
