package historical

import "testing"

func TestDetectVersionConstantsFiltersRangeAndGroups(t *testing.T) {
	operands := []ConstOperand{
		{Function: "init", Value: 1, Comparator: ComparatorEq},
		{Function: "migrate", Value: 1, Comparator: ComparatorGe},
		{Function: "migrate", Value: 500, Comparator: ComparatorEq}, // out of range
		{Function: "bump", Value: 2, Comparator: ComparatorLt},
	}
	got := DetectVersionConstants(operands)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Value != 1 || got[0].Occurrences != 2 {
		t.Fatalf("expected value 1 with 2 occurrences first, got %+v", got[0])
	}
	if got[1].Value != 2 || got[1].Occurrences != 1 {
		t.Fatalf("expected value 2 with 1 occurrence second, got %+v", got[1])
	}
}

func TestIsVersionLikeBoundaries(t *testing.T) {
	cases := map[uint64]bool{0: true, 1: true, 100: true, 101: false, 5000: false}
	for v, want := range cases {
		if got := IsVersionLike(v); got != want {
			t.Fatalf("IsVersionLike(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestCalculateFieldOffsetFixedPrefix(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Pool",
		Fields: []StructField{
			{Name: "id", Type: TypeStruct, StructTypeName: "0x2::object::UID"},
			{Name: "version", Type: TypeU64},
			{Name: "name", Type: TypeVector},
		},
	}
	calc := NewOffsetCalculator()
	res := calc.CalculateFieldOffset(layout, "version")
	if !res.IsKnown() || res.Offset != 32 {
		t.Fatalf("expected known offset 32, got %+v", res)
	}
	// second lookup should hit the memoization cache and return the same result
	res2 := calc.CalculateFieldOffset(layout, "version")
	if res2.Offset != res.Offset {
		t.Fatalf("memoized lookup mismatch: %+v vs %+v", res, res2)
	}
}

func TestCalculateFieldOffsetUnknownAfterVariableField(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Config",
		Fields: []StructField{
			{Name: "name", Type: TypeVector},
			{Name: "version", Type: TypeU64},
		},
	}
	calc := NewOffsetCalculator()
	res := calc.CalculateFieldOffset(layout, "version")
	if res.Kind != OffsetUnknown {
		t.Fatalf("expected Unknown, got %+v", res)
	}
}

func TestCalculateFromEndLastField(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Config",
		Fields: []StructField{
			{Name: "name", Type: TypeVector},
			{Name: "version", Type: TypeU64},
		},
	}
	calc := NewOffsetCalculator()
	res := calc.CalculateFromEnd(layout, "version")
	if !res.IsKnown() || res.Offset != 8 {
		t.Fatalf("expected known width 8 from end, got %+v", res)
	}
	res2 := calc.CalculateFromEnd(layout, "name")
	if res2.Kind != OffsetUnknown {
		t.Fatalf("expected Unknown for non-last field, got %+v", res2)
	}
}

func TestExtractAndOverwriteByPositionFromEnd(t *testing.T) {
	blob := make([]byte, 24)
	pos := FieldPosition{FromStart: false, N: 8, Width: 8}
	patched, ok := OverwriteByPosition(blob, pos, 7)
	if !ok {
		t.Fatal("expected overwrite to succeed")
	}
	got, ok := ExtractByPosition(patched, pos)
	if !ok || got != 7 {
		t.Fatalf("expected extracted value 7, got %d ok=%v", got, ok)
	}
}

func TestPatcherStructuredFieldStrategy(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Pool",
		Fields: []StructField{
			{Name: "id", Type: TypeStruct, StructTypeName: "0x2::object::UID"},
			{Name: "version", Type: TypeU64},
		},
	}
	blob := make([]byte, 40)
	p := NewPatcher(FailureWarnAndSkip)
	out, err := p.Patch("0xobj1", "pkg::m::Pool", blob, &layout, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rule != RuleStructuredField {
		t.Fatalf("expected structured field rule, got %v", out.Rule)
	}
	got, _ := ExtractByPosition(out.Bytes, FieldPosition{FromStart: true, N: 32, Width: 8})
	if got != 42 {
		t.Fatalf("expected patched version 42, got %d", got)
	}
}

func TestPatcherStructuredFieldStrategyFallsBackToFromEnd(t *testing.T) {
	// "name" is variable-sized and precedes "version", so
	// CalculateFieldOffset returns Unknown and Patch must fall back to
	// CalculateFromEnd (spec.md §8: a patch target that is the last field
	// of a struct whose penultimate field is variable-sized must still
	// succeed via FromEnd).
	layout := StructLayout{
		TypeName: "pkg::m::Config",
		Fields: []StructField{
			{Name: "name", Type: TypeVector},
			{Name: "version", Type: TypeU64},
		},
	}
	blob := make([]byte, 24)
	p := NewPatcher(FailureWarnAndSkip)
	out, err := p.Patch("0xobjFE", "pkg::m::Config", blob, &layout, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rule != RuleStructuredField {
		t.Fatalf("expected structured field rule, got %v", out.Rule)
	}
	// The version field is the last 8 bytes of the blob, not the first.
	got, ok := ExtractByPosition(out.Bytes, FieldPosition{FromStart: false, N: 8, Width: 8})
	if !ok || got != 55 {
		t.Fatalf("expected patched version 55 at the end of the blob, got %d ok=%v", got, ok)
	}
	// The bytes at the start of the blob (where a buggy FromStart write
	// would have landed) must be untouched.
	if headGot, _ := ExtractByPosition(out.Bytes, FieldPosition{FromStart: true, N: 0, Width: 8}); headGot != 0 {
		t.Fatalf("expected start of blob untouched, got %d", headGot)
	}
}

func TestPatcherWellKnownRawStrategy(t *testing.T) {
	pos, _ := LookupWellKnownLayout("0x2::coin::Coin")
	blob := make([]byte, 24)
	// seed a version-like existing value so the well-known strategy trusts it
	seeded, _ := OverwriteByPosition(blob, pos, 3)

	p := NewPatcher(FailureWarnAndSkip)
	out, err := p.Patch("0xobj2", "0x2::coin::Coin", seeded, nil, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rule != RuleWellKnownRaw {
		t.Fatalf("expected well-known raw rule, got %v", out.Rule)
	}
	got, _ := ExtractByPosition(out.Bytes, pos)
	if got != 9 {
		t.Fatalf("expected patched version 9, got %d", got)
	}
}

func TestPatcherManualOverrideTakesPriority(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Pool",
		Fields:   []StructField{{Name: "version", Type: TypeU64}},
	}
	blob := make([]byte, 8)
	p := NewPatcher(FailureWarnAndSkip)
	p.RegisterManualOverride("0xobj3", ManualOverride{Patches: []BytePatch{{Offset: 0, Bytes: []byte{99}}}})

	out, err := p.Patch("0xobj3", "pkg::m::Pool", blob, &layout, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rule != RuleManualOverride {
		t.Fatalf("expected manual override rule, got %v", out.Rule)
	}
	if out.Bytes[0] != 99 {
		t.Fatalf("expected manual patch byte 99, got %d", out.Bytes[0])
	}
}

func TestPatcherSkipWhenNoRuleMatches(t *testing.T) {
	blob := make([]byte, 8)
	p := NewPatcher(FailureWarnAndSkip)
	out, err := p.Patch("0xobjX", "pkg::unknown::Thing", blob, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Skipped || out.Rule != RuleSkip {
		t.Fatalf("expected skip outcome, got %+v", out)
	}
	if p.Stats().SkippedCount != 1 {
		t.Fatalf("expected 1 skip in stats, got %+v", p.Stats())
	}
}

func TestPatcherFailStrategyReturnsError(t *testing.T) {
	blob := make([]byte, 8)
	p := NewPatcher(FailureFail)
	_, err := p.Patch("0xobjY", "pkg::unknown::Thing", blob, nil, 1)
	if err == nil {
		t.Fatal("expected error under FailureFail strategy")
	}
}

func TestPatchIdempotent(t *testing.T) {
	layout := StructLayout{
		TypeName: "pkg::m::Pool",
		Fields: []StructField{
			{Name: "id", Type: TypeStruct, StructTypeName: "0x2::object::UID"},
			{Name: "version", Type: TypeU64},
		},
	}
	blob := make([]byte, 40)
	p := NewPatcher(FailureWarnAndSkip)
	once, err := p.Patch("0xobj4", "pkg::m::Pool", blob, &layout, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := p.Patch("0xobj4", "pkg::m::Pool", once.Bytes, &layout, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(once.Bytes) != string(twice.Bytes) {
		t.Fatalf("patch(patch(obj)) != patch(obj): %v vs %v", once.Bytes, twice.Bytes)
	}
}
