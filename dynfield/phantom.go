package dynfield

import "strings"

// phantomSuffixes are struct-name suffixes spec.md §4.4 names as
// heuristic signals that a key type is phantom (zero-field).
var phantomSuffixes = []string{"Key", "Marker", "Witness", "Cap"}

// PhantomSynthesizer recognizes phantom (zero-field) key types and
// derives their empty BCS encoding, grounded on original_source's
// KeyValueSynthesizer.
type PhantomSynthesizer struct {
	patterns map[string]bool
	// zeroFieldStructs lets a caller register a struct's field count
	// directly, for case (b) of spec.md §4.4's phantom-key detection:
	// "its struct definition declares zero fields" - something a bare
	// type-string heuristic cannot determine on its own.
	zeroFieldStructs map[string]bool
}

// NewPhantomSynthesizer seeds the synthesizer with the patterns the
// original implementation ships by default.
func NewPhantomSynthesizer() *PhantomSynthesizer {
	s := &PhantomSynthesizer{
		patterns:         make(map[string]bool),
		zeroFieldStructs: make(map[string]bool),
	}
	s.RegisterPattern("balance_manager::BalanceKey")
	return s
}

// RegisterPattern adds a "module::StructName" substring pattern; any key
// type string containing it is treated as phantom.
func (s *PhantomSynthesizer) RegisterPattern(pattern string) {
	s.patterns[pattern] = true
}

// RegisterZeroFieldStruct records that structTag (fully qualified, no
// generics) is known to have zero fields, satisfying case (b) of the
// phantom-key detection rule directly rather than through the suffix
// heuristic.
func (s *PhantomSynthesizer) RegisterZeroFieldStruct(structTag string) {
	s.zeroFieldStructs[structTag] = true
}

// IsPhantomKey reports whether keyType should be treated as a phantom
// (empty-BCS) key, per spec.md §4.4's two detection cases.
func (s *PhantomSynthesizer) IsPhantomKey(keyType string) bool {
	for pattern := range s.patterns {
		if strings.Contains(keyType, pattern) {
			return true
		}
	}
	base := keyType
	if idx := strings.Index(base, "<"); idx >= 0 {
		base = base[:idx]
	}
	if s.zeroFieldStructs[base] {
		return true
	}
	return looksLikePhantomKey(keyType)
}

func looksLikePhantomKey(keyType string) bool {
	if !strings.Contains(keyType, "::") {
		return false
	}
	withoutGenerics := keyType
	if idx := strings.Index(withoutGenerics, "<"); idx >= 0 {
		withoutGenerics = withoutGenerics[:idx]
	}
	parts := strings.Split(withoutGenerics, "::")
	structName := parts[len(parts)-1]
	for _, suffix := range phantomSuffixes {
		if strings.HasSuffix(structName, suffix) {
			return true
		}
	}
	return false
}

// DeriveForPhantom derives the child id for a phantom key type under
// parent, returning ok=false if keyType is not recognized as phantom or
// fails to parse.
func (s *PhantomSynthesizer) DeriveForPhantom(parent [32]byte, keyType string) (derived [32]byte, ok bool) {
	if !s.IsPhantomKey(keyType) {
		return derived, false
	}
	tt, err := ParseTypeTag(keyType)
	if err != nil {
		return derived, false
	}
	id := DeriveChildID(parent, tt, nil)
	return [32]byte(id), true
}
