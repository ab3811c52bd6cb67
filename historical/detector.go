package historical

// Comparator identifies which comparison opcode a version-like constant
// was found as an operand to. Recording this (rather than just the bare
// constant) lets the patcher rank candidates when a package has more than
// one plausible version constant (SPEC_FULL.md §4, supplemented detail).
type Comparator int

const (
	ComparatorEq Comparator = iota
	ComparatorLt
	ComparatorLe
	ComparatorGe
	ComparatorGt
)

// VersionCandidate is one U64 constant in [1,100] found as an operand to
// a comparison, with the function and comparator of its first occurrence
// and the number of operands that carried it.
type VersionCandidate struct {
	Value      uint64
	Function   string
	Comparator Comparator
	Occurrences int
}

// minVersionLike and maxVersionLike bound the "version-like" range
// spec.md §4.3 and §8 both reference: the well-known raw-patch strategy
// verifies an extracted value falls in it before trusting it, and
// detection scans for constants in the same range with 0 excluded.
const (
	minVersionLike = 0
	maxVersionLike = 100
)

// IsVersionLike reports whether v falls within the range the well-known
// raw patch strategy accepts as plausibly a version number.
func IsVersionLike(v uint64) bool {
	return v >= minVersionLike && v <= maxVersionLike
}

// ConstOperand is one bytecode constant load the caller observed,
// immediately followed (in the same basic block) by a comparison
// opcode — the shape BytecodeConstantScanner looks for.
type ConstOperand struct {
	Function   string
	Value      uint64
	Comparator Comparator
}

// DetectVersionConstants scans a package's already-disassembled constant
// operands (produced by the module resolver's loaded bytecode; bytecode
// disassembly itself is outside this package's responsibility) and
// returns every U64 constant in [1,100] used in an equality/ordering
// comparison, grouped per value with occurrence counts (spec.md §4.3
// "Detection signals").
func DetectVersionConstants(operands []ConstOperand) []VersionCandidate {
	byValue := make(map[uint64]*VersionCandidate)
	order := make([]uint64, 0)
	for _, op := range operands {
		if op.Value < 1 || !IsVersionLike(op.Value) {
			continue
		}
		c, ok := byValue[op.Value]
		if !ok {
			c = &VersionCandidate{Value: op.Value, Function: op.Function, Comparator: op.Comparator}
			byValue[op.Value] = c
			order = append(order, op.Value)
		}
		c.Occurrences++
	}
	out := make([]VersionCandidate, 0, len(order))
	for _, v := range order {
		out = append(out, *byValue[v])
	}
	return out
}

// versionStructNamePatterns are struct names (without module/address)
// spec.md §4.3 names as candidates for "version-field patterns": structs
// whose name matches one of these, with a field named one of
// versionFieldNames, are patch targets for the structured field strategy.
var versionStructNamePatterns = map[string]bool{
	"GlobalConfig": true,
	"Market":       true,
	"Pool":         true,
	"Config":       true,
	"Version":      true,
}

var versionFieldNames = map[string]bool{
	"package_version": true,
	"value":           true,
	"version":         true,
}

// IsVersionStructCandidate reports whether structName matches one of the
// recognized version-carrying struct name patterns.
func IsVersionStructCandidate(structName string) bool {
	return versionStructNamePatterns[structName]
}

// IsVersionFieldName reports whether fieldName is one of the recognized
// version field names.
func IsVersionFieldName(fieldName string) bool {
	return versionFieldNames[fieldName]
}

// FindVersionField returns the name of the first field in layout that is
// a recognized version field, if any.
func FindVersionField(layout StructLayout) (string, bool) {
	for _, f := range layout.Fields {
		if IsVersionFieldName(f.Name) {
			return f.Name, true
		}
	}
	return "", false
}
