// Package historical implements the Historical State Reconstruction
// component (spec.md §4.3): patching BCS-encoded objects so layouts
// valid at a transaction's historical point-in-time deserialize under
// current bytecode. It is grounded on the Rust original's
// utilities/generic_patcher.rs, offset_calculator.rs,
// version_field_detector.rs and well_known.rs (see DESIGN.md).
package historical

// MoveType is the subset of Move's type system the offset calculator and
// patcher need to reason about field widths.
type MoveType int

const (
	TypeBool MoveType = iota
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeU256
	TypeAddress
	TypeSigner
	TypeVector
	TypeStruct
	TypeTypeParameter
)

// FixedSize returns the BCS-encoded width of t in bytes, or (0, false)
// for variable-size types (spec.md §4.3's "Field-offset rule").
func (t MoveType) FixedSize() (int, bool) {
	switch t {
	case TypeBool, TypeU8:
		return 1, true
	case TypeU16:
		return 2, true
	case TypeU32:
		return 4, true
	case TypeU64:
		return 8, true
	case TypeU128:
		return 16, true
	case TypeU256, TypeAddress, TypeSigner:
		return 32, true
	default:
		return 0, false
	}
}

// StructField is one field of a parsed struct layout.
type StructField struct {
	Name string
	Type MoveType
	// StructTypeName is populated only when Type == TypeStruct: the
	// fully-qualified name of the nested struct (e.g. "0x2::object::UID"),
	// used to look up well-known fixed-size framework structs.
	StructTypeName string
}

// StructLayout is a package's compiled view of one struct's fields in
// BCS declaration order.
type StructLayout struct {
	TypeName string
	Fields   []StructField
}

// wellKnownFixedStructs records framework structs with an implicit fixed
// size: object::UID and object::ID are both plain 32-byte addresses under
// the hood, a detail the generic offset calculator can't infer from the
// MoveType enum alone.
var wellKnownFixedStructs = map[string]int{
	"0x2::object::UID": 32,
	"0x2::object::ID":  32,
}

// FixedSizeOf returns the BCS width of a (possibly struct) field,
// consulting wellKnownFixedStructs when the field's declared type is a
// struct.
func FixedSizeOf(f StructField) (int, bool) {
	if f.Type != TypeStruct {
		return f.Type.FixedSize()
	}
	if n, ok := wellKnownFixedStructs[f.StructTypeName]; ok {
		return n, true
	}
	return 0, false
}
