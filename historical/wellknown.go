package historical

// FieldPosition describes where a field lives in a BCS blob when the
// struct layout itself couldn't be parsed, and the caller must fall back
// to a raw, position-based patch (spec.md §4.3 strategy 3).
type FieldPosition struct {
	FromStart bool // if false, position is measured FromEnd
	N         int  // byte count: width from the chosen end
	Width     int  // width of the value itself, in bytes
}

// wellKnownLayouts maps a recognizable type-name pattern to where its
// version field lives, for objects whose bytecode-derived StructLayout
// isn't available (e.g. because the package's bytecode itself wasn't
// fetched, only its on-chain object shape is known). This is the static
// table spec.md §4.3 calls "Known last-field layouts".
var wellKnownLayouts = map[string]FieldPosition{
	"0x2::coin::Coin":            {FromStart: false, N: 8, Width: 8},
	"cetus::config::GlobalConfig": {FromStart: false, N: 8, Width: 8},
	"deepbook::pool::Pool":        {FromStart: false, N: 8, Width: 8},
}

// RegisterWellKnownLayout lets a caller extend the static table at
// runtime (e.g. from a protocol-specific analysis tool layered on top of
// this core, which is itself out of scope per spec.md §1).
func RegisterWellKnownLayout(typePattern string, pos FieldPosition) {
	wellKnownLayouts[typePattern] = pos
}

// LookupWellKnownLayout returns the FieldPosition registered for
// typePattern, if any.
func LookupWellKnownLayout(typePattern string) (FieldPosition, bool) {
	pos, ok := wellKnownLayouts[typePattern]
	return pos, ok
}

// ExtractByPosition reads Width bytes from blob at the position pos
// describes (from the start or from the end), interpreting them as a
// little-endian unsigned integer. It does not validate the result is
// version-like; callers (the patcher) do that separately.
func ExtractByPosition(blob []byte, pos FieldPosition) (uint64, bool) {
	var start int
	if pos.FromStart {
		start = pos.N
	} else {
		start = len(blob) - pos.N
	}
	if start < 0 || start+pos.Width > len(blob) {
		return 0, false
	}
	var v uint64
	for i := pos.Width - 1; i >= 0; i-- {
		v = v<<8 | uint64(blob[start+i])
	}
	return v, true
}

// OverwriteByPosition writes value (little-endian, pos.Width bytes) into
// a copy of blob at the position pos describes, returning the patched
// copy. The original blob is never mutated in place, so pre-patch bytes
// remain available for diagnostic output (spec.md §4.1's patching hook).
func OverwriteByPosition(blob []byte, pos FieldPosition, value uint64) ([]byte, bool) {
	var start int
	if pos.FromStart {
		start = pos.N
	} else {
		start = len(blob) - pos.N
	}
	if start < 0 || start+pos.Width > len(blob) {
		return nil, false
	}
	out := append([]byte(nil), blob...)
	for i := 0; i < pos.Width; i++ {
		out[start+i] = byte(value >> (8 * uint(i)))
	}
	return out, true
}
