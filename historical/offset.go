package historical

import "sync"

// OffsetKind discriminates an OffsetResult.
type OffsetKind int

const (
	OffsetKnown OffsetKind = iota
	OffsetUnknown
	OffsetNotFound
)

// OffsetResult is the outcome of calculating one field's byte offset
// within a BCS-encoded struct.
type OffsetResult struct {
	Kind   OffsetKind
	Offset int // meaningful only when Kind == OffsetKnown
}

func (r OffsetResult) IsKnown() bool { return r.Kind == OffsetKnown }

// OffsetCalculator walks a StructLayout's fields in declaration order,
// accumulating byte offsets, per spec.md §4.3's field-offset rule: as
// soon as a variable-sized field precedes the target, the offset becomes
// Unknown. Computed offsets are cached per (type, field) for the life of
// one OffsetCalculator, mirroring the Rust original's cached_offsets
// field (SPEC_FULL.md §4).
type OffsetCalculator struct {
	mu    sync.Mutex
	cache map[string]map[string]int
}

func NewOffsetCalculator() *OffsetCalculator {
	return &OffsetCalculator{cache: make(map[string]map[string]int)}
}

// CalculateFieldOffset returns the byte offset of fieldName within
// layout, or Unknown/NotFound per the rules above.
func (c *OffsetCalculator) CalculateFieldOffset(layout StructLayout, fieldName string) OffsetResult {
	c.mu.Lock()
	if byField, ok := c.cache[layout.TypeName]; ok {
		if off, ok := byField[fieldName]; ok {
			c.mu.Unlock()
			return OffsetResult{Kind: OffsetKnown, Offset: off}
		}
	}
	c.mu.Unlock()

	offset := 0
	for _, f := range layout.Fields {
		if f.Name == fieldName {
			c.memoize(layout.TypeName, fieldName, offset)
			return OffsetResult{Kind: OffsetKnown, Offset: offset}
		}
		size, known := FixedSizeOf(f)
		if !known {
			return OffsetResult{Kind: OffsetUnknown}
		}
		offset += size
	}
	return OffsetResult{Kind: OffsetNotFound}
}

func (c *OffsetCalculator) memoize(typeName, field string, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.cache[typeName]
	if !ok {
		m = make(map[string]int)
		c.cache[typeName] = m
	}
	m[field] = offset
}

// CalculateFromEnd computes the offset of fieldName measured from the end
// of the blob, used when the field is the struct's last field and a
// variable-sized field precedes it (spec.md §8 boundary behavior: "A
// patch target that is the last field of a struct whose penultimate
// field is variable-sized must still succeed via FromEnd"). Returns
// Unknown if fieldName is not the last field.
func (c *OffsetCalculator) CalculateFromEnd(layout StructLayout, fieldName string) OffsetResult {
	if len(layout.Fields) == 0 || layout.Fields[len(layout.Fields)-1].Name != fieldName {
		return OffsetResult{Kind: OffsetUnknown}
	}
	size, known := FixedSizeOf(layout.Fields[len(layout.Fields)-1])
	if !known {
		return OffsetResult{Kind: OffsetUnknown}
	}
	return OffsetResult{Kind: OffsetKnown, Offset: size} // interpreted as "last `size` bytes"
}
