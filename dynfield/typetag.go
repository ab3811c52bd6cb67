package dynfield

import (
	"fmt"
	"strings"

	"suireplay/bcs"
	"suireplay/types"
)

// TypeTagKind mirrors Move's TypeTag enum discriminants, in the exact
// declaration order the BCS wire format depends on (variant index is
// written as a ULEB128 byte ahead of the variant's payload).
type TypeTagKind int

const (
	TagBool TypeTagKind = iota
	TagU8
	TagU64
	TagU128
	TagAddress
	TagSigner
	TagVector
	TagStruct
	TagU16
	TagU32
	TagU256
)

// TypeTag is a parsed Move type tag, sufficient to reproduce its BCS
// encoding for the dynamic-field child-id derivation formula
// (spec.md §4.4 "required invariant").
type TypeTag struct {
	Kind TypeTagKind

	// Vector element, populated when Kind == TagVector.
	Elem *TypeTag

	// Struct fields, populated when Kind == TagStruct.
	Address    types.AccountAddress
	Module     string
	Name       string
	TypeParams []TypeTag
}

// ParseTypeTag parses a fully-qualified Move type tag string (e.g.
// "0x2::coin::Coin<0x2::sui::SUI>" or "vector<u8>" or "u64") into a
// TypeTag. Grounded on original_source's key_synthesizer.rs
// parse_type_tag/parse_struct_tag/parse_type_args.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "bool":
		return TypeTag{Kind: TagBool}, nil
	case "u8":
		return TypeTag{Kind: TagU8}, nil
	case "u16":
		return TypeTag{Kind: TagU16}, nil
	case "u32":
		return TypeTag{Kind: TagU32}, nil
	case "u64":
		return TypeTag{Kind: TagU64}, nil
	case "u128":
		return TypeTag{Kind: TagU128}, nil
	case "u256":
		return TypeTag{Kind: TagU256}, nil
	case "address":
		return TypeTag{Kind: TagAddress}, nil
	case "signer":
		return TypeTag{Kind: TagSigner}, nil
	}

	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		inner, err := ParseTypeTag(s[len("vector<") : len(s)-1])
		if err != nil {
			return TypeTag{}, err
		}
		return TypeTag{Kind: TagVector, Elem: &inner}, nil
	}

	return parseStructTag(s)
}

func parseStructTag(s string) (TypeTag, error) {
	base := s
	var argsStr string
	hasArgs := false
	if idx := strings.Index(s, "<"); idx >= 0 {
		if !strings.HasSuffix(s, ">") {
			return TypeTag{}, fmt.Errorf("dynfield: unterminated type arguments in %q", s)
		}
		base = s[:idx]
		argsStr = s[idx+1 : len(s)-1]
		hasArgs = true
	}

	parts := strings.Split(base, "::")
	if len(parts) < 3 {
		return TypeTag{}, fmt.Errorf("dynfield: malformed struct tag %q", s)
	}
	addr, err := types.AddressFromHex(parts[0])
	if err != nil {
		return TypeTag{}, fmt.Errorf("dynfield: struct tag address: %w", err)
	}

	var params []TypeTag
	if hasArgs {
		params, err = parseTypeArgs(argsStr)
		if err != nil {
			return TypeTag{}, err
		}
	}

	return TypeTag{
		Kind:       TagStruct,
		Address:    addr,
		Module:     parts[1],
		Name:       parts[2],
		TypeParams: params,
	}, nil
}

// parseTypeArgs splits a comma-separated type argument list, respecting
// nested angle brackets, mirroring the Rust original's bracket-depth
// scanner.
func parseTypeArgs(s string) ([]TypeTag, error) {
	var out []TypeTag
	var cur strings.Builder
	depth := 0
	flush := func() error {
		trimmed := strings.TrimSpace(cur.String())
		cur.Reset()
		if trimmed == "" {
			return nil
		}
		tt, err := ParseTypeTag(trimmed)
		if err != nil {
			return err
		}
		out = append(out, tt)
		return nil
	}
	for _, r := range s {
		switch r {
		case '<':
			depth++
			cur.WriteRune(r)
		case '>':
			depth--
			cur.WriteRune(r)
		case ',':
			if depth == 0 {
				if err := flush(); err != nil {
					return nil, err
				}
				continue
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeBCS writes t's BCS encoding (Move's TypeTag enum wire format)
// into w: a single-byte variant index (all TypeTagKind values fit in the
// ULEB128 single-byte range) followed by the variant's payload.
func (t TypeTag) EncodeBCS(w *bcs.Writer) {
	w.WriteU8(uint8(t.Kind))
	switch t.Kind {
	case TagVector:
		t.Elem.EncodeBCS(w)
	case TagStruct:
		w.WriteAddress(t.Address)
		w.WriteBytes([]byte(t.Module))
		w.WriteBytes([]byte(t.Name))
		w.WriteVecLen(len(t.TypeParams))
		for _, p := range t.TypeParams {
			p.EncodeBCS(w)
		}
	}
}
