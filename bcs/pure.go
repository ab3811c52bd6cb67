package bcs

import "github.com/holiman/uint256"

// PureKind enumerates the primitive Move types a PTB Pure input may
// declare, for decoding TransactionInput.PureBytes with DecodePure. The
// executor does not decode pure inputs: it passes their raw BCS bytes to
// the MoveInvoker unchanged.
type PureKind int

const (
	PureBool PureKind = iota
	PureU8
	PureU16
	PureU32
	PureU64
	PureU128
	PureU256
	PureAddress
	PureVectorU8
)

// DecodePure decodes raw BCS bytes as the given kind, returning the
// decoded value boxed as `any` (bool, uint8/16/32/64, *uint256.Int,
// [32]byte, or []byte for PureVectorU8).
func DecodePure(kind PureKind, raw []byte) (any, error) {
	r := NewReader(raw)
	switch kind {
	case PureBool:
		return r.ReadBool()
	case PureU8:
		return r.ReadU8()
	case PureU16:
		return r.ReadU16()
	case PureU32:
		return r.ReadU32()
	case PureU64:
		return r.ReadU64()
	case PureU128:
		return r.ReadU128()
	case PureU256:
		return r.ReadU256()
	case PureAddress:
		return r.ReadAddress()
	case PureVectorU8:
		return r.ReadBytes()
	default:
		return nil, ErrShortBuffer
	}
}

// EncodePure is the inverse of DecodePure, used by tests to check the
// BCS round-trip law (spec.md §8): every pure PTB input that is encoded
// and then decoded under its declared type yields the original value.
func EncodePure(kind PureKind, v any) []byte {
	w := NewWriter()
	switch kind {
	case PureBool:
		w.WriteBool(v.(bool))
	case PureU8:
		w.WriteU8(v.(uint8))
	case PureU16:
		w.WriteU16(v.(uint16))
	case PureU32:
		w.WriteU32(v.(uint32))
	case PureU64:
		w.WriteU64(v.(uint64))
	case PureU128:
		w.WriteU128(v.(*uint256.Int))
	case PureU256:
		w.WriteU256(v.(*uint256.Int))
	case PureAddress:
		w.WriteAddress(v.([32]byte))
	case PureVectorU8:
		w.WriteBytes(v.([]byte))
	}
	return w.Bytes()
}
