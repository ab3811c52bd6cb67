// Package dynfield implements the Dynamic Field Engine (spec.md §4.4):
// child-id derivation, eager breadth-first prefetching, and an on-demand
// child fetcher with a layered fallback chain. Grounded on
// original_source's mm2/key_synthesizer.rs for derivation and phantom-key
// detection.
package dynfield

import (
	"golang.org/x/crypto/blake2b"

	"suireplay/bcs"
	"suireplay/types"
)

// childObjectIDScope is the hashing intent scope byte Sui's runtime
// prepends before hashing a dynamic field's child-id preimage. This is
// part of the required wire-compatible invariant (spec.md §4.4, §6).
const childObjectIDScope = 0xf0

// DeriveChildID computes the object ID of the dynamic-field child
// addressed by (parent, keyType, keyBytes), reproducing Sui's
// dynamic_field::derive_dynamic_field_id byte-for-byte:
//
//	Blake2b256(0xf0 || parent || u64_le(len(key_bytes)) || key_bytes || bcs(key_type_tag))
func DeriveChildID(parent types.AccountAddress, keyType TypeTag, keyBytes []byte) types.ObjectID {
	w := bcs.NewWriter()
	w.WriteU8(childObjectIDScope)
	w.WriteAddress(parent)
	w.WriteU64(uint64(len(keyBytes)))
	preimage := append(w.Bytes(), keyBytes...)

	typeBytes := bcs.NewWriter()
	keyType.EncodeBCS(typeBytes)
	preimage = append(preimage, typeBytes.Bytes()...)

	digest := blake2b.Sum256(preimage)
	var out types.ObjectID
	copy(out[:], digest[:])
	return out
}
