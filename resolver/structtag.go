package resolver

import (
	"regexp"
	"strings"

	"suireplay/types"
)

// hexRun matches a bare hex run of the form the struct-tag rewriter must
// substitute: "0x" followed by one or more hex digits. Addresses inside
// a Move type string are always written this way (e.g.
// "0x2::coin::Coin<0xabc...::token::TOKEN>").
var hexRun = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// RewriteStructTag rewrites every storage_id occurring in typeStr to its
// runtime_id via the resolver's alias table, preserving everything else
// character-for-character (spec.md §4.2). Rewriting with an empty alias
// table is the identity (spec.md §8 round-trip law), and rewriting is
// idempotent: addresses already in their runtime_id form are not in the
// alias table's key space (storage ids), so a second pass is a no-op.
func (r *Resolver) RewriteStructTag(typeStr string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.alias) == 0 {
		return typeStr
	}
	return hexRun.ReplaceAllStringFunc(typeStr, func(match string) string {
		addr, err := types.AddressFromHex(match)
		if err != nil {
			return match
		}
		if runtimeID, ok := r.alias[addr]; ok {
			return shortHex(runtimeID, match)
		}
		return match
	})
}

// shortHex renders the replacement address in the canonical 64-nibble
// form whatever digit count the original match used, since that is the
// form bytecode-derived type strings use; the original match is ignored.
func shortHex(addr types.AccountAddress, _ string) string {
	return addr.Hex()
}
