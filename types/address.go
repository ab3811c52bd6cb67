// Package types holds the data model shared by every component of the
// replay core: addresses, digests, versioned objects, packages, PTB
// commands and the assembled ReplayState.
package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AccountAddress is a 32-byte Move address. Equivalence is always taken
// after Normalize: the zero-padded, lowercase, 0x-prefixed 64-nibble form.
type AccountAddress [32]byte

// Framework addresses that are never reported as missing dependencies:
// 0x1 (std), 0x2 (sui framework), 0x3 (sui system).
var (
	FrameworkStd    = AddressFromU64(1)
	FrameworkSui    = AddressFromU64(2)
	FrameworkSystem = AddressFromU64(3)
)

// AddressFromU64 builds an address with the given value in its
// lowest-order byte, matching how framework addresses are conventionally
// written (0x1, 0x2, 0x3, ...).
func AddressFromU64(v uint8) AccountAddress {
	var a AccountAddress
	a[31] = v
	return a
}

// IsFramework reports whether addr is one of the well-known framework
// addresses, which are never marked as missing dependencies.
func (a AccountAddress) IsFramework() bool {
	return a == FrameworkStd || a == FrameworkSui || a == FrameworkSystem
}

// Hex renders the address in its normalized 0x-prefixed, 64-nibble,
// lowercase form. Normalize(Hex(a)) == Hex(a) for every a, by construction.
func (a AccountAddress) Hex() string {
	return hexutil.Encode(a[:])
}

func (a AccountAddress) String() string { return a.Hex() }

// IsZero reports whether every byte of the address is zero.
func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

// AddressFromHex parses a hex string into an AccountAddress after
// normalizing it. Inputs shorter than 64 nibbles are left-padded with
// zeros; inputs longer are rejected.
func AddressFromHex(s string) (AccountAddress, error) {
	norm, err := NormalizeHexAddress(s)
	if err != nil {
		return AccountAddress{}, err
	}
	b, err := hexutil.Decode(norm)
	if err != nil {
		return AccountAddress{}, err
	}
	var a AccountAddress
	copy(a[32-len(b):], b)
	return a, nil
}

// NormalizeHexAddress left-pads the hex form of an address (with or
// without 0x prefix) to 64 nibbles and lower-cases it. This is total over
// any input that decodes to at most 32 bytes: NormalizeHexAddress is
// idempotent, i.e. normalizing a normalized string returns it unchanged.
func NormalizeHexAddress(s string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	trimmed = strings.ToLower(trimmed)
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}
	if len(trimmed) > 64 {
		return "", &InvalidAddressError{Input: s}
	}
	for len(trimmed) < 64 {
		trimmed = "0" + trimmed
	}
	return "0x" + trimmed, nil
}

// InvalidAddressError is returned by NormalizeHexAddress when a string has
// more than 64 hex digits. Non-hex characters are not detected there;
// AddressFromHex reports them with the hex decoder's own error.
type InvalidAddressError struct {
	Input string
}

func (e *InvalidAddressError) Error() string {
	return "types: invalid address literal " + e.Input
}
