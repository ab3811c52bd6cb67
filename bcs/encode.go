// Package bcs implements the subset of Binary Canonical Serialization
// (BCS) this replay core needs: little-endian fixed-width integers,
// ULEB128-length-prefixed vectors, and a byte-level Writer/Reader pair
// used for PTB pure-input values and for the dynamic field engine's
// type-tag and child-id encoding.
//
// There is no general-purpose BCS library in the example corpus this
// module was grounded on; BCS is intrinsic to the Move wire format this
// spec requires byte-for-byte, so it is implemented directly rather than
// reached for from an unrelated ecosystem package (see DESIGN.md).
package bcs

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
)

// ErrShortBuffer is returned by Reader methods when fewer bytes remain
// than the requested fixed-width read needs.
var ErrShortBuffer = errors.New("bcs: short buffer")

// Writer accumulates BCS-encoded bytes in declaration order.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteU16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) WriteU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) WriteU64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) WriteU128(v *uint256.Int) { w.writeLEFixed(v, 16) }
func (w *Writer) WriteU256(v *uint256.Int) { w.writeLEFixed(v, 32) }

func (w *Writer) writeLEFixed(v *uint256.Int, width int) {
	be := v.Bytes32() // big-endian, 32 bytes, zero-padded high
	le := make([]byte, width)
	for i := 0; i < width; i++ {
		le[i] = be[32-1-i]
	}
	w.buf = append(w.buf, le...)
}

func (w *Writer) WriteAddress(addr [32]byte) { w.buf = append(w.buf, addr[:]...) }

// WriteBytes writes a ULEB128 length prefix followed by the raw bytes,
// BCS's encoding for both `vector<u8>` and fixed-element vectors flattened
// by the caller.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, PutUvarint(uint64(len(b)))...)
	w.buf = append(w.buf, b...)
}

// WriteVecLen writes just the ULEB128 length prefix for a vector whose
// elements the caller will encode itself (non-byte elements).
func (w *Writer) WriteVecLen(n int) {
	w.buf = append(w.buf, PutUvarint(uint64(n))...)
}
