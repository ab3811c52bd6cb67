package bcs

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Reader decodes BCS-encoded bytes in declaration order. It never
// panics: every method returns an error on short input, so callers can
// fall back cleanly when a blob doesn't match the layout they expected.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) readLEFixed(width int) (*uint256.Int, error) {
	le, err := r.take(width)
	if err != nil {
		return nil, err
	}
	be := make([]byte, 32)
	for i := 0; i < width; i++ {
		be[32-1-i] = le[i]
	}
	return new(uint256.Int).SetBytes(be), nil
}

func (r *Reader) ReadU128() (*uint256.Int, error) { return r.readLEFixed(16) }
func (r *Reader) ReadU256() (*uint256.Int, error) { return r.readLEFixed(32) }

func (r *Reader) ReadAddress() ([32]byte, error) {
	b, err := r.take(32)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}

// ReadUvarint decodes a ULEB128-prefixed length, as used for vector and
// string lengths.
func (r *Reader) ReadUvarint() (uint64, error) {
	n, consumed, err := Uvarint(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += consumed
	return n, nil
}

// ReadBytes reads a ULEB128 length prefix followed by that many raw
// bytes (vector<u8> / String).
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

// Skip advances the reader by n bytes without interpreting them, used
// when a variable-length field precedes the one the caller actually
// wants and the caller already knows (from elsewhere) how long it is.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}
