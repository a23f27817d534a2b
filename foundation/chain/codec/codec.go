// Package codec implements the canonical binary encoding used for every
// wire value in the system: blocks, extrinsics, signed payloads, and the
// values written to the key-value store.
//
// The encoding is deterministic. Fixed-width integers are little-endian,
// variable-length byte strings carry a u32 length prefix, and sum types
// lead with a single discriminant byte. Identical logical values always
// produce identical bytes, which is what makes signed payloads and
// duplicate detection work.
package codec

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before the value
	// being decoded is complete.
	ErrUnexpectedEOF = errors.New("codec: unexpected end of input")

	// ErrTrailingBytes is returned by Done when decoding finished but
	// input bytes remain.
	ErrTrailingBytes = errors.New("codec: trailing bytes after value")

	// ErrLength is returned when a length prefix exceeds the remaining
	// input, which would otherwise invite unbounded allocations.
	ErrLength = errors.New("codec: length prefix exceeds input")

	// ErrRange is returned when a value does not fit its wire width.
	ErrRange = errors.New("codec: value out of range")
)

// =============================================================================

// Writer accumulates the canonical encoding of a value.
type Writer struct {
	buf []byte
}

// NewWriter constructs a writer for encoding.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded value.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// U8 appends a single byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// U32 appends a little-endian 32 bit integer.
func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// U64 appends a little-endian 64 bit integer.
func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// U128 appends a 128 bit integer as 16 little-endian bytes. Checked pallet
// arithmetic keeps every stored balance inside the 128 bit range.
func (w *Writer) U128(v uint256.Int) {
	w.U64(v[0])
	w.U64(v[1])
}

// Raw appends bytes verbatim, no length prefix. Used for fixed-width
// fields such as account ids and signatures.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes32 appends a fixed 32 byte array.
func (w *Writer) Bytes32(b [32]byte) {
	w.buf = append(w.buf, b[:]...)
}

// VarBytes appends a u32 length prefix followed by the bytes.
func (w *Writer) VarBytes(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// String appends a string as length-prefixed bytes.
func (w *Writer) String(s string) {
	w.VarBytes([]byte(s))
}

// =============================================================================

// Reader consumes a canonical encoding. Every Read method returns an error
// instead of panicking so malformed network input is rejected cleanly.
type Reader struct {
	data []byte
	off  int
}

// NewReader constructs a reader over the given input.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining reports how many bytes are left to consume.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Done verifies the entire input was consumed. Top-level decoders call this
// so that a valid value followed by garbage is not accepted, which keeps
// the encoding canonical in both directions.
func (r *Reader) Done() error {
	if r.off != len(r.data) {
		return ErrTrailingBytes
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// U8 consumes a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U32 consumes a little-endian 32 bit integer.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 consumes a little-endian 64 bit integer.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// U128 consumes a 128 bit integer from 16 little-endian bytes.
func (r *Reader) U128() (uint256.Int, error) {
	lo, err := r.U64()
	if err != nil {
		return uint256.Int{}, err
	}
	hi, err := r.U64()
	if err != nil {
		return uint256.Int{}, err
	}
	return uint256.Int{lo, hi, 0, 0}, nil
}

// Bytes32 consumes a fixed 32 byte array.
func (r *Reader) Bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := r.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// Raw consumes exactly n bytes.
func (r *Reader) Raw(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// VarBytes consumes a u32 length prefix and then that many bytes.
func (r *Reader) VarBytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, ErrLength
	}
	return r.Raw(int(n))
}

// String consumes length-prefixed bytes as a string.
func (r *Reader) String() (string, error) {
	b, err := r.VarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
