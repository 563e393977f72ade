package krb

import "encoding/binary"

// ByteReader is a bounds-checked cursor over an in-memory KRB buffer.
// Every read fails with KindUnexpectedEOF if the requested range exceeds
// the buffer (a length-prefixed string whose payload is cut short fails
// with KindBadStringLength), and KindOutOfBounds if a seek target is
// negative or past the end.
type ByteReader struct {
	buf []byte
	pos int
}

// NewByteReader wraps buf for bounds-checked sequential/random access.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Len returns the total buffer length.
func (r *ByteReader) Len() int { return len(r.buf) }

// Tell returns the current cursor position.
func (r *ByteReader) Tell() int { return r.pos }

// Seek moves the cursor to an absolute offset.
func (r *ByteReader) Seek(abs int) error {
	if abs < 0 || abs > len(r.buf) {
		return newErr(KindOutOfBounds, "seek target %d out of [0,%d]", abs, len(r.buf))
	}
	r.pos = abs
	return nil
}

// Skip advances the cursor by n bytes.
func (r *ByteReader) Skip(n int) error {
	return r.Seek(r.pos + n)
}

func (r *ByteReader) require(n int) error {
	if r.pos+n > len(r.buf) {
		return newErr(KindUnexpectedEOF, "need %d bytes at %d, have %d", n, r.pos, len(r.buf))
	}
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (r *ByteReader) ReadU8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// ReadU16LE reads a little-endian uint16 and advances the cursor.
func (r *ByteReader) ReadU16LE() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32 and advances the cursor.
func (r *ByteReader) ReadU32LE() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadBytes reads n raw bytes and advances the cursor. The returned slice
// aliases the reader's buffer; callers that retain it across further
// reads must copy.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, newErr(KindUnexpectedEOF, "negative length %d", n)
	}
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadLengthPrefixedString reads a 1-byte length prefix followed by that
// many bytes of UTF-8 payload.
func (r *ByteReader) ReadLengthPrefixedString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", newErr(KindBadStringLength, "string of length %d at %d: %v", n, r.pos, err)
	}
	return string(b), nil
}
