// Package pmp decodes sIMPLE particle files (.pmp).
//
// A file is a little-endian u32 particle count followed by that many
// variable-length records. There is no magic number, checksum or record
// framing, so every field width must be known in advance.
package pmp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor is a positioned little-endian reader over a byte buffer.
// Every read advances the shared position by the width of the value.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current byte offset
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the size of the underlying buffer
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of unread bytes
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Seek moves the cursor to an absolute offset
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("seek to %d outside buffer of %d bytes", pos, len(c.buf))
	}
	c.pos = pos
	return nil
}

// take returns the next n bytes and advances past them
func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d left",
			ErrUnexpectedEndOfData, n, c.pos, c.Remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU8 reads one unsigned byte
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU32 reads an unsigned little-endian 32-bit integer
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a signed little-endian 32-bit integer
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 single precision float
func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadBytes returns the next n bytes. The result aliases the buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

// Skip advances the cursor by n bytes
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}
