package pmp

import (
	"errors"
	"math"
	"testing"
)

// TestCursorLittleEndian verifies that every primitive is decoded little-endian
func TestCursorLittleEndian(t *testing.T) {
	buf := []byte{
		0x7f,                   // u8
		0x01, 0x02, 0x03, 0x04, // u32 0x04030201
		0xfe, 0xff, 0xff, 0xff, // i32 -2
		0x00, 0x00, 0xc0, 0x3f, // f32 1.5
	}
	c := NewCursor(buf)

	u8, err := c.ReadU8()
	if err != nil || u8 != 0x7f {
		t.Fatalf("ReadU8 = %#x, %v", u8, err)
	}
	u32, err := c.ReadU32()
	if err != nil || u32 != 0x04030201 {
		t.Fatalf("ReadU32 = %#x, %v", u32, err)
	}
	i32, err := c.ReadI32()
	if err != nil || i32 != -2 {
		t.Fatalf("ReadI32 = %d, %v", i32, err)
	}
	f32, err := c.ReadF32()
	if err != nil || f32 != 1.5 {
		t.Fatalf("ReadF32 = %f, %v", f32, err)
	}

	if c.Pos() != len(buf) {
		t.Errorf("Expected position %d, got %d", len(buf), c.Pos())
	}
	if c.Remaining() != 0 {
		t.Errorf("Expected no remaining bytes, got %d", c.Remaining())
	}
}

// TestCursorReadPastEnd verifies that short reads fail without moving the cursor
func TestCursorReadPastEnd(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		read func(c *Cursor) error
	}{
		{"u8 on empty", nil, func(c *Cursor) error { _, err := c.ReadU8(); return err }},
		{"u32 on 3 bytes", []byte{1, 2, 3}, func(c *Cursor) error { _, err := c.ReadU32(); return err }},
		{"i32 on 1 byte", []byte{1}, func(c *Cursor) error { _, err := c.ReadI32(); return err }},
		{"f32 on 2 bytes", []byte{1, 2}, func(c *Cursor) error { _, err := c.ReadF32(); return err }},
		{"skip beyond end", []byte{1, 2}, func(c *Cursor) error { return c.Skip(3) }},
		{"negative length", []byte{1, 2}, func(c *Cursor) error { _, err := c.ReadBytes(-1); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.buf)
			err := tt.read(c)
			if !errors.Is(err, ErrUnexpectedEndOfData) {
				t.Fatalf("Expected ErrUnexpectedEndOfData, got %v", err)
			}
			if c.Pos() != 0 {
				t.Errorf("Cursor moved to %d after failed read", c.Pos())
			}
		})
	}
}

// TestCursorSeek verifies explicit positioning
func TestCursorSeek(t *testing.T) {
	bits := math.Float32bits(-0.25)
	buf := []byte{0, 0, 0, 0, byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	c := NewCursor(buf)

	if err := c.Seek(4); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	v, err := c.ReadF32()
	if err != nil || v != -0.25 {
		t.Fatalf("ReadF32 after seek = %f, %v", v, err)
	}

	if err := c.Seek(len(buf) + 1); err == nil {
		t.Error("Expected error seeking past the end")
	}
	if err := c.Seek(-1); err == nil {
		t.Error("Expected error seeking before the start")
	}
	if err := c.Seek(len(buf)); err != nil {
		t.Errorf("Seeking to the end should be allowed: %v", err)
	}
}
