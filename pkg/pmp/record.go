package pmp

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"pmpshapes/internal/models"
)

// ExtraCoordinates is the number of coordinates stored beyond the declared
// pixel count. The instrument software loops over 0..pixelCount inclusive,
// so each array holds pixelCount+1 values. Whether the last value is a
// terminator or a real pixel is not known; it is kept as a pixel.
const ExtraCoordinates = 1

// minRecordSize is the size of a record with pixelCount 0 and an empty name
const minRecordSize = 4 + 1 + 4 + 2*4*ExtraCoordinates + 2*4 + 4*4 + 2*4 + 1

// NameDecoder turns the raw bytes of the trailing short string into text
type NameDecoder func(raw []byte) (string, error)

// NewNameDecoder returns the decoder for a named encoding.
// Supported names are windows-1252 (the default for empty), latin1 and raw.
func NewNameDecoder(encoding string) (NameDecoder, error) {
	switch strings.ToLower(encoding) {
	case "", "windows-1252", "cp1252":
		return charmapDecoder(charmap.Windows1252), nil
	case "latin1", "iso-8859-1":
		return charmapDecoder(charmap.ISO8859_1), nil
	case "raw", "utf-8", "utf8":
		return func(raw []byte) (string, error) { return string(raw), nil }, nil
	default:
		return nil, fmt.Errorf("unsupported name encoding %q", encoding)
	}
}

func charmapDecoder(cm *charmap.Charmap) NameDecoder {
	return func(raw []byte) (string, error) {
		b, err := cm.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// recordReader tracks the field being decoded so failures can name it
type recordReader struct {
	c     *Cursor
	field string
	err   error
}

func (r *recordReader) u8(field string) uint8 {
	if r.err != nil {
		return 0
	}
	r.field = field
	v, err := r.c.ReadU8()
	r.err = err
	return v
}

func (r *recordReader) u32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	r.field = field
	v, err := r.c.ReadU32()
	r.err = err
	return v
}

func (r *recordReader) f32(field string) float32 {
	if r.err != nil {
		return 0
	}
	r.field = field
	v, err := r.c.ReadF32()
	r.err = err
	return v
}

// coords reads n signed coordinates. The byte count is checked up front so a
// corrupt pixel count cannot trigger a huge allocation.
func (r *recordReader) coords(field string, n uint64) []int32 {
	if r.err != nil {
		return nil
	}
	r.field = field
	if n*4 > uint64(r.c.Remaining()) {
		r.err = fmt.Errorf("%w: %d coordinates need %d bytes at offset %d, %d left",
			ErrUnexpectedEndOfData, n, n*4, r.c.Pos(), r.c.Remaining())
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		v, err := r.c.ReadI32()
		if err != nil {
			r.err = err
			return nil
		}
		out[i] = v
	}
	return out
}

func (r *recordReader) bytes(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	r.field = field
	b, err := r.c.ReadBytes(n)
	r.err = err
	return b
}

// DecodeRecord decodes the particle record at the cursor position.
// Any read failure is returned as a *RecordError carrying the failing offset.
func DecodeRecord(c *Cursor, index int, decodeName NameDecoder) (models.Particle, error) {
	p := models.Particle{Index: index, Offset: c.Pos()}
	r := &recordReader{c: c}

	p.RecordTag = r.u32("record tag")
	p.Flag = r.u8("flag byte")
	p.PixelCount = r.u32("pixel count")

	n := uint64(p.PixelCount) + ExtraCoordinates
	p.X = r.coords("x coordinates", n)
	p.Y = r.coords("y coordinates", n)

	p.MeanX = r.u32("mean x")
	p.MeanY = r.u32("mean y")
	p.MajorDimension = r.f32("major dimension")
	p.MinorDimension = r.f32("minor dimension")
	p.Volume = r.f32("volume")
	p.Mass = r.f32("mass")
	p.ParticleNumberRaw = r.u32("particle number")
	p.MatchedNumberRaw = r.u32("matched particle number")
	p.ParticleNumber = float32(p.ParticleNumberRaw)
	p.MatchedParticleNumber = float32(p.MatchedNumberRaw)

	// Delphi short string: one length byte, then the bytes
	nameLen := r.u8("name length")
	raw := r.bytes("name", int(nameLen))

	if r.err != nil {
		return models.Particle{}, &RecordError{
			Index:  index,
			Start:  p.Offset,
			Offset: c.Pos(),
			Field:  r.field,
			Err:    r.err,
		}
	}

	p.RawName = append([]byte(nil), raw...)
	if decodeName != nil {
		name, err := decodeName(p.RawName)
		if err != nil {
			return models.Particle{}, &RecordError{
				Index:  index,
				Start:  p.Offset,
				Offset: c.Pos() - len(raw),
				Field:  "name",
				Err:    err,
			}
		}
		p.Name = name
	}

	return p, nil
}
