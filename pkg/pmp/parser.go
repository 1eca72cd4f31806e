package pmp

import (
	"errors"
	"fmt"
	"os"

	"pmpshapes/internal/models"
)

// Parser decodes whole particle files
type Parser struct {
	decodeName NameDecoder
}

// NewParser creates a parser that decodes particle names with the given encoding
func NewParser(nameEncoding string) (*Parser, error) {
	dec, err := NewNameDecoder(nameEncoding)
	if err != nil {
		return nil, err
	}
	return &Parser{decodeName: dec}, nil
}

// ParseFile reads and decodes the particle file at path
func (p *Parser) ParseFile(path string) (*models.ParticleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEmptyOrUnreadableFile, path, err)
	}

	pf, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pf.Path = path
	return pf, nil
}

// Parse decodes a particle file held in memory.
//
// The header count is read at offset 0 and exactly that many records are
// decoded in order. A record cut short by the end of the buffer yields
// ErrTruncatedFile wrapping the *RecordError; no partial particle is returned.
// A zero count is valid and yields no particles.
func (p *Parser) Parse(data []byte) (*models.ParticleFile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrEmptyOrUnreadableFile)
	}

	c := NewCursor(data)
	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: reading particle count: %w", ErrTruncatedFile, err)
	}

	// The header is untrusted, size the slice by what the buffer can hold
	capHint := c.Remaining() / minRecordSize
	if uint64(count) < uint64(capHint) {
		capHint = int(count)
	}

	pf := &models.ParticleFile{
		DeclaredCount: count,
		Particles:     make([]models.Particle, 0, capHint),
	}

	for i := uint32(0); i < count; i++ {
		rec, err := DecodeRecord(c, int(i), p.decodeName)
		if err != nil {
			if errors.Is(err, ErrUnexpectedEndOfData) {
				return nil, fmt.Errorf("%w: decoded %d of %d particles: %w",
					ErrTruncatedFile, i, count, err)
			}
			return nil, err
		}
		pf.Particles = append(pf.Particles, rec)
	}

	pf.TrailingBytes = c.Remaining()
	return pf, nil
}

// ParseFile decodes the particle file at path using windows-1252 names
func ParseFile(path string) (*models.ParticleFile, error) {
	p, err := NewParser("")
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}
