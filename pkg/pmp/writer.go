package pmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"pmpshapes/internal/models"
)

var errCoordinateShape = errors.New("x and y coordinates must be equal length and hold at least one value")

// Encode serializes particles into the .pmp layout. The pixel count written
// for each record is len(X)-ExtraCoordinates and names are written as raw bytes
// (RawName, or Name when RawName is empty).
func Encode(particles []models.Particle) ([]byte, error) {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(particles)))

	for i := range particles {
		var err error
		buf, err = AppendRecord(buf, &particles[i])
		if err != nil {
			return nil, fmt.Errorf("particle %d: %w", i, err)
		}
	}
	return buf, nil
}

// AppendRecord appends one encoded record to buf
func AppendRecord(buf []byte, p *models.Particle) ([]byte, error) {
	if len(p.X) != len(p.Y) || len(p.X) < ExtraCoordinates {
		return nil, errCoordinateShape
	}
	name := p.RawName
	if len(name) == 0 {
		name = []byte(p.Name)
	}
	if len(name) > math.MaxUint8 {
		return nil, fmt.Errorf("name of %d bytes exceeds short string limit", len(name))
	}

	le := binary.LittleEndian
	buf = le.AppendUint32(buf, p.RecordTag)
	buf = append(buf, p.Flag)
	buf = le.AppendUint32(buf, uint32(len(p.X)-ExtraCoordinates))
	for _, v := range p.X {
		buf = le.AppendUint32(buf, uint32(v))
	}
	for _, v := range p.Y {
		buf = le.AppendUint32(buf, uint32(v))
	}
	buf = le.AppendUint32(buf, p.MeanX)
	buf = le.AppendUint32(buf, p.MeanY)
	for _, f := range []float32{p.MajorDimension, p.MinorDimension, p.Volume, p.Mass} {
		buf = le.AppendUint32(buf, math.Float32bits(f))
	}
	buf = le.AppendUint32(buf, p.ParticleNumberRaw)
	buf = le.AppendUint32(buf, p.MatchedNumberRaw)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	return buf, nil
}
