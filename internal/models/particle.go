package models

import (
	"image"
)

// Particle represents a single particle record decoded from a sIMPLE .pmp file
type Particle struct {
	// Index is the position of this particle in the file (0-based, on-disk order)
	Index int

	// Offset is the byte offset where the record starts
	Offset int

	// RecordTag is the opaque per-record identifier that opens every record
	RecordTag uint32

	// Flag is the raw byte following the record tag
	Flag byte

	// PixelCount is the declared pixel count. The coordinate arrays hold
	// PixelCount+1 entries.
	PixelCount uint32

	// X and Y are the index-aligned pixel coordinates of the particle
	X []int32
	Y []int32

	// MeanX and MeanY are the centroids reported by the instrument
	MeanX uint32
	MeanY uint32

	// Dimensions and physical quantities reported by the instrument
	MajorDimension float32
	MinorDimension float32
	Volume         float32
	Mass           float32

	// ParticleNumber and MatchedParticleNumber are stored as unsigned
	// integers on disk and widened to float exactly like the instrument
	// software does. The raw values are kept alongside.
	ParticleNumber        float32
	MatchedParticleNumber float32
	ParticleNumberRaw     uint32
	MatchedNumberRaw      uint32

	// RawName holds the bytes of the trailing short string
	RawName []byte

	// Name is RawName decoded with the configured charmap
	Name string
}

// Len returns the number of stored coordinate pairs
func (p *Particle) Len() int {
	return len(p.X)
}

// ParticleFile is the decoded content of a whole .pmp file
type ParticleFile struct {
	// Path is the file the particles were read from (empty for in-memory buffers)
	Path string

	// DeclaredCount is the particle count from the file header
	DeclaredCount uint32

	// Particles in on-disk order
	Particles []Particle

	// TrailingBytes counts bytes left after the last record
	TrailingBytes int
}

// Mask represents a dense raster reconstructed from a particle's pixel list.
// Pix is row-major: Y selects the row and X the column.
type Mask struct {
	// Pix holds Width*Height intensities (0 background, 255 foreground)
	Pix []uint8

	// Width and Height of the mask in pixels
	Width  int
	Height int

	// Origin is the source coordinate that maps to mask cell (0, 0)
	Origin image.Point
}

// At returns the intensity at the given row and column
func (m *Mask) At(row, col int) uint8 {
	return m.Pix[row*m.Width+col]
}

// Set stores an intensity at the given row and column
func (m *Mask) Set(row, col int, v uint8) {
	m.Pix[row*m.Width+col] = v
}

// Foreground counts the nonzero cells
func (m *Mask) Foreground() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Gray returns the mask as an 8-bit grayscale image sharing the pixel buffer
func (m *Mask) Gray() *image.Gray {
	return &image.Gray{
		Pix:    m.Pix,
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// DescriptorRow is one output row: the shape descriptors of a single contour
type DescriptorRow struct {
	// ParticleNumber is the index of the particle in the input file
	ParticleNumber int

	// ContourNumber is the index of the contour within its particle
	ContourNumber int

	// GlobalContour is the run-wide contour counter used to name crop images
	GlobalContour int

	AreaFromMoment float64
	PolygonArea    float64
	ArcLength      float64

	// FeretX and FeretY are the bounding-box origin
	FeretX int
	FeretY int

	Convexity   float64
	AspectRatio float64
	Elongation  float64
}
