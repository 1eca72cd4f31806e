// Package reconstruction rebuilds dense particle masks from the sparse pixel
// lists stored in particle files.
package reconstruction

import (
	"errors"
	"fmt"
	"image"

	"pmpshapes/internal/models"
)

const (
	// InnerMargin is added to every offset coordinate so no pixel lands on the border
	InnerMargin = 5

	// OuterMargin is added to the coordinate extent to size the mask
	OuterMargin = 10

	// Foreground and Background are the mask intensities
	Foreground = 255
	Background = 0

	// DefaultMaxPixels bounds the size of a reconstructed mask
	DefaultMaxPixels = 1 << 24
)

var (
	// ErrEmptyPixelSet is returned for a particle without coordinates
	ErrEmptyPixelSet = errors.New("particle has no pixels")

	// ErrCoordinateMismatch is returned when x and y differ in length
	ErrCoordinateMismatch = errors.New("x and y coordinate counts differ")

	// ErrMaskTooLarge is returned when the coordinate extent exceeds the pixel limit
	ErrMaskTooLarge = errors.New("mask exceeds pixel limit")
)

// Reconstructor converts particle pixel lists into raster masks
type Reconstructor struct {
	// maxPixels is the largest width*height accepted
	maxPixels int64
}

// NewReconstructor creates a reconstructor that rejects masks larger than
// maxPixels cells. A non-positive limit selects DefaultMaxPixels.
func NewReconstructor(maxPixels int) *Reconstructor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Reconstructor{maxPixels: int64(maxPixels)}
}

// ReconstructParticle rasterizes the coordinates of a decoded particle.
// All stored coordinates are used, including the extra trailing pair.
func (r *Reconstructor) ReconstructParticle(p *models.Particle) (*models.Mask, error) {
	mask, err := r.Reconstruct(p.X, p.Y)
	if err != nil {
		return nil, fmt.Errorf("particle %d: %w", p.Index, err)
	}
	return mask, nil
}

// MaxPixels returns the largest mask accepted
func (r *Reconstructor) MaxPixels() int64 {
	return r.maxPixels
}

// Size returns the dimensions of the mask Reconstruct would allocate for
// the coordinates, or ErrMaskTooLarge when it exceeds the pixel limit.
func (r *Reconstructor) Size(xs, ys []int32) (width, height int64, err error) {
	if len(xs) != len(ys) {
		return 0, 0, fmt.Errorf("%w: %d x, %d y", ErrCoordinateMismatch, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return 0, 0, ErrEmptyPixelSet
	}

	xMin, xMax := extent(xs)
	yMin, yMax := extent(ys)

	// Each extent fits in int64; the product may not, so divide instead
	width = xMax - xMin + OuterMargin
	height = yMax - yMin + OuterMargin
	if width > r.maxPixels/height {
		return 0, 0, fmt.Errorf("%w: %dx%d > %d", ErrMaskTooLarge, width, height, r.maxPixels)
	}
	return width, height, nil
}

// Reconstruct builds the mask for index-aligned x/y coordinates.
//
// Coordinates are shifted so the minimum lands on InnerMargin, the mask is
// (extent + OuterMargin) wide and high, and each pair sets the cell at
// row y, column x to Foreground. Duplicate pairs are harmless.
func (r *Reconstructor) Reconstruct(xs, ys []int32) (*models.Mask, error) {
	width, height, err := r.Size(xs, ys)
	if err != nil {
		return nil, err
	}
	xMin, _ := extent(xs)
	yMin, _ := extent(ys)

	mask := &models.Mask{
		Pix:    make([]uint8, width*height),
		Width:  int(width),
		Height: int(height),
		Origin: image.Pt(int(xMin-InnerMargin), int(yMin-InnerMargin)),
	}

	for i := range xs {
		col := int(int64(xs[i]) - xMin + InnerMargin)
		row := int(int64(ys[i]) - yMin + InnerMargin)
		mask.Set(row, col, Foreground)
	}

	return mask, nil
}

// extent returns the minimum and maximum of a non-empty slice
func extent(v []int32) (lo, hi int64) {
	lo, hi = int64(v[0]), int64(v[0])
	for _, x := range v[1:] {
		if int64(x) < lo {
			lo = int64(x)
		}
		if int64(x) > hi {
			hi = int64(x)
		}
	}
	return lo, hi
}
