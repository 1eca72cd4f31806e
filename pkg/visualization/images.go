// Package visualization renders particle masks, annotated contour crops and
// descriptor plots.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// AnnotationLevel is the gray level used for drawn contours and centroids
const AnnotationLevel = 128

// CentroidRadius is the radius of the disc marking a contour's mass centre
const CentroidRadius = 4

// ParticleImagePath returns the path of the raw mask image of a particle
func ParticleImagePath(dir string, particle int) string {
	return filepath.Join(dir, fmt.Sprintf("particle_%d.png", particle))
}

// ContourImagePath returns the path of the crop image of a contour
func ContourImagePath(dir string, contour int) string {
	return filepath.Join(dir, fmt.Sprintf("contour_%d.png", contour))
}

// SavePNG encodes img as PNG at path, creating the parent directory
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return file.Close()
}

// Clone returns a copy of img with its own pixel buffer
func Clone(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

// Crop copies the part of img inside r into a new image whose bounds start at (0, 0)
func Crop(img *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(img.Bounds())
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			out.SetGray(x, y, img.GrayAt(r.Min.X+x, r.Min.Y+y))
		}
	}
	return out
}

// DrawPolygon draws the closed polygon pts with one-pixel lines
func DrawPolygon(img *image.Gray, pts []image.Point, level uint8) {
	n := len(pts)
	if n == 1 {
		img.SetGray(pts[0].X, pts[0].Y, color.Gray{Y: level})
		return
	}
	for i := 0; i < n; i++ {
		drawLine(img, pts[i], pts[(i+1)%n], level)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm
func drawLine(img *image.Gray, a, b image.Point, level uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	c := color.Gray{Y: level}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		img.SetGray(x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// FillCircle draws a filled disc centred on (cx, cy). Non-finite centres are ignored.
func FillCircle(img *image.Gray, cx, cy float64, r int, level uint8) {
	if math.IsNaN(cx) || math.IsNaN(cy) || math.IsInf(cx, 0) || math.IsInf(cy, 0) {
		return
	}
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	c := color.Gray{Y: level}
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				img.SetGray(x0+x, y0+y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
