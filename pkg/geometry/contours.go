// Package geometry provides the contour and shape primitives used to
// describe particle masks: binarization, border following, polygon
// measures, convex hulls, moments and ellipse fitting.
package geometry

import (
	"image"
	"image/color"
)

// Contour is a closed border traced in a binary image
type Contour struct {
	// Points are the border vertices after collinear points are removed
	Points []image.Point

	// Hole is true for the inner border of a hole
	Hole bool

	// Parent is the index of the enclosing contour, -1 for top-level borders
	Parent int
}

// Threshold returns a binary copy of img: values greater than thresh become
// maxVal, everything else 0
func Threshold(img *image.Gray, thresh, maxVal uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y > thresh {
				out.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
	}
	return out
}

// Binarize maps every nonzero pixel to 255
func Binarize(img *image.Gray) *image.Gray {
	return Threshold(img, 0, 255)
}

// Neighbour directions, counter-clockwise starting east (rows grow downward)
const (
	dirE = iota
	dirNE
	dirN
	dirNW
	dirW
	dirSW
	dirS
	dirSE
)

var dirDelta = [8][2]int{
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
}

type borderInfo struct {
	hole   bool
	parent int32
}

// FindContours traces every outer and hole border of the nonzero region of
// img with the Suzuki-Abe border following algorithm. Contours are returned
// in raster-scan order of their starting pixel together with their nesting.
// Runs of collinear points are reduced to their end points.
func FindContours(img *image.Gray) []Contour {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// One pixel of zero padding frames the image
	pw, ph := w+2, h+2
	f := make([]int32, pw*ph)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y != 0 {
				f[(y+1)*pw+x+1] = 1
			}
		}
	}

	var off [8]int
	for d, dd := range dirDelta {
		off[d] = dd[0]*pw + dd[1]
	}

	toPoint := func(idx int) image.Point {
		return image.Pt(b.Min.X+idx%pw-1, b.Min.Y+idx/pw-1)
	}

	// borders is indexed by border number; 1 is the frame
	borders := []borderInfo{{}, {hole: true}}
	nbd := int32(1)
	var contours []Contour

	for i := 1; i < ph-1; i++ {
		lnbd := int32(1)
		for j := 1; j < pw-1; j++ {
			idx := i*pw + j
			v := f[idx]
			if v == 0 {
				continue
			}

			start, hole, from := false, false, 0
			if v == 1 && f[idx-1] == 0 {
				start, from = true, dirW
			} else if v >= 1 && f[idx+1] == 0 {
				start, hole, from = true, true, dirE
				if v > 1 {
					lnbd = v
				}
			}

			if start {
				nbd++
				prev := borders[lnbd]
				parent := lnbd
				if prev.hole == hole {
					parent = prev.parent
				}
				borders = append(borders, borderInfo{hole: hole, parent: parent})

				chain := follow(f, off, idx, from, nbd)
				pts := make([]image.Point, len(chain))
				for k, c := range chain {
					pts[k] = toPoint(c)
				}

				p := -1
				if parent > 1 {
					p = int(parent) - 2
				}
				contours = append(contours, Contour{
					Points: approxSimple(pts),
					Hole:   hole,
					Parent: p,
				})
			}

			if v := f[idx]; v != 1 {
				if v < 0 {
					v = -v
				}
				lnbd = v
			}
		}
	}

	return contours
}

// follow traces one border starting at idx, labelling it nbd, and returns
// the visited pixel indices
func follow(f []int32, off [8]int, idx, from int, nbd int32) []int {
	// Clockwise search for the first nonzero neighbour
	d1 := -1
	for k := 0; k < 8; k++ {
		d := (from - k + 8) % 8
		if f[idx+off[d]] != 0 {
			d1 = d
			break
		}
	}
	if d1 < 0 {
		f[idx] = -nbd
		return []int{idx}
	}

	first := idx + off[d1]
	p3, back := idx, d1
	var chain []int

	for {
		chain = append(chain, p3)

		// Counter-clockwise search starting after the previous pixel
		eastZero := false
		d4 := back
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if f[p3+off[d]] != 0 {
				d4 = d
				break
			}
			if d == dirE {
				eastZero = true
			}
		}

		if eastZero {
			f[p3] = -nbd
		} else if f[p3] == 1 {
			f[p3] = nbd
		}

		p4 := p3 + off[d4]
		if p4 == idx && p3 == first {
			return chain
		}
		back = (d4 + 4) % 8
		p3 = p4
	}
}

// approxSimple drops points lying inside straight horizontal, vertical or
// diagonal runs of a closed chain
func approxSimple(pts []image.Point) []image.Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	out := make([]image.Point, 0, n)
	for k, p := range pts {
		prev := pts[(k+n-1)%n]
		next := pts[(k+1)%n]
		if p.Sub(prev) != next.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, pts[0])
	}
	return out
}
