package geometry

import (
	"image"
	"math"
	"sort"
)

// ContourArea returns the unsigned polygon area (shoelace formula)
func ContourArea(pts []image.Point) float64 {
	return math.Abs(signedArea(pts))
}

func signedArea(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		a += float64(p.X*q.Y - q.X*p.Y)
	}
	return a / 2
}

// ArcLength returns the perimeter of a closed polygon or the length of an open curve
func ArcLength(pts []image.Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var l float64
	for i := 1; i < n; i++ {
		l += dist(pts[i-1], pts[i])
	}
	if closed {
		l += dist(pts[n-1], pts[0])
	}
	return l
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// BoundingRect returns the smallest pixel rectangle containing every point.
// Max is exclusive, so a single point has a 1x1 rectangle.
func BoundingRect(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// ConvexHull returns the convex hull of pts in counter-clockwise order
// (Andrew's monotone chain). Collinear points on the hull are dropped.
func ConvexHull(pts []image.Point) []image.Point {
	sorted := append([]image.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	uniq := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// Moments holds the spatial moments of a polygon up to second order
type Moments struct {
	M00, M10, M01 float64
	M20, M11, M02 float64
}

// PolygonMoments computes the spatial moments of the region enclosed by
// a closed polygon using Green's theorem. The sign is normalised so M00
// is the non-negative area.
func PolygonMoments(pts []image.Point) Moments {
	var m Moments
	n := len(pts)
	if n < 3 {
		return m
	}

	for i := 0; i < n; i++ {
		x0, y0 := float64(pts[i].X), float64(pts[i].Y)
		x1, y1 := float64(pts[(i+1)%n].X), float64(pts[(i+1)%n].Y)
		c := x0*y1 - x1*y0

		m.M00 += c
		m.M10 += (x0 + x1) * c
		m.M01 += (y0 + y1) * c
		m.M20 += (x0*x0 + x0*x1 + x1*x1) * c
		m.M02 += (y0*y0 + y0*y1 + y1*y1) * c
		m.M11 += (2*x0*y0 + x0*y1 + x1*y0 + 2*x1*y1) * c
	}

	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	m.M20 /= 12
	m.M02 /= 12
	m.M11 /= 24

	if m.M00 < 0 {
		m = Moments{-m.M00, -m.M10, -m.M01, -m.M20, -m.M11, -m.M02}
	}
	return m
}

// Centroid returns the mass centre m10/m00, m01/m00. ok is false for a
// zero-area polygon.
func (m Moments) Centroid() (x, y float64, ok bool) {
	if m.M00 == 0 {
		return math.NaN(), math.NaN(), false
	}
	return m.M10 / m.M00, m.M01 / m.M00, true
}
