package descriptors

import (
	"errors"
	"image"
	"math"

	"pmpshapes/internal/models"
	"pmpshapes/pkg/geometry"
)

// ElongationUnavailable is reported when no ellipse can be fitted to a contour
const ElongationUnavailable = 999

// Descriptor holds the shape measures of one contour
type Descriptor struct {
	Moments     geometry.Moments
	PolygonArea float64
	ArcLength   float64
	Rect        image.Rectangle
	HullArea    float64
	Convexity   float64
	AspectRatio float64
	Elongation  float64

	// EllipseErr is set when Elongation holds the sentinel
	EllipseErr error
}

// Describe computes the shape descriptors of a contour.
//
// Convexity is the moment area over the convex hull area and is NaN when the
// hull has no area. Aspect ratio is bounding box width over height; with
// integerAspect the quotient is truncated as the instrument software does.
// Elongation is the major/minor ratio of the best-fit ellipse, or
// ElongationUnavailable when the contour has fewer than five points or the
// fit is degenerate.
func Describe(c geometry.Contour, integerAspect bool) Descriptor {
	d := Descriptor{
		Moments:     geometry.PolygonMoments(c.Points),
		PolygonArea: geometry.ContourArea(c.Points),
		ArcLength:   geometry.ArcLength(c.Points, true),
		Rect:        geometry.BoundingRect(c.Points),
		Elongation:  ElongationUnavailable,
	}

	d.HullArea = geometry.ContourArea(geometry.ConvexHull(c.Points))
	if d.HullArea > 0 {
		d.Convexity = d.Moments.M00 / d.HullArea
	} else {
		d.Convexity = math.NaN()
	}

	w, h := d.Rect.Dx(), d.Rect.Dy()
	if integerAspect {
		d.AspectRatio = float64(w / h)
	} else {
		d.AspectRatio = float64(w) / float64(h)
	}

	e, err := geometry.FitEllipse(c.Points)
	if err != nil {
		d.EllipseErr = err
	} else {
		d.Elongation = e.Elongation()
	}

	return d
}

// EllipseUnavailable reports whether the elongation is the sentinel value
func (d Descriptor) EllipseUnavailable() bool {
	return errors.Is(d.EllipseErr, geometry.ErrEllipseUnavailable)
}

// Row assembles the output row for this descriptor
func (d Descriptor) Row(particle, contour, global int) models.DescriptorRow {
	return models.DescriptorRow{
		ParticleNumber: particle,
		ContourNumber:  contour,
		GlobalContour:  global,
		AreaFromMoment: d.Moments.M00,
		PolygonArea:    d.PolygonArea,
		ArcLength:      d.ArcLength,
		FeretX:         d.Rect.Min.X,
		FeretY:         d.Rect.Min.Y,
		Convexity:      d.Convexity,
		AspectRatio:    d.AspectRatio,
		Elongation:     d.Elongation,
	}
}
