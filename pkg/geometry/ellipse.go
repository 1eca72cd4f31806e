package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinEllipsePoints is the number of points needed to fit an ellipse
const MinEllipsePoints = 5

// ErrEllipseUnavailable is returned when no ellipse can be fitted
var ErrEllipseUnavailable = errors.New("ellipse unavailable")

// Ellipse is a fitted ellipse. Width is the minor and Height the major
// diameter; Angle is the orientation of the major axis in degrees.
type Ellipse struct {
	CenterX, CenterY float64
	Width, Height    float64
	Angle            float64
}

// Elongation returns the ratio of the major to the minor diameter
func (e Ellipse) Elongation() float64 {
	return e.Height / e.Width
}

// FitEllipse fits an ellipse to pts in the least-squares sense.
//
// The conic A x² + B xy + C y² + D x + E y + F = 0 is fitted with the
// ellipse-specific constraint 4AC - B² = 1 using the numerically stable
// block formulation of Halíř and Flusser. Points are centred and scaled
// first so large image coordinates keep the scatter matrix well conditioned.
func FitEllipse(pts []image.Point) (Ellipse, error) {
	n := len(pts)
	if n < MinEllipsePoints {
		return Ellipse{}, fmt.Errorf("%w: %d points, need %d", ErrEllipseUnavailable, n, MinEllipsePoints)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range pts {
		xs[i], ys[i] = float64(p.X), float64(p.Y)
	}
	mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)
	scale := math.Max(stat.StdDev(xs, nil), stat.StdDev(ys, nil))
	if scale == 0 || math.IsNaN(scale) {
		return Ellipse{}, fmt.Errorf("%w: points coincide", ErrEllipseUnavailable)
	}

	// Quadratic and linear parts of the design matrix
	d1 := mat.NewDense(n, 3, nil)
	d2 := mat.NewDense(n, 3, nil)
	for i := range xs {
		u := (xs[i] - mx) / scale
		v := (ys[i] - my) / scale
		d1.SetRow(i, []float64{u * u, u * v, v * v})
		d2.SetRow(i, []float64{u, v, 1})
	}

	var s1, s2, s3 mat.Dense
	s1.Mul(d1.T(), d1)
	s2.Mul(d1.T(), d2)
	s3.Mul(d2.T(), d2)

	var s3inv mat.Dense
	if err := s3inv.Inverse(&s3); err != nil {
		return Ellipse{}, fmt.Errorf("%w: singular scatter matrix: %v", ErrEllipseUnavailable, err)
	}

	// Linear coefficients as a function of the quadratic ones
	var t mat.Dense
	t.Mul(&s3inv, s2.T())
	t.Scale(-1, &t)

	var m mat.Dense
	m.Mul(&s2, &t)
	m.Add(&s1, &m)

	// Premultiply by the inverse of the constraint matrix
	c := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		c.Set(0, j, m.At(2, j)/2)
		c.Set(1, j, -m.At(1, j))
		c.Set(2, j, m.At(0, j)/2)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenRight); !ok {
		return Ellipse{}, fmt.Errorf("%w: eigen decomposition failed", ErrEllipseUnavailable)
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	best := -1
	for k := 0; k < 3; k++ {
		a, b, cc := real(vecs.At(0, k)), real(vecs.At(1, k)), real(vecs.At(2, k))
		if 4*a*cc-b*b > 0 {
			best = k
			break
		}
	}
	if best < 0 {
		return Ellipse{}, fmt.Errorf("%w: no elliptic solution", ErrEllipseUnavailable)
	}

	a1 := mat.NewVecDense(3, []float64{
		real(vecs.At(0, best)), real(vecs.At(1, best)), real(vecs.At(2, best)),
	})
	var a2 mat.VecDense
	a2.MulVec(&t, a1)

	e, err := conicToEllipse(a1.AtVec(0), a1.AtVec(1), a1.AtVec(2), a2.AtVec(0), a2.AtVec(1), a2.AtVec(2))
	if err != nil {
		return Ellipse{}, err
	}

	e.CenterX = e.CenterX*scale + mx
	e.CenterY = e.CenterY*scale + my
	e.Width *= scale
	e.Height *= scale
	return e, nil
}

// conicToEllipse converts general conic coefficients to centre, diameters and angle
func conicToEllipse(a, b, c, d, e, f float64) (Ellipse, error) {
	disc := b*b - 4*a*c
	if disc >= 0 {
		return Ellipse{}, fmt.Errorf("%w: conic is not an ellipse", ErrEllipseUnavailable)
	}

	x0 := (2*c*d - b*e) / disc
	y0 := (2*a*e - b*d) / disc

	num := 2 * (a*e*e + c*d*d - b*d*e + disc*f)
	root := math.Hypot(a-c, b)
	s1 := -math.Sqrt(num*((a+c)+root)) / disc
	s2 := -math.Sqrt(num*((a+c)-root)) / disc
	if math.IsNaN(s1) || math.IsNaN(s2) || s1 <= 0 || s2 <= 0 {
		return Ellipse{}, fmt.Errorf("%w: imaginary ellipse", ErrEllipseUnavailable)
	}

	// The minor axis follows the eigenvector of the larger eigenvalue of the
	// quadratic form, the major axis is perpendicular to it
	if a < 0 {
		a, b, c = -a, -b, -c
	}
	theta := math.Atan2(b, a-c)/2 + math.Pi/2
	theta = math.Mod(theta+math.Pi, math.Pi)

	major, minor := math.Max(s1, s2), math.Min(s1, s2)
	return Ellipse{
		CenterX: x0,
		CenterY: y0,
		Width:   2 * minor,
		Height:  2 * major,
		Angle:   theta * 180 / math.Pi,
	}, nil
}
