package reconstruction

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pmpshapes/internal/models"
)

// TestReconstructScenario checks the worked example: x=[0,2,4,4], y=[0,0,3,3]
func TestReconstructScenario(t *testing.T) {
	r := NewReconstructor(0)
	mask, err := r.Reconstruct([]int32{0, 2, 4, 4}, []int32{0, 0, 3, 3})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if mask.Width != 14 || mask.Height != 13 {
		t.Fatalf("Expected 14x13 mask, got %dx%d", mask.Width, mask.Height)
	}

	want := map[[2]int]bool{{5, 5}: true, {5, 7}: true, {8, 9}: true}
	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			v := mask.At(row, col)
			if want[[2]int{row, col}] {
				if v != Foreground {
					t.Errorf("Expected foreground at (%d,%d), got %d", row, col, v)
				}
			} else if v != Background {
				t.Errorf("Expected background at (%d,%d), got %d", row, col, v)
			}
		}
	}

	if mask.Foreground() != 3 {
		t.Errorf("Expected 3 foreground cells, got %d", mask.Foreground())
	}
}

// TestReconstructSinglePoint verifies the degenerate single-pixel particle
func TestReconstructSinglePoint(t *testing.T) {
	r := NewReconstructor(0)
	mask, err := r.Reconstruct([]int32{-17, -17}, []int32{42, 42})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if mask.Width != OuterMargin || mask.Height != OuterMargin {
		t.Errorf("Expected %dx%d mask, got %dx%d", OuterMargin, OuterMargin, mask.Width, mask.Height)
	}
	if mask.Foreground() != 1 {
		t.Errorf("Expected one foreground cell, got %d", mask.Foreground())
	}
	if mask.At(InnerMargin, InnerMargin) != Foreground {
		t.Errorf("Expected foreground at (%d,%d)", InnerMargin, InnerMargin)
	}
	if mask.Origin.X != -17-InnerMargin || mask.Origin.Y != 42-InnerMargin {
		t.Errorf("Unexpected origin %v", mask.Origin)
	}
}

// TestReconstructRoundTrip verifies every source coordinate maps back to a foreground cell
func TestReconstructRoundTrip(t *testing.T) {
	xs := []int32{100, 101, 102, 100, 101, 102, 104, 110}
	ys := []int32{-50, -50, -50, -49, -49, -49, -45, -40}

	mask, err := NewReconstructor(0).Reconstruct(xs, ys)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	set := make(map[int]bool)
	for i := range xs {
		col := int(xs[i]) - mask.Origin.X
		row := int(ys[i]) - mask.Origin.Y
		if row < 0 || row >= mask.Height || col < 0 || col >= mask.Width {
			t.Fatalf("Coordinate (%d,%d) maps outside the mask", xs[i], ys[i])
		}
		if mask.At(row, col) != Foreground {
			t.Errorf("Coordinate (%d,%d) is not foreground", xs[i], ys[i])
		}
		set[row*mask.Width+col] = true
	}

	for idx, v := range mask.Pix {
		if !set[idx] && v != Background {
			t.Errorf("Cell %d should be background, got %d", idx, v)
		}
	}

	// No pixel touches the margins
	far := OuterMargin - InnerMargin
	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			border := row < InnerMargin || col < InnerMargin ||
				row > mask.Height-far || col > mask.Width-far
			if border && mask.At(row, col) != Background {
				t.Errorf("Foreground inside margin at (%d,%d)", row, col)
			}
		}
	}
}

// TestReconstructIdempotent verifies identical input yields identical masks
func TestReconstructIdempotent(t *testing.T) {
	xs := []int32{3, 9, 4, 4, 7}
	ys := []int32{1, 1, 6, 6, 2}
	r := NewReconstructor(0)

	a, err := r.Reconstruct(xs, ys)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	b, err := r.Reconstruct(xs, ys)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Masks differ (-first +second):\n%s", diff)
	}
}

// TestReconstructErrors verifies degenerate and oversized inputs are reported
func TestReconstructErrors(t *testing.T) {
	tests := []struct {
		name      string
		xs, ys    []int32
		maxPixels int
		want      error
	}{
		{"empty", nil, nil, 0, ErrEmptyPixelSet},
		{"mismatch", []int32{1, 2}, []int32{1}, 0, ErrCoordinateMismatch},
		{"too large", []int32{0, 100}, []int32{0, 100}, 1000, ErrMaskTooLarge},
		{"int32 extent", []int32{math.MinInt32, math.MaxInt32}, []int32{0, 0}, 0, ErrMaskTooLarge},
		{"wrapping product", []int32{math.MinInt32, math.MaxInt32}, []int32{0, 1<<31 - 10}, 0, ErrMaskTooLarge},
		{"wrapping product with high limit", []int32{math.MinInt32, math.MaxInt32}, []int32{math.MinInt32, math.MaxInt32}, math.MaxInt, ErrMaskTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReconstructor(tt.maxPixels).Reconstruct(tt.xs, tt.ys)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestSizeAtLimit verifies a mask of exactly the limit is accepted
func TestSizeAtLimit(t *testing.T) {
	r := NewReconstructor(20 * 12)
	w, h, err := r.Size([]int32{0, 10}, []int32{0, 2})
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if w != 20 || h != 12 {
		t.Errorf("Expected 20x12, got %dx%d", w, h)
	}
	if _, _, err := r.Size([]int32{0, 11}, []int32{0, 2}); !errors.Is(err, ErrMaskTooLarge) {
		t.Errorf("Expected ErrMaskTooLarge one column over the limit, got %v", err)
	}
	if r.MaxPixels() != 240 {
		t.Errorf("Expected limit 240, got %d", r.MaxPixels())
	}
}

// TestReconstructParticle verifies the particle wrapper uses every stored coordinate
func TestReconstructParticle(t *testing.T) {
	p := &models.Particle{Index: 3, PixelCount: 1, X: []int32{0, 6}, Y: []int32{0, 0}}
	mask, err := NewReconstructor(0).ReconstructParticle(p)
	if err != nil {
		t.Fatalf("ReconstructParticle failed: %v", err)
	}
	if mask.Width != 16 || mask.Height != 10 {
		t.Errorf("Expected 16x10 mask, got %dx%d", mask.Width, mask.Height)
	}
	if mask.At(5, 11) != Foreground {
		t.Error("Trailing coordinate was not rasterized")
	}

	_, err = NewReconstructor(0).ReconstructParticle(&models.Particle{Index: 8})
	if !errors.Is(err, ErrEmptyPixelSet) {
		t.Errorf("Expected ErrEmptyPixelSet, got %v", err)
	}
}
