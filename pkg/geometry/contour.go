package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"dicomstack/internal/models"
	"dicomstack/pkg/contour"
)

// Polyline is a closed world-space outline: the last point connects back to
// the first.
type Polyline struct {
	Points []r3.Vec
}

// Segments returns the point index pairs of every edge, including the one
// closing the loop.
func (p Polyline) Segments() [][2]int {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	segs := make([][2]int, n)
	for i := 0; i < n; i++ {
		segs[i] = [2]int{i, (i + 1) % n}
	}
	return segs
}

// MapContour maps a pixel-space contour of frame f into world space. The
// array must be (2, N) with x coordinates in the first row and y coordinates
// in the second, N >= 2. Any other shape yields an error and no points; a
// contour is optional, so callers drop the overlay and keep the slice.
func MapContour(f models.Frame, arr contour.Array) (Polyline, error) {
	xs, ys, err := arr.Points()
	if err != nil {
		return Polyline{}, fmt.Errorf("geometry: contour for %s: %w", f.FilePath, err)
	}

	transform := Affine(f)
	points := make([]r3.Vec, len(xs))
	for i := range xs {
		points[i] = PixelToWorld(f, transform, xs[i], ys[i])
	}

	return Polyline{Points: points}, nil
}
