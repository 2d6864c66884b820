// Package geometry places DICOM slices and their contours in patient (world)
// space. All functions are pure; transforms are recomputed on every call.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"dicomstack/internal/models"
)

// RowDirection returns the direction cosines of the image rows (the first
// three ImageOrientationPatient values).
func RowDirection(f models.Frame) r3.Vec {
	o := f.ImageOrientation
	return r3.Vec{X: o[0], Y: o[1], Z: o[2]}
}

// ColumnDirection returns the direction cosines of the image columns.
func ColumnDirection(f models.Frame) r3.Vec {
	o := f.ImageOrientation
	return r3.Vec{X: o[3], Y: o[4], Z: o[5]}
}

// Normal returns row × column, the through-plane direction.
func Normal(f models.Frame) r3.Vec {
	return r3.Cross(RowDirection(f), ColumnDirection(f))
}

// Position returns the patient-space position of the first pixel.
func Position(f models.Frame) r3.Vec {
	p := f.ImagePosition
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// PixelScale returns the per-axis scale a renderer applies to the image
// plane: column spacing along x, row spacing along y.
func PixelScale(f models.Frame) r3.Vec {
	return r3.Vec{X: f.PixelSpacing[1], Y: f.PixelSpacing[0], Z: 1}
}

// Affine builds the 4x4 transform from image-plane millimetres to world
// space. Its columns are the row direction, the column direction, their
// cross product and the image position. The directions are used as given;
// DICOM guarantees they are orthonormal.
func Affine(f models.Frame) *mat.Dense {
	row := RowDirection(f)
	col := ColumnDirection(f)
	n := r3.Cross(row, col)
	p := Position(f)

	return mat.NewDense(4, 4, []float64{
		row.X, col.X, n.X, p.X,
		row.Y, col.Y, n.Y, p.Y,
		row.Z, col.Z, n.Z, p.Z,
		0, 0, 0, 1,
	})
}

// Apply maps an image-plane point (in mm) through an affine transform.
func Apply(transform mat.Matrix, local r3.Vec) r3.Vec {
	in := mat.NewVecDense(4, []float64{local.X, local.Y, local.Z, 1})
	var out mat.VecDense
	out.MulVec(transform, in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// PixelToWorld maps a pixel coordinate (x along columns, y along rows) of
// frame f to world space.
func PixelToWorld(f models.Frame, transform mat.Matrix, x, y float64) r3.Vec {
	local := r3.Vec{X: x * f.PixelSpacing[1], Y: y * f.PixelSpacing[0]}
	return Apply(transform, local)
}

// Corners returns the world-space corners of the image in the order
// top-left, top-right, bottom-right, bottom-left.
func Corners(f models.Frame) [4]r3.Vec {
	t := Affine(f)
	w := float64(f.Columns)
	h := float64(f.Rows)
	return [4]r3.Vec{
		PixelToWorld(f, t, 0, 0),
		PixelToWorld(f, t, w, 0),
		PixelToWorld(f, t, w, h),
		PixelToWorld(f, t, 0, h),
	}
}

// Flatten returns the transform's 16 elements in row-major order.
func Flatten(transform mat.Matrix) [16]float64 {
	var out [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = transform.At(i, j)
		}
	}
	return out
}

// Parallel reports whether two plane normals agree within tol radians.
// Opposite normals describe the same family of planes and count as parallel.
func Parallel(a, b r3.Vec, tol float64) bool {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return false
	}
	cos := math.Abs(r3.Dot(a, b)) / (na * nb)
	if cos > 1 {
		cos = 1
	}
	return math.Acos(cos) <= tol
}
