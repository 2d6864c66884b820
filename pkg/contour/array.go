// Package contour decodes the numeric arrays that hold per-slice contour
// outlines in pixel coordinates.
package contour

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio"
)

// ErrShape is returned when an array is not a (2, N) table of x and y
// coordinates with at least two points.
var ErrShape = errors.New("contour: array must have shape (2, N) with N >= 2")

// Array is a decoded n-dimensional array with its data in row-major order.
type Array struct {
	Shape []int
	Data  []float64
}

// Points splits a (2, N) array into its x and y rows.
func (a Array) Points() (xs, ys []float64, err error) {
	if len(a.Shape) != 2 || a.Shape[0] != 2 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrShape, a.Shape)
	}
	n := a.Shape[1]
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: got %d points", ErrShape, n)
	}
	if len(a.Data) != 2*n {
		return nil, nil, fmt.Errorf("contour: shape %v does not match %d values", a.Shape, len(a.Data))
	}
	return a.Data[:n], a.Data[n:], nil
}

// Reader loads an array from a file.
type Reader interface {
	ReadArray(path string) (Array, error)
}

// NpyReader reads NumPy .npy files holding floating point or integer data.
// Values are converted to float64.
type NpyReader struct{}

// ReadArray decodes the .npy file at path. Fortran-ordered 2-D arrays are
// converted to row-major order.
func (NpyReader) ReadArray(path string) (Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return Array{}, fmt.Errorf("contour: opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return Array{}, fmt.Errorf("contour: reading header of %s: %w", path, err)
	}

	shape := append([]int(nil), r.Header.Descr.Shape...)

	data, err := readFloats(r)
	if err != nil {
		return Array{}, fmt.Errorf("contour: reading data of %s: %w", path, err)
	}

	size := 1
	for _, d := range shape {
		size *= d
	}
	if size != len(data) {
		return Array{}, fmt.Errorf("contour: %s: shape %v does not match %d values", path, shape, len(data))
	}

	if r.Header.Descr.Fortran && len(shape) == 2 {
		data = rowMajor(data, shape[0], shape[1])
	}

	return Array{Shape: shape, Data: data}, nil
}

// readFloats reads the array body according to its on-disk element type.
func readFloats(r *npyio.Reader) ([]float64, error) {
	kind := strings.TrimLeft(r.Header.Descr.Type, "<>|=")
	switch kind {
	case "f8":
		var data []float64
		err := r.Read(&data)
		return data, err
	case "f4":
		var raw []float32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case "i8":
		var raw []int64
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case "i4":
		var raw []int32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case "i2":
		var raw []int16
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case "u2":
		var raw []uint16
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case "u4":
		var raw []uint32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	}
	return nil, fmt.Errorf("unsupported element type %q", r.Header.Descr.Type)
}

func widen[T float32 | int64 | int32 | int16 | uint16 | uint32](raw []T) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

// rowMajor reorders column-major data of a rows x cols array.
func rowMajor(data []float64, rows, cols int) []float64 {
	out := make([]float64, len(data))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = data[j*rows+i]
		}
	}
	return out
}
