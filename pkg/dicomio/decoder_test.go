package dicomio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomstack/internal/dicomtest"
)

func TestFileDecoderReadsSpatialTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	slice := dicomtest.Axial(7, 12.5)
	dicomtest.WriteFile(t, path, slice)

	frame, err := ReadFrame(NewFileDecoder(), path)
	require.NoError(t, err)

	require.Equal(t, path, frame.FilePath)
	require.Equal(t, 7, frame.InstanceNumber)
	require.InDeltaSlice(t, []float64{-100, -100, 12.5}, frame.ImagePosition[:], 1e-9)
	require.InDeltaSlice(t, []float64{1, 0, 0, 0, 1, 0}, frame.ImageOrientation[:], 1e-9)
	require.InDeltaSlice(t, []float64{1.5, 1.25}, frame.PixelSpacing[:], 1e-9)
	require.Equal(t, 8, frame.Rows)
	require.Equal(t, 8, frame.Columns)
}

func TestFileDecoderMissingTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nospacing.dcm")
	slice := dicomtest.Axial(1, 0)
	slice.Omit = []tag.Tag{tag.PixelSpacing}
	dicomtest.WriteFile(t, path, slice)

	tags, err := NewFileDecoder().Decode(path)
	require.NoError(t, err)
	require.False(t, tags.PixelSpacing.IsPresent())
	require.True(t, tags.ImagePosition.IsPresent())

	_, err = tags.Frame(path)
	require.True(t, errors.Is(err, ErrIncompleteFrame))
}

func TestFileDecoderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.dcm")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a dicom file"), 0644))

	_, err := NewFileDecoder().Decode(path)
	require.Error(t, err)
}

func TestFileDecoderMissingFile(t *testing.T) {
	_, err := NewFileDecoder().Decode(filepath.Join(t.TempDir(), "absent.dcm"))
	require.Error(t, err)
}

func TestFileDecoderRejectsNonFinitePosition(t *testing.T) {
	for _, z := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		path := filepath.Join(t.TempDir(), "nonfinite.dcm")
		dicomtest.WriteFile(t, path, dicomtest.Axial(1, z))

		tags, err := NewFileDecoder().Decode(path)
		require.NoError(t, err)
		require.False(t, tags.ImagePosition.IsPresent(), "z=%v", z)

		_, err = ReadFrame(NewFileDecoder(), path)
		require.True(t, errors.Is(err, ErrIncompleteFrame), "z=%v", z)
	}
}

func TestDecimalString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{" -100.000000 ", -100, true},
		{"+3", 3, true},
		{".5", 0.5, true},
		{"1e-3", 0.001, true},
		{"2.E+2", 200, true},
		{"NaN", 0, false},
		{"nan", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"0x1p-2", 0, false},
		{"1e999", 0, false},
		{"", 0, false},
		{"1,5", 0, false},
	}

	for _, tt := range tests {
		got, ok := decimalString(tt.in)
		if ok != tt.ok {
			t.Errorf("decimalString(%q): expected ok=%v, got %v", tt.in, tt.ok, ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("decimalString(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
