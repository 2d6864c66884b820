// Package dicomtest writes small DICOM fixtures for tests.
package dicomtest

import (
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Slice describes the spatial attributes written into a fixture. Omit lists
// tags that should be left out of the file.
type Slice struct {
	InstanceNumber   int
	ImagePosition    [3]float64
	ImageOrientation [6]float64
	PixelSpacing     [2]float64
	Rows             int
	Columns          int
	Omit             []tag.Tag
}

// Axial returns a valid axial slice at the given instance number and z.
func Axial(instance int, z float64) Slice {
	return Slice{
		InstanceNumber:   instance,
		ImagePosition:    [3]float64{-100, -100, z},
		ImageOrientation: [6]float64{1, 0, 0, 0, 1, 0},
		PixelSpacing:     [2]float64{1.5, 1.25},
		Rows:             8,
		Columns:          8,
	}
}

// WriteFile writes s as a DICOM file without pixel data.
func WriteFile(t testing.TB, path string, s Slice) {
	t.Helper()

	omitted := make(map[tag.Tag]bool, len(s.Omit))
	for _, o := range s.Omit {
		omitted[o] = true
	}

	elements := []*dicom.Element{
		mustNewElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4." + strconv.Itoa(s.InstanceNumber)}),
		mustNewElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
	}

	body := []struct {
		tag  tag.Tag
		data any
	}{
		{tag.Modality, []string{"MR"}},
		{tag.InstanceNumber, []string{strconv.Itoa(s.InstanceNumber)}},
		{tag.ImagePositionPatient, decimals(s.ImagePosition[:])},
		{tag.ImageOrientationPatient, decimals(s.ImageOrientation[:])},
		{tag.Rows, []int{s.Rows}},
		{tag.Columns, []int{s.Columns}},
		{tag.PixelSpacing, decimals(s.PixelSpacing[:])},
	}
	for _, b := range body {
		if omitted[b.tag] {
			continue
		}
		elements = append(elements, mustNewElement(t, b.tag, b.data))
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := dicom.Write(f, dicom.Dataset{Elements: elements}); err != nil {
		t.Fatalf("Failed to write DICOM fixture %s: %v", path, err)
	}
}

func mustNewElement(t testing.TB, tg tag.Tag, data any) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, data)
	if err != nil {
		t.Fatalf("Failed to build element %v: %v", tg, err)
	}
	return el
}

func decimals(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%.6f", v)
	}
	return out
}
