// Package dicomio reads the handful of DICOM attributes needed to order slices
// in time and place them in patient space.
package dicomio

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomstack/internal/models"
)

var dsPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// Decoder decodes the spatial tags of one image file. An error means the file
// could not be parsed at all; missing attributes are reported through Tags.
type Decoder interface {
	Decode(path string) (Tags, error)
}

// FileDecoder decodes DICOM files from disk, skipping pixel data.
type FileDecoder struct{}

// NewFileDecoder returns a Decoder backed by github.com/suyashkumar/dicom.
func NewFileDecoder() *FileDecoder {
	return &FileDecoder{}
}

// Decode parses the file at path. Panics raised by the parser on malformed
// input are turned into errors.
func (d *FileDecoder) Decode(path string) (tags Tags, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags = Tags{}
			err = fmt.Errorf("dicomio: parsing %s: %v", path, r)
		}
	}()

	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Tags{}, fmt.Errorf("dicomio: parsing %s: %w", path, err)
	}

	return TagsFromDataset(ds), nil
}

// ReadFrame decodes path with d and applies the all-or-nothing frame rule.
func ReadFrame(d Decoder, path string) (models.Frame, error) {
	tags, err := d.Decode(path)
	if err != nil {
		return models.Frame{}, err
	}
	return tags.Frame(path)
}

// TagsFromDataset extracts the spatial attributes from a parsed dataset.
func TagsFromDataset(ds dicom.Dataset) Tags {
	var tags Tags

	if v, ok := floatValues(ds, tag.ImagePositionPatient, 3); ok {
		tags.ImagePosition = Present([3]float64{v[0], v[1], v[2]})
	}
	if v, ok := floatValues(ds, tag.ImageOrientationPatient, 6); ok {
		tags.ImageOrientation = Present([6]float64{v[0], v[1], v[2], v[3], v[4], v[5]})
	}
	if v, ok := floatValues(ds, tag.PixelSpacing, 2); ok {
		tags.PixelSpacing = Present([2]float64{v[0], v[1]})
	}
	if v, ok := intValue(ds, tag.InstanceNumber); ok {
		tags.InstanceNumber = Present(v)
	}
	if v, ok := intValue(ds, tag.Rows); ok {
		tags.Rows = Present(v)
	}
	if v, ok := intValue(ds, tag.Columns); ok {
		tags.Columns = Present(v)
	}

	return tags
}

// floatValues returns the first n numeric values of an element. Decimal
// strings (DS) arrive as strings and are parsed here.
func floatValues(ds dicom.Dataset, t tag.Tag, n int) ([]float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}

	var out []float64
	switch el.Value.ValueType() {
	case dicom.Strings:
		for _, s := range dicom.MustGetStrings(el.Value) {
			v, ok := decimalString(s)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
	case dicom.Floats:
		for _, v := range dicom.MustGetFloats(el.Value) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			out = append(out, v)
		}
	case dicom.Ints:
		for _, v := range dicom.MustGetInts(el.Value) {
			out = append(out, float64(v))
		}
	default:
		return nil, false
	}

	if len(out) < n {
		return nil, false
	}
	return out[:n], true
}

// decimalString parses a DS value: an optional sign, digits with an optional
// decimal point, and an optional exponent. NaN, infinities and hex floats are
// rejected.
func decimalString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !dsPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// intValue returns the first value of an integer element. Integer strings (IS)
// are parsed.
func intValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return 0, false
	}

	switch el.Value.ValueType() {
	case dicom.Ints:
		v := dicom.MustGetInts(el.Value)
		if len(v) == 0 {
			return 0, false
		}
		return v[0], true
	case dicom.Strings:
		v := dicom.MustGetStrings(el.Value)
		if len(v) == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(v[0]))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
