package dicomio

import (
	"errors"
	"fmt"
	"strings"

	"dicomstack/internal/models"
)

// ErrIncompleteFrame is wrapped by every error reporting a frame that lacks
// one of the tags required for spatial placement.
var ErrIncompleteFrame = errors.New("dicomio: incomplete frame")

// Tags holds the subset of DICOM attributes needed to order and place a
// slice. Each attribute is read independently so that a missing tag is
// reported per field rather than failing the whole record.
type Tags struct {
	ImagePosition    Field[[3]float64]
	ImageOrientation Field[[6]float64]
	PixelSpacing     Field[[2]float64]
	InstanceNumber   Field[int]
	Rows             Field[int]
	Columns          Field[int]
}

// MissingFieldsError lists the attributes that prevented a frame from being
// built.
type MissingFieldsError struct {
	Path   string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("dicomio: %s: missing %s", e.Path, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrIncompleteFrame
}

// Frame turns the decoded tags into a Frame for the file at path. The
// decision is all or nothing: if any attribute is absent, or the raster
// dimensions are not positive, no frame is produced.
func (t Tags) Frame(path string) (models.Frame, error) {
	var missing []string

	pos, ok := t.ImagePosition.Get()
	if !ok {
		missing = append(missing, "ImagePositionPatient")
	}
	orient, ok := t.ImageOrientation.Get()
	if !ok {
		missing = append(missing, "ImageOrientationPatient")
	}
	spacing, ok := t.PixelSpacing.Get()
	if !ok {
		missing = append(missing, "PixelSpacing")
	}
	instance, ok := t.InstanceNumber.Get()
	if !ok {
		missing = append(missing, "InstanceNumber")
	}
	rows, ok := t.Rows.Get()
	if !ok || rows <= 0 {
		missing = append(missing, "Rows")
	}
	cols, ok := t.Columns.Get()
	if !ok || cols <= 0 {
		missing = append(missing, "Columns")
	}

	if len(missing) > 0 {
		return models.Frame{}, &MissingFieldsError{Path: path, Fields: missing}
	}

	return models.Frame{
		FilePath:         path,
		InstanceNumber:   instance,
		ImagePosition:    pos,
		ImageOrientation: orient,
		PixelSpacing:     spacing,
		Rows:             rows,
		Columns:          cols,
	}, nil
}
