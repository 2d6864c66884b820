package models

// Frame represents a single DICOM image slice with the metadata needed to
// place it in patient space. A Frame only exists when every field below was
// read from the source file; nothing here is ever defaulted.
type Frame struct {
	// FilePath is the path of the DICOM image file
	FilePath string

	// ContourFilePath is the path of the companion contour array, empty when
	// the image has none
	ContourFilePath string

	// InstanceNumber orders frames in time within one series
	InstanceNumber int

	// ImagePosition is the patient-space position (mm) of the top-left pixel
	ImagePosition [3]float64

	// ImageOrientation holds the row direction cosines followed by the
	// column direction cosines
	ImageOrientation [6]float64

	// PixelSpacing is (row spacing, column spacing) in mm per pixel, in the
	// order DICOM stores it
	PixelSpacing [2]float64

	// Rows and Columns are the pixel dimensions of the image
	Rows    int
	Columns int
}

// HasContour reports whether a companion contour file was found for the frame.
func (f Frame) HasContour() bool {
	return f.ContourFilePath != ""
}

// Z returns the through-plane coordinate used for stacking.
func (f Frame) Z() float64 {
	return f.ImagePosition[2]
}

// Series is one time-ordered acquisition. Path is the series directory and
// doubles as its identity; Frames is sorted by InstanceNumber and never empty.
type Series struct {
	Path   string
	Frames []Frame
}

// Len returns the number of frames (timepoints) in the series.
func (s Series) Len() int {
	return len(s.Frames)
}
