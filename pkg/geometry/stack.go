package geometry

import (
	"gonum.org/v1/gonum/stat"

	"dicomstack/internal/models"
)

// StackSpacing returns the mean and standard deviation of the through-plane
// gaps between consecutive frames, taken in the given order. Fewer than two
// frames give zeros.
func StackSpacing(frames []models.Frame) (mean, std float64) {
	if len(frames) < 2 {
		return 0, 0
	}

	gaps := make([]float64, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		gaps[i-1] = frames[i].Z() - frames[i-1].Z()
	}
	if len(gaps) == 1 {
		return gaps[0], 0
	}
	return stat.MeanStdDev(gaps, nil)
}
