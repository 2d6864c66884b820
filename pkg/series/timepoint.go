package series

import (
	"github.com/mkmik/argsort"

	"dicomstack/internal/models"
)

// FramesForTimepoint collects frame t from every loaded series and returns
// them stacked by through-plane position (ImagePosition z, ascending). Series
// shorter than t+1 contribute nothing; an index outside every series gives an
// empty result. Ties keep series path order.
func (ix *Index) FramesForTimepoint(t int) []models.Frame {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	frames := []models.Frame{}
	if t < 0 {
		return frames
	}

	for _, key := range ix.keysLocked() {
		s := ix.series[key]
		if t < len(s.Frames) {
			frames = append(frames, s.Frames[t])
		}
	}

	order := argsort.SortSlice(frames, func(i, j int) bool {
		if frames[i].Z() != frames[j].Z() {
			return frames[i].Z() < frames[j].Z()
		}
		return i < j
	})

	stacked := make([]models.Frame, len(order))
	for i, idx := range order {
		stacked[i] = frames[idx]
	}
	return stacked
}

// NumberOfFrames returns the length of the longest loaded series, or zero
// when nothing is loaded. It bounds timepoint navigation.
func (ix *Index) NumberOfFrames() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	longest := 0
	for _, s := range ix.series {
		if len(s.Frames) > longest {
			longest = len(s.Frames)
		}
	}
	return longest
}
