package series

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"dicomstack/internal/models"
	"dicomstack/pkg/dicomio"
	"dicomstack/pkg/geometry"
)

// Load replaces the index contents with the named series under patientDir and
// reports whether at least one non-empty series was loaded.
//
// The index is cleared before anything is read. Names that do not resolve to
// a directory are skipped. Within a series every image file is decoded on its
// own: files that fail to parse or lack a required tag are skipped with a
// diagnostic and never abort the load. Series without a single valid frame
// are not stored.
func (ix *Index) Load(patientDir string, names []string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.clearLocked()
	loadID := uuid.NewString()
	logger := ix.logger.With("load", loadID)

	logger.Info("loading series", "patient", patientDir, "requested", len(names))

	for _, name := range names {
		seriesPath := filepath.Join(patientDir, name)
		if !isDir(seriesPath) {
			logger.Debug("skipping series that is not a directory", "path", seriesPath)
			continue
		}

		frames := ix.loadFrames(logger, seriesPath)
		if len(frames) == 0 {
			logger.Warn("series has no valid frames", "path", seriesPath)
			continue
		}

		sort.SliceStable(frames, func(i, j int) bool {
			if frames[i].InstanceNumber != frames[j].InstanceNumber {
				return frames[i].InstanceNumber < frames[j].InstanceNumber
			}
			return frames[i].FilePath < frames[j].FilePath
		})

		ix.series[seriesPath] = models.Series{Path: seriesPath, Frames: frames}
		logger.Info("loaded series", "path", seriesPath, "frames", len(frames))
	}

	if len(ix.series) == 0 {
		logger.Warn("no series loaded", "patient", patientDir)
		return false
	}

	ix.loadID = loadID
	ix.checkOrientationLocked(logger)
	return true
}

// loadFrames decodes every image file directly inside seriesPath.
func (ix *Index) loadFrames(logger *slog.Logger, seriesPath string) []models.Frame {
	entries, err := os.ReadDir(seriesPath)
	if err != nil {
		logger.Warn("failed to read series directory", "path", seriesPath, "error", err)
		return nil
	}

	var frames []models.Frame
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), ix.layout.ImageExtension) {
			continue
		}
		path := filepath.Join(seriesPath, e.Name())
		if !isRegular(path) {
			continue
		}

		frame, err := dicomio.ReadFrame(ix.decoder, path)
		if err != nil {
			if errors.Is(err, dicomio.ErrIncompleteFrame) {
				logger.Warn("discarding frame with missing tags", "error", err)
			} else {
				logger.Warn("skipping unreadable image", "path", path, "error", err)
			}
			continue
		}

		if contourPath := ix.contourPath(path); isRegular(contourPath) {
			frame.ContourFilePath = contourPath
		}
		frames = append(frames, frame)
	}
	return frames
}

// contourPath derives the companion contour file name for an image.
func (ix *Index) contourPath(imagePath string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + ix.layout.ContourSuffix + ix.layout.ContourExtension
	return filepath.Join(filepath.Dir(imagePath), name)
}

// checkOrientationLocked warns when loaded series do not share a slice
// orientation. Stacking by through-plane position assumes they do.
func (ix *Index) checkOrientationLocked(logger *slog.Logger) {
	keys := ix.keysLocked()
	if len(keys) < 2 {
		return
	}

	ref := ix.series[keys[0]]
	refNormal := geometry.Normal(ref.Frames[0])
	for _, key := range keys[1:] {
		s := ix.series[key]
		if !geometry.Parallel(refNormal, geometry.Normal(s.Frames[0]), ix.normalTolerance) {
			logger.Warn("series orientation differs from reference; stacking order may be meaningless",
				"series", s.Path, "reference", ref.Path)
		}
	}
}
