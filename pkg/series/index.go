// Package series discovers, loads and organizes DICOM series from a patient
// directory laid out as <patient>/<series>/<image>.dcm.
package series

import (
	"log/slog"
	"sort"
	"sync"

	"dicomstack/internal/models"
	"dicomstack/pkg/dicomio"
)

// Layout describes the file naming convention inside a series directory.
type Layout struct {
	// ImageExtension selects image files, compared case-insensitively
	ImageExtension string

	// ContourSuffix and ContourExtension derive the companion contour file
	// name from an image's base name: <stem><suffix><extension>
	ContourSuffix    string
	ContourExtension string
}

// DefaultLayout is <stem>.dcm with contours in <stem>_cont.npy.
func DefaultLayout() Layout {
	return Layout{
		ImageExtension:   ".dcm",
		ContourSuffix:    "_cont",
		ContourExtension: ".npy",
	}
}

// Index is the in-memory store of loaded series, keyed by series directory.
// It is replaced wholesale by every Load. A single read/write lock keeps
// queries from observing a load in progress.
type Index struct {
	mu     sync.RWMutex
	series map[string]models.Series
	loadID string

	decoder         dicomio.Decoder
	layout          Layout
	normalTolerance float64
	logger          *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithLayout overrides the file naming convention.
func WithLayout(layout Layout) Option {
	return func(ix *Index) {
		ix.layout = layout
	}
}

// WithNormalTolerance sets the angle, in radians, above which two series are
// reported as not sharing a slice orientation.
func WithNormalTolerance(tol float64) Option {
	return func(ix *Index) {
		ix.normalTolerance = tol
	}
}

// NewIndex creates an empty index that decodes images with decoder.
func NewIndex(decoder dicomio.Decoder, opts ...Option) *Index {
	ix := &Index{
		series:          make(map[string]models.Series),
		decoder:         decoder,
		layout:          DefaultLayout(),
		normalTolerance: 1e-3,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Clear drops all loaded series.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.clearLocked()
}

func (ix *Index) clearLocked() {
	ix.series = make(map[string]models.Series)
	ix.loadID = ""
}

// Len returns the number of loaded series.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.series)
}

// LoadID identifies the most recent successful load; it is empty when the
// index is empty.
func (ix *Index) LoadID() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loadID
}

// Series returns a snapshot of the loaded series sorted by path.
func (ix *Index) Series() []models.Series {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]models.Series, 0, len(ix.series))
	for _, key := range ix.keysLocked() {
		s := ix.series[key]
		out = append(out, models.Series{
			Path:   s.Path,
			Frames: append([]models.Frame(nil), s.Frames...),
		})
	}
	return out
}

// keysLocked returns the series keys in lexicographic order so that every
// query walks the map deterministically.
func (ix *Index) keysLocked() []string {
	keys := make([]string, 0, len(ix.series))
	for k := range ix.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
