package visualization

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"dicomstack/internal/models"
	"dicomstack/pkg/contour"
	"dicomstack/pkg/geometry"
)

// Settings holds the display parameters shared by every slice.
type Settings struct {
	Opacity            float64
	TransparentOpacity float64
	ColorWindow        float64
	ColorLevel         float64
	ContourColor       [3]float64
	ContourLineWidth   float64
	FlipY              bool
}

// DefaultSettings matches the viewer's initial state: semi-transparent
// slices with yellow contours.
func DefaultSettings() Settings {
	return Settings{
		Opacity:            0.7,
		TransparentOpacity: 0.7,
		ColorWindow:        1000,
		ColorLevel:         500,
		ContourColor:       [3]float64{1, 1, 0},
		ContourLineWidth:   2,
		FlipY:              true,
	}
}

// Viewer turns timepoint frame sets into scenes for a rendering backend. It
// owns the single opacity value applied to every image slice.
type Viewer struct {
	settings Settings
	reader   contour.Reader
	logger   *slog.Logger
}

// NewViewer creates a viewer that reads contour files with reader.
func NewViewer(settings Settings, reader contour.Reader, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Viewer{
		settings: settings,
		reader:   reader,
		logger:   logger,
	}
	v.SetSliceOpacity(settings.Opacity)
	return v
}

// Opacity returns the current slice opacity.
func (v *Viewer) Opacity() float64 {
	return v.settings.Opacity
}

// SetSliceOpacity sets the opacity of all image slices, clamped to [0, 1].
func (v *Viewer) SetSliceOpacity(opacity float64) {
	if math.IsNaN(opacity) {
		return
	}
	v.settings.Opacity = math.Max(0, math.Min(1, opacity))
}

// SetTransparent switches between the configured transparent opacity and
// fully opaque slices.
func (v *Viewer) SetTransparent(on bool) {
	if on {
		v.SetSliceOpacity(v.settings.TransparentOpacity)
		return
	}
	v.SetSliceOpacity(1)
}

// Scene is everything a renderer needs to draw one timepoint.
type Scene struct {
	LoadID      string       `yaml:"loadId,omitempty"`
	Timepoint   int          `yaml:"timepoint"`
	Opacity     float64      `yaml:"opacity"`
	ColorWindow float64      `yaml:"colorWindow"`
	ColorLevel  float64      `yaml:"colorLevel"`
	Bounds      *Bounds      `yaml:"bounds,omitempty"`
	Slices      []SliceActor `yaml:"slices"`
}

// Bounds is the axis-aligned world-space box enclosing every slice, used by
// renderers to frame the camera.
type Bounds struct {
	Min [3]float64 `yaml:"min,flow"`
	Max [3]float64 `yaml:"max,flow"`
}

func (b *Bounds) extend(p r3.Vec) {
	for i, c := range [3]float64{p.X, p.Y, p.Z} {
		b.Min[i] = math.Min(b.Min[i], c)
		b.Max[i] = math.Max(b.Max[i], c)
	}
}

// SliceActor places one image. Transform holds the 4x4 affine in row-major
// order; Scale is the per-axis pixel scale applied before it.
type SliceActor struct {
	ImagePath string        `yaml:"imagePath"`
	Instance  int           `yaml:"instance"`
	Rows      int           `yaml:"rows"`
	Columns   int           `yaml:"columns"`
	Transform [16]float64   `yaml:"transform,flow"`
	Scale     [3]float64    `yaml:"scale,flow"`
	FlipY     bool          `yaml:"flipY"`
	Contour   *ContourActor `yaml:"contour,omitempty"`
}

// ContourActor is a closed world-space polyline.
type ContourActor struct {
	Points    [][3]float64 `yaml:"points,flow"`
	Closed    bool         `yaml:"closed"`
	Color     [3]float64   `yaml:"color,flow"`
	LineWidth float64      `yaml:"lineWidth"`
}

// CreateScene builds a scene from a stacked set of frames. A contour that
// cannot be read or has the wrong shape is dropped with a warning; its slice
// is still placed.
func (v *Viewer) CreateScene(timepoint int, frames []models.Frame) *Scene {
	scene := &Scene{
		Timepoint:   timepoint,
		Opacity:     v.settings.Opacity,
		ColorWindow: v.settings.ColorWindow,
		ColorLevel:  v.settings.ColorLevel,
		Slices:      make([]SliceActor, 0, len(frames)),
	}

	for _, f := range frames {
		scale := geometry.PixelScale(f)
		actor := SliceActor{
			ImagePath: f.FilePath,
			Instance:  f.InstanceNumber,
			Rows:      f.Rows,
			Columns:   f.Columns,
			Transform: geometry.Flatten(geometry.Affine(f)),
			Scale:     [3]float64{scale.X, scale.Y, scale.Z},
			FlipY:     v.settings.FlipY,
			Contour:   v.contourActor(f),
		}
		scene.Slices = append(scene.Slices, actor)

		for _, c := range geometry.Corners(f) {
			if scene.Bounds == nil {
				scene.Bounds = &Bounds{Min: [3]float64{c.X, c.Y, c.Z}, Max: [3]float64{c.X, c.Y, c.Z}}
			}
			scene.Bounds.extend(c)
		}
	}

	return scene
}

func (v *Viewer) contourActor(f models.Frame) *ContourActor {
	if !f.HasContour() || v.reader == nil {
		return nil
	}

	arr, err := v.reader.ReadArray(f.ContourFilePath)
	if err != nil {
		v.logger.Warn("skipping unreadable contour", "path", f.ContourFilePath, "error", err)
		return nil
	}

	line, err := geometry.MapContour(f, arr)
	if err != nil {
		v.logger.Warn("skipping malformed contour", "path", f.ContourFilePath, "error", err)
		return nil
	}

	return &ContourActor{
		Points:    toArrays(line.Points),
		Closed:    true,
		Color:     v.settings.ContourColor,
		LineWidth: v.settings.ContourLineWidth,
	}
}

func toArrays(points []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

// Encode writes the scene as YAML.
func (s *Scene) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return enc.Close()
}

// Save writes the scene as YAML to filename, creating parent directories.
func (s *Scene) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.Encode(file)
}

// LoadScene reads a scene previously written by Save.
func LoadScene(filename string) (*Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding scene %s: %w", filename, err)
	}
	return &s, nil
}

// FrameLabel formats the 1-based navigation label for timepoint current out
// of numFrames, or "--/--" when nothing is loaded.
func FrameLabel(current, numFrames int) string {
	if numFrames <= 0 {
		return "--/--"
	}
	return fmt.Sprintf("%d / %d", current+1, numFrames)
}
