package visualization

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"dicomstack/internal/models"
	"dicomstack/pkg/contour"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeContour writes a (rows, cols) float64 array as .npy
func writeContour(t *testing.T, path string, rows, cols int, data []float64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create contour file: %v", err)
	}
	defer f.Close()
	if err := npyio.Write(f, mat.NewDense(rows, cols, data)); err != nil {
		t.Fatalf("Failed to write contour file: %v", err)
	}
}

func axialFrame(path string, z float64) models.Frame {
	return models.Frame{
		FilePath:         path,
		InstanceNumber:   0,
		ImagePosition:    [3]float64{-50, -50, z},
		ImageOrientation: [6]float64{1, 0, 0, 0, 1, 0},
		PixelSpacing:     [2]float64{2, 1},
		Rows:             10,
		Columns:          20,
	}
}

// TestSetSliceOpacityClamps verifies opacity values are clamped to [0, 1]
func TestSetSliceOpacityClamps(t *testing.T) {
	v := NewViewer(DefaultSettings(), contour.NpyReader{}, quietLogger())

	if v.Opacity() != 0.7 {
		t.Errorf("Expected initial opacity 0.7, got %f", v.Opacity())
	}

	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0.0},
		{1.5, 1.0},
		{0.25, 0.25},
		{0, 0},
		{1, 1},
	}
	for _, tt := range tests {
		v.SetSliceOpacity(tt.in)
		if v.Opacity() != tt.want {
			t.Errorf("SetSliceOpacity(%v): expected %v, got %v", tt.in, tt.want, v.Opacity())
		}
	}

	v.SetSliceOpacity(math.NaN())
	if v.Opacity() != 1 {
		t.Errorf("Expected NaN to be ignored, got %v", v.Opacity())
	}
}

func TestSetTransparent(t *testing.T) {
	v := NewViewer(DefaultSettings(), nil, quietLogger())

	v.SetTransparent(false)
	if v.Opacity() != 1 {
		t.Errorf("Expected opaque slices, got %f", v.Opacity())
	}
	v.SetTransparent(true)
	if v.Opacity() != 0.7 {
		t.Errorf("Expected transparent opacity 0.7, got %f", v.Opacity())
	}
}

// TestCreateScene verifies slice placement and contour overlays
func TestCreateScene(t *testing.T) {
	dir := t.TempDir()

	withContour := axialFrame(filepath.Join(dir, "a.dcm"), 0)
	withContour.ContourFilePath = filepath.Join(dir, "a_cont.npy")
	writeContour(t, withContour.ContourFilePath, 2, 3, []float64{
		0, 10, 10,
		0, 0, 5,
	})

	badContour := axialFrame(filepath.Join(dir, "b.dcm"), 8)
	badContour.ContourFilePath = filepath.Join(dir, "b_cont.npy")
	writeContour(t, badContour.ContourFilePath, 3, 2, make([]float64, 6))

	missingContour := axialFrame(filepath.Join(dir, "c.dcm"), 16)
	missingContour.ContourFilePath = filepath.Join(dir, "gone_cont.npy")

	plain := axialFrame(filepath.Join(dir, "d.dcm"), 24)

	v := NewViewer(DefaultSettings(), contour.NpyReader{}, quietLogger())
	v.SetSliceOpacity(0.5)
	scene := v.CreateScene(3, []models.Frame{withContour, badContour, missingContour, plain})

	if scene.Timepoint != 3 {
		t.Errorf("Expected timepoint 3, got %d", scene.Timepoint)
	}
	if scene.Opacity != 0.5 {
		t.Errorf("Expected scene opacity 0.5, got %f", scene.Opacity)
	}
	if len(scene.Slices) != 4 {
		t.Fatalf("Expected 4 slices, got %d", len(scene.Slices))
	}

	first := scene.Slices[0]
	if first.Transform[3] != -50 || first.Transform[7] != -50 || first.Transform[11] != 0 {
		t.Errorf("Expected translation (-50, -50, 0), got %v", first.Transform)
	}
	if first.Scale != [3]float64{1, 2, 1} {
		t.Errorf("Expected scale [1 2 1], got %v", first.Scale)
	}
	if !first.FlipY {
		t.Error("Expected FlipY to be set")
	}

	if first.Contour == nil {
		t.Fatal("Expected contour on first slice")
	}
	want := [][3]float64{{-50, -50, 0}, {-40, -50, 0}, {-40, -40, 0}}
	if len(first.Contour.Points) != len(want) {
		t.Fatalf("Expected %d contour points, got %d", len(want), len(first.Contour.Points))
	}
	for i := range want {
		for k := 0; k < 3; k++ {
			if math.Abs(first.Contour.Points[i][k]-want[i][k]) > 1e-9 {
				t.Errorf("Point %d: expected %v, got %v", i, want[i], first.Contour.Points[i])
				break
			}
		}
	}
	if !first.Contour.Closed {
		t.Error("Expected closed contour")
	}
	if first.Contour.Color != [3]float64{1, 1, 0} {
		t.Errorf("Expected yellow contour, got %v", first.Contour.Color)
	}

	for i := 1; i < 4; i++ {
		if scene.Slices[i].Contour != nil {
			t.Errorf("Expected no contour on slice %d", i)
		}
	}

	if scene.Bounds == nil {
		t.Fatal("Expected scene bounds")
	}
	if scene.Bounds.Min != [3]float64{-50, -50, 0} || scene.Bounds.Max != [3]float64{-30, -30, 24} {
		t.Errorf("Unexpected bounds %v", *scene.Bounds)
	}
}

func TestCreateSceneEmpty(t *testing.T) {
	v := NewViewer(DefaultSettings(), contour.NpyReader{}, quietLogger())
	scene := v.CreateScene(0, nil)
	if len(scene.Slices) != 0 || scene.Bounds != nil {
		t.Errorf("Expected empty scene, got %+v", scene)
	}
}

func TestSaveAndLoadScene(t *testing.T) {
	v := NewViewer(DefaultSettings(), nil, quietLogger())
	scene := v.CreateScene(1, []models.Frame{axialFrame("x.dcm", 4)})
	scene.LoadID = "load-1"

	path := filepath.Join(t.TempDir(), "out", "scene.yaml")
	if err := scene.Save(path); err != nil {
		t.Fatalf("Failed to save scene: %v", err)
	}

	loaded, err := LoadScene(path)
	if err != nil {
		t.Fatalf("Failed to load scene: %v", err)
	}
	if loaded.LoadID != "load-1" || len(loaded.Slices) != 1 {
		t.Errorf("Unexpected scene %+v", loaded)
	}
	if loaded.Slices[0].Transform != scene.Slices[0].Transform {
		t.Errorf("Expected transform %v, got %v", scene.Slices[0].Transform, loaded.Slices[0].Transform)
	}

	var buf bytes.Buffer
	if err := scene.Encode(&buf); err != nil {
		t.Fatalf("Failed to encode scene: %v", err)
	}
	if !strings.Contains(buf.String(), "imagePath: x.dcm") {
		t.Errorf("Expected image path in output, got:\n%s", buf.String())
	}
}

func TestFrameLabel(t *testing.T) {
	if got := FrameLabel(0, 0); got != "--/--" {
		t.Errorf("Expected --/--, got %s", got)
	}
	if got := FrameLabel(4, 25); got != "5 / 25" {
		t.Errorf("Expected 5 / 25, got %s", got)
	}
}
