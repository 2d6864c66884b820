package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"dicomstack/pkg/config"
	"dicomstack/pkg/contour"
	"dicomstack/pkg/dicomio"
	"dicomstack/pkg/geometry"
	"dicomstack/pkg/series"
	"dicomstack/pkg/visualization"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dicomstack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Parse command line arguments
	patientDir := fs.String("patient", "", "Patient directory containing one sub-directory per series")
	seriesList := fs.String("series", "", "Comma-separated series to load (default: all discovered series)")
	list := fs.Bool("list", false, "List the series found in the patient directory and exit")
	frame := fs.Int("frame", 0, "Timepoint index to place in 3D (0-based)")
	opaque := fs.Bool("opaque", false, "Render slices fully opaque instead of transparent")
	opacity := fs.Float64("opacity", 0, "Slice opacity, clamped to [0, 1]; overrides -opaque when set")
	output := fs.String("output", "-", "Scene output file (YAML); '-' writes to stdout")
	configPath := fs.String("config", "", "Configuration file (YAML)")
	initConfig := fs.String("init-config", "", "Write a default configuration file to this path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opacitySet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "opacity" {
			opacitySet = true
		}
	})

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Default configuration written to %s\n", *initConfig)
		return nil
	}

	if *patientDir == "" {
		fs.Usage()
		return errors.New("-patient is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	// Summary text goes to stdout unless stdout carries the scene
	summary := stdout
	if *output == "-" && !*list {
		summary = stderr
	}

	index := series.NewIndex(dicomio.NewFileDecoder(),
		series.WithLogger(logger),
		series.WithLayout(series.Layout{
			ImageExtension:   cfg.Layout.ImageExtension,
			ContourSuffix:    cfg.Layout.ContourSuffix,
			ContourExtension: cfg.Layout.ContourExtension,
		}),
		series.WithNormalTolerance(cfg.Registration.NormalTolerance),
	)

	names := index.Discover(*patientDir)
	if len(names) == 0 {
		return fmt.Errorf("no series sub-directories found in %s", *patientDir)
	}

	if *list {
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	selected := names
	if *seriesList != "" {
		selected = splitList(*seriesList)
		if len(selected) == 0 {
			return errors.New("no series selected")
		}
	}

	fmt.Fprintln(summary, "================================")
	fmt.Fprintln(summary, "DICOM SERIES SPATIAL REGISTRATION")
	fmt.Fprintln(summary, "================================")

	fmt.Fprintf(summary, "--- Loading %d selected series... ---\n", len(selected))
	if !index.Load(*patientDir, selected) {
		return errors.New("failed to load DICOM data from the selected series")
	}

	numFrames := index.NumberOfFrames()
	for _, s := range index.Series() {
		contours := 0
		for _, f := range s.Frames {
			if f.HasContour() {
				contours++
			}
		}
		fmt.Fprintf(summary, "%s: %d frames, %d contours\n", s.Path, s.Len(), contours)
	}

	if *frame < 0 || *frame >= numFrames {
		return fmt.Errorf("frame %d is outside [0, %d]", *frame, numFrames-1)
	}

	viewer := visualization.NewViewer(visualization.Settings{
		Opacity:            cfg.Display.Opacity,
		TransparentOpacity: cfg.Display.TransparentOpacity,
		ColorWindow:        cfg.Display.ColorWindow,
		ColorLevel:         cfg.Display.ColorLevel,
		ContourColor:       cfg.Display.ContourColor,
		ContourLineWidth:   cfg.Display.ContourLineWidth,
		FlipY:              cfg.Display.FlipY,
	}, contour.NpyReader{}, logger)
	if *opaque {
		viewer.SetTransparent(false)
	}
	if opacitySet {
		viewer.SetSliceOpacity(*opacity)
	}

	frames := index.FramesForTimepoint(*frame)
	scene := viewer.CreateScene(*frame, frames)
	scene.LoadID = index.LoadID()

	mean, std := geometry.StackSpacing(frames)
	fmt.Fprintf(summary, "Frame %s: %d slices, spacing %.2f mm (sd %.2f)\n",
		visualization.FrameLabel(*frame, numFrames), len(frames), mean, std)

	if *output == "-" {
		return scene.Encode(stdout)
	}
	if err := scene.Save(*output); err != nil {
		return fmt.Errorf("saving scene: %w", err)
	}
	fmt.Fprintf(summary, "Scene saved to: %s\n", *output)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
