package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"anglegrid/pkg/config"
	"anglegrid/pkg/dataset"
	"anglegrid/pkg/grid"
	"anglegrid/pkg/navigation"
	"anglegrid/pkg/server"
	"anglegrid/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "YAML configuration file")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this file and exit")
	inputPath := flag.String("input", "", "HDF5 container with original, alpha and beta datasets")
	inputURL := flag.String("url", "", "Fetch the HDF5 container from this URL once")
	demo := flag.Int("demo", 0, "Generate a synthetic dataset of this many records")
	width := flag.Int("width", 0, "Width of the demo images")
	height := flag.Int("height", 0, "Height of the demo images")
	noise := flag.Float64("noise", 0, "Standard deviation of the lightness noise on the demo plates")
	addr := flag.String("addr", "", "Address of the browser viewer")
	exportDir := flag.String("export", "", "Write the grid to this directory instead of serving it")
	columns := flag.Int("columns", 0, "Cells per row of the exported contact sheet")
	alpha := flag.Float64("alpha", math.NaN(), "Alpha to navigate to after an export")
	beta := flag.Float64("beta", math.NaN(), "Beta to navigate to after an export")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given explicitly override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Path = *inputPath
		case "url":
			cfg.Input.URL = *inputURL
		case "demo":
			cfg.Input.Demo = *demo
		case "width":
			cfg.Input.ImageWidth = *width
		case "height":
			cfg.Input.ImageHeight = *height
		case "noise":
			cfg.Input.DemoNoise = *noise
		case "addr":
			cfg.Server.Addr = *addr
		case "export":
			cfg.Export.Dir = *exportDir
		case "columns":
			cfg.Export.Columns = *columns
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	fmt.Println("================================")
	fmt.Println("ANGLE GRID VIEWER")
	fmt.Println("================================")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ds, cleanup, err := openDataset(ctx, cfg)
	if err != nil {
		logger.Error("open dataset", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	summary := dataset.Summarize(ds.Alphas(), ds.Betas())
	logger.Info("dataset loaded",
		"shape", ds.Shape().String(),
		"alpha_min", summary.AlphaMin, "alpha_max", summary.AlphaMax, "alpha_mean", summary.AlphaMean,
		"beta_min", summary.BetaMin, "beta_max", summary.BetaMax, "beta_mean", summary.BetaMean,
		"distinct_keys", summary.DistinctKeys)
	if summary.Shadowed > 0 {
		logger.Warn("some records share a rounded angle pair and will not be navigable",
			"shadowed", summary.Shadowed)
	}

	if cfg.Export.Dir != "" {
		if err := export(ctx, cfg, ds, logger, *alpha, *beta); err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(ds, server.Options{
		Logger: logger,
		Sliders: server.SliderOptions{
			Min:          cfg.Navigation.Min,
			Max:          cfg.Navigation.Max,
			Step:         cfg.Navigation.Step,
			InitialAlpha: cfg.Navigation.InitialAlpha,
			InitialBeta:  cfg.Navigation.InitialBeta,
		},
	})
	fmt.Printf("Open http://localhost%s in a browser\n", cfg.Server.Addr)
	timeout := time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second
	if err := srv.Run(ctx, cfg.Server.Addr, timeout); err != nil {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var lvl slog.Level
	switch cfg.Logging.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openDataset opens the configured input and returns a cleanup function
// that closes it and removes any downloaded file.
func openDataset(ctx context.Context, cfg *config.Config) (dataset.Dataset, func(), error) {
	if cfg.Input.Demo > 0 && cfg.Input.Path == "" && cfg.Input.URL == "" {
		height, width := cfg.Input.ImageHeight, cfg.Input.ImageWidth
		if height == 0 {
			height, width = 100, 150
		}
		ds, err := dataset.GenerateSynthetic(cfg.Input.Demo, height, width, dataset.SyntheticOptions{
			Noise: cfg.Input.DemoNoise,
			Seed:  cfg.Input.DemoSeed,
		})
		if err != nil {
			return nil, nil, err
		}
		return ds, func() {}, nil
	}

	path := cfg.Input.Path
	removeDownload := func() {}
	if path == "" {
		fmt.Printf("Fetching %s...\n", cfg.Input.URL)
		downloaded, err := dataset.Fetch(ctx, nil, cfg.Input.URL, "")
		if err != nil {
			return nil, nil, err
		}
		path = downloaded
		removeDownload = func() { os.Remove(downloaded) }
	}

	ds, err := dataset.OpenHDF5(path, dataset.HDF5Options{
		Images: cfg.Input.Images,
		Alpha:  cfg.Input.Alpha,
		Beta:   cfg.Input.Beta,
	})
	if err != nil {
		removeDownload()
		return nil, nil, err
	}
	return ds, func() {
		ds.Close()
		removeDownload()
	}, nil
}

// export renders the grid into a contact sheet and one file per cell. When
// alpha and beta are given it navigates there and saves the selected cell.
func export(ctx context.Context, cfg *config.Config, ds dataset.Dataset, logger *slog.Logger, alpha, beta float64) error {
	sheet := visualization.NewSheet(cfg.Export.Columns, cfg.Export.Gap)
	index := grid.NewIndex()
	renderer := &grid.Renderer{
		Targets:   visualization.CanvasFactory{},
		Container: sheet,
		Index:     index,
		Logger:    logger,
	}

	fmt.Println("Rendering grid...")
	startTime := time.Now()
	buildErr := renderer.Build(ctx, ds, ds.Alphas(), ds.Betas())
	if buildErr != nil && sheet.Len() == 0 {
		return buildErr
	}
	fmt.Printf("Rendered %d of %d records in %.2f seconds\n",
		sheet.Len(), ds.Shape().N, time.Since(startTime).Seconds())

	format := cfg.Export.Format
	sheetFile := filepath.Join(cfg.Export.Dir, "sheet."+format)
	fmt.Printf("Saving contact sheet to: %s\n", sheetFile)
	if err := sheet.SaveSheet(sheetFile, cfg.Export.Quality); err != nil {
		return fmt.Errorf("failed to save sheet: %w", err)
	}

	cellsDir := filepath.Join(cfg.Export.Dir, "cells")
	fmt.Printf("Saving cells to: %s\n", cellsDir)
	if err := sheet.SaveCellSequence(cellsDir, format, cfg.Export.Quality); err != nil {
		return fmt.Errorf("failed to save cells: %w", err)
	}

	if !math.IsNaN(alpha) || !math.IsNaN(beta) {
		viewport := visualization.NewViewport(sheet, logger)
		controller := navigation.New(index, viewport, viewport, cfg.Navigation.InitialAlpha, cfg.Navigation.InitialBeta)
		if !math.IsNaN(alpha) {
			controller.OnAlphaChange(alpha)
		}
		if !math.IsNaN(beta) {
			controller.OnBetaChange(beta)
		}

		cell, _, ok := viewport.Selected()
		if !ok {
			a, b := controller.Values()
			fmt.Printf("No cell at alpha=%v beta=%v\n", a, b)
		} else {
			row, col := sheet.Position(cell.Index)
			img, err := visualization.CellImage(cell)
			if err != nil {
				return err
			}
			selected := filepath.Join(cfg.Export.Dir, "selected."+format)
			if err := visualization.SaveImage(img, selected, cfg.Export.Quality); err != nil {
				return fmt.Errorf("failed to save selected cell: %w", err)
			}
			fmt.Printf("Cell %d at (%d,%d) is in row %d, column %d; saved to %s\n",
				cell.Index, cell.A, cell.B, row, col, selected)
		}
	}

	var loadErr *dataset.SliceLoadError
	if errors.As(buildErr, &loadErr) {
		fmt.Printf("Warning: rendering stopped at record %d, the export is partial\n", loadErr.Index)
	}
	return buildErr
}
