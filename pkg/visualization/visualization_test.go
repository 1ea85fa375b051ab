package visualization

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"anglegrid/pkg/dataset"
	"anglegrid/pkg/grid"
	"anglegrid/pkg/navigation"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// solidRGBA creates a width x height RGBA buffer of a single color
func solidRGBA(width, height int, c color.RGBA) []byte {
	buf := make([]byte, width*height*4)
	for p := 0; p < width*height; p++ {
		buf[4*p], buf[4*p+1], buf[4*p+2], buf[4*p+3] = c.R, c.G, c.B, c.A
	}
	return buf
}

// paintedCell creates a cell whose canvas is filled with c
func paintedCell(t *testing.T, index, width, height int, c color.RGBA) *grid.Cell {
	canvas := NewCanvas(width, height)
	if err := canvas.PutImageData(solidRGBA(width, height, c), 0, 0, width, height); err != nil {
		t.Fatalf("Failed to paint cell %d: %v", index, err)
	}
	return &grid.Cell{Index: index, A: index, B: 2 * index, Target: canvas}
}

// TestCanvasPutImageData verifies that pixels land at the requested origin
func TestCanvasPutImageData(t *testing.T) {
	canvas := NewCanvas(4, 3)
	red := color.RGBA{R: 255, A: 255}

	if err := canvas.PutImageData(solidRGBA(2, 2, red), 1, 1, 2, 2); err != nil {
		t.Fatalf("PutImageData failed: %v", err)
	}

	img := canvas.Image()
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			got := img.RGBAAt(x, y)
			inside := x >= 1 && x < 3 && y >= 1 && y < 3
			if inside && got != red {
				t.Errorf("Expected red at (%d,%d), got %v", x, y, got)
			}
			if !inside && got != (color.RGBA{}) {
				t.Errorf("Expected transparent at (%d,%d), got %v", x, y, got)
			}
		}
	}
}

func TestCanvasPutImageDataErrors(t *testing.T) {
	canvas := NewCanvas(2, 2)
	if err := canvas.PutImageData(make([]byte, 15), 0, 0, 2, 2); err == nil {
		t.Error("Expected error for short buffer")
	}
	if err := canvas.PutImageData(make([]byte, 16), 1, 0, 2, 2); err == nil {
		t.Error("Expected error for region outside the canvas")
	}
}

func TestCellImage(t *testing.T) {
	cell := paintedCell(t, 0, 2, 2, color.RGBA{G: 255, A: 255})
	img, err := CellImage(cell)
	if err != nil {
		t.Fatalf("CellImage failed: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}

	if _, err := CellImage(&grid.Cell{}); err == nil {
		t.Error("Expected error for cell without canvas")
	}
}

// TestSheetCompose verifies flow order, wrapping and gaps
func TestSheetCompose(t *testing.T) {
	sheet := NewSheet(2, 1)
	colors := []color.RGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
	}
	for i, c := range colors {
		sheet.Append(paintedCell(t, i, 3, 2, c))
	}

	img, err := sheet.Compose()
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// 2 columns of 3px plus 3 gaps, 2 rows of 2px plus 3 gaps
	if img.Bounds() != image.Rect(0, 0, 9, 7) {
		t.Fatalf("Expected 9x7 sheet, got %v", img.Bounds())
	}

	origins := []image.Point{{1, 1}, {5, 1}, {1, 4}}
	for i, o := range origins {
		if got := img.RGBAAt(o.X, o.Y); got != colors[i] {
			t.Errorf("Cell %d: expected %v at %v, got %v", i, colors[i], o, got)
		}
	}

	if got := img.RGBAAt(0, 0); got != sheet.Background {
		t.Errorf("Expected background in the gap, got %v", got)
	}
	if got := img.RGBAAt(6, 5); got != sheet.Background {
		t.Errorf("Expected background after the last cell, got %v", got)
	}
}

func TestSheetCells(t *testing.T) {
	sheet := NewSheet(0, 0)
	if sheet.Columns != 1 {
		t.Errorf("Expected columns to be clamped to 1, got %d", sheet.Columns)
	}
	if _, err := sheet.Compose(); err == nil {
		t.Error("Expected error composing an empty sheet")
	}

	for i := 0; i < 4; i++ {
		sheet.Append(&grid.Cell{Index: i})
	}
	if sheet.Len() != 4 {
		t.Errorf("Expected 4 cells, got %d", sheet.Len())
	}
	if got := sheet.Cells(2); len(got) != 2 || got[0].Index != 2 {
		t.Errorf("Unexpected cells from 2: %v", got)
	}
	if got := sheet.Cells(9); got != nil {
		t.Errorf("Expected no cells past the end, got %v", got)
	}
	if _, ok := sheet.Cell(4); ok {
		t.Error("Expected no cell at 4")
	}
	if row, col := sheet.Position(3); row != 3 || col != 0 {
		t.Errorf("Expected (3,0), got (%d,%d)", row, col)
	}
}

// TestSaveCellSequence verifies that one file is written per cell
func TestSaveCellSequence(t *testing.T) {
	sheet := NewSheet(2, 0)
	for i := 0; i < 3; i++ {
		sheet.Append(paintedCell(t, i, 4, 4, color.RGBA{R: uint8(80 * i), A: 255}))
	}

	dir := t.TempDir()
	if err := sheet.SaveCellSequence(filepath.Join(dir, "cells"), "png", 90); err != nil {
		t.Fatalf("SaveCellSequence failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "cells", CellFilename(i, i, 2*i, "png"))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("Expected file %s: %v", name, err)
		}
	}

	sheetFile := filepath.Join(dir, "sheet.jpg")
	if err := sheet.SaveSheet(sheetFile, 90); err != nil {
		t.Fatalf("SaveSheet failed: %v", err)
	}
	if info, err := os.Stat(sheetFile); err != nil || info.Size() == 0 {
		t.Errorf("Expected non-empty sheet file: %v", err)
	}

	if err := SaveImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), filepath.Join(dir, "x.bmp"), 90); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestCellFilename(t *testing.T) {
	if got := CellFilename(7, 45, 3, "jpg"); got != "cell_0007_a45_b03.jpg" {
		t.Errorf("Unexpected filename %s", got)
	}
}

// TestViewportNavigation builds a synthetic grid and navigates it through the viewport
func TestViewportNavigation(t *testing.T) {
	src, err := dataset.Synthetic(9, 8, 12)
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}

	sheet := NewSheet(3, 2)
	index := grid.NewIndex()
	renderer := &grid.Renderer{
		Targets:   CanvasFactory{},
		Container: sheet,
		Index:     index,
		Logger:    quietLogger(),
	}
	if err := renderer.Build(context.Background(), src, src.Alphas(), src.Betas()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if sheet.Len() != 9 {
		t.Fatalf("Expected 9 cells, got %d", sheet.Len())
	}

	viewport := NewViewport(sheet, quietLogger())
	controller := navigation.New(index, viewport, viewport, 0, 0)

	// Record 4 sits at (44.5, 44.5), which rounds to (45, 45)
	controller.OnAlphaChange(44.5)
	controller.OnBetaChange(44.5)

	cell, opts, ok := viewport.Selected()
	if !ok || cell.Index != 4 {
		t.Fatalf("Expected cell 4 to be selected, got %v", cell)
	}
	if opts.Behavior != navigation.Smooth || opts.Block != navigation.Center {
		t.Errorf("Unexpected scroll options %+v", opts)
	}

	// Moving alpha alone already reaches record 1 at (45, 0)
	if viewport.Scrolls() != 2 {
		t.Errorf("Expected 2 scroll requests, got %d", viewport.Scrolls())
	}
	if alpha, beta := viewport.Labels(); alpha != 44.5 || beta != 44.5 {
		t.Errorf("Expected raw labels 44.5, got %v and %v", alpha, beta)
	}

	if row, col := sheet.Position(cell.Index); row != 1 || col != 1 {
		t.Errorf("Expected cell 4 at (1,1), got (%d,%d)", row, col)
	}
}
