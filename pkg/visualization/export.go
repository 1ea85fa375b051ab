package visualization

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// SaveImage writes img to filename as PNG or JPEG depending on the
// extension. quality applies to JPEG only.
func SaveImage(img image.Image, filename string, quality int) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	default:
		return fmt.Errorf("unsupported image format: %s", filepath.Ext(filename))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// CellFilename names the file of a cell after its index and angle pair.
func CellFilename(index, a, b int, format string) string {
	return fmt.Sprintf("cell_%04d_a%02d_b%02d.%s", index, a, b, format)
}

// SaveCellSequence writes every presented cell to outputDir, one file per
// cell, in source order.
func (s *Sheet) SaveCellSequence(outputDir, format string, quality int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, cell := range s.Cells(0) {
		img, err := CellImage(cell)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, CellFilename(cell.Index, cell.A, cell.B, format))
		if err := SaveImage(img, filename, quality); err != nil {
			return err
		}
	}
	return nil
}

// SaveSheet composes the sheet and writes it to filename.
func (s *Sheet) SaveSheet(filename string, quality int) error {
	img, err := s.Compose()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	return SaveImage(img, filename, quality)
}
