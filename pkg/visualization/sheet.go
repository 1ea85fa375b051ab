package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"anglegrid/pkg/grid"
)

// Sheet presents cells left to right in the order they are appended,
// wrapping after a fixed number of columns. It is safe for one appending
// goroutine and concurrent readers.
type Sheet struct {
	mu    sync.RWMutex
	cells []*grid.Cell

	// Columns is the number of cells per row
	Columns int

	// Gap is the spacing between cells in pixels
	Gap int

	// Background fills the gaps and the unused end of the last row
	Background color.Color
}

// NewSheet creates an empty sheet.
func NewSheet(columns, gap int) *Sheet {
	if columns < 1 {
		columns = 1
	}
	return &Sheet{
		Columns:    columns,
		Gap:        gap,
		Background: color.RGBA{R: 32, G: 32, B: 32, A: 255},
	}
}

// Append adds a cell after the existing ones.
func (s *Sheet) Append(cell *grid.Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = append(s.cells, cell)
}

// Len returns the number of presented cells.
func (s *Sheet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Cell returns the i-th presented cell.
func (s *Sheet) Cell(i int) (*grid.Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.cells) {
		return nil, false
	}
	return s.cells[i], true
}

// Cells returns a snapshot of the presented cells starting at from.
func (s *Sheet) Cells(from int) []*grid.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if from < 0 {
		from = 0
	}
	if from >= len(s.cells) {
		return nil
	}
	out := make([]*grid.Cell, len(s.cells)-from)
	copy(out, s.cells[from:])
	return out
}

// Position returns the row and column the i-th cell flows to.
func (s *Sheet) Position(i int) (row, col int) {
	return i / s.Columns, i % s.Columns
}

// Compose draws every presented canvas into one image. All cells share the
// size of the largest cell slot.
func (s *Sheet) Compose() (*image.RGBA, error) {
	cells := s.Cells(0)
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	images := make([]*image.RGBA, len(cells))
	cellW, cellH := 0, 0
	for i, cell := range cells {
		img, err := CellImage(cell)
		if err != nil {
			return nil, err
		}
		images[i] = img
		b := img.Bounds()
		cellW, cellH = max(cellW, b.Dx()), max(cellH, b.Dy())
	}

	cols := min(s.Columns, len(cells))
	rows := (len(cells) + s.Columns - 1) / s.Columns
	width := cols*cellW + (cols+1)*s.Gap
	height := rows*cellH + (rows+1)*s.Gap

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := s.Background
	if bg == nil {
		bg = color.Black
	}
	draw.Draw(sheet, sheet.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for i, img := range images {
		row, col := s.Position(i)
		origin := image.Pt(s.Gap+col*(cellW+s.Gap), s.Gap+row*(cellH+s.Gap))
		r := image.Rectangle{Min: origin, Max: origin.Add(img.Bounds().Size())}
		draw.Draw(sheet, r, img, img.Bounds().Min, draw.Src)
	}
	return sheet, nil
}
