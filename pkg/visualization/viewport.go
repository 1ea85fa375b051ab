package visualization

import (
	"log/slog"
	"sync"

	"anglegrid/pkg/grid"
	"anglegrid/pkg/navigation"
)

// Viewport follows navigation over a Sheet: it remembers the cell last
// scrolled to and the raw slider values shown next to the sliders.
type Viewport struct {
	sheet  *Sheet
	logger *slog.Logger

	mu       sync.Mutex
	selected *grid.Cell
	opts     navigation.ScrollOptions
	scrolls  int
	alpha    float64
	beta     float64
}

// NewViewport creates a viewport over sheet. logger defaults to slog.Default().
func NewViewport(sheet *Sheet, logger *slog.Logger) *Viewport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewport{sheet: sheet, logger: logger}
}

// ScrollIntoView selects cell.
func (v *Viewport) ScrollIntoView(cell *grid.Cell, opts navigation.ScrollOptions) {
	v.mu.Lock()
	v.selected = cell
	v.opts = opts
	v.scrolls++
	v.mu.Unlock()

	row, col := v.sheet.Position(cell.Index)
	v.logger.Debug("scroll into view", "index", cell.Index, "row", row, "col", col,
		"behavior", opts.Behavior, "block", opts.Block)
}

func (v *Viewport) SetAlpha(raw float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alpha = raw
}

func (v *Viewport) SetBeta(raw float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.beta = raw
}

// Selected returns the cell last scrolled to, with its scroll options.
func (v *Viewport) Selected() (*grid.Cell, navigation.ScrollOptions, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected, v.opts, v.selected != nil
}

// Scrolls returns the number of scroll requests received.
func (v *Viewport) Scrolls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrolls
}

// Labels returns the raw slider values last shown.
func (v *Viewport) Labels() (alpha, beta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alpha, v.beta
}
