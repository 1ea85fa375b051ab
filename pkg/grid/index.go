package grid

import (
	"sync"

	"anglegrid/internal/models"
)

// Index maps rounded angle pairs to cells. A later registration for the
// same pair replaces the earlier one. Entries are never removed.
//
// Index is safe for a single writer running concurrently with readers.
type Index struct {
	mu    sync.RWMutex
	cells map[models.Key]*Cell
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{cells: make(map[models.Key]*Cell)}
}

// Register maps (a, b) to cell and returns the cell it replaced, if any.
func (idx *Index) Register(a, b int, cell *Cell) (shadowed *Cell) {
	key := models.Key{A: a, B: b}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	shadowed = idx.cells[key]
	idx.cells[key] = cell
	return shadowed
}

// Lookup returns the cell registered for exactly (a, b).
func (idx *Index) Lookup(a, b int) (*Cell, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	cell, ok := idx.cells[models.Key{A: a, B: b}]
	return cell, ok
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.cells)
}
