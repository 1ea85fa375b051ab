// Package grid materializes every record of a dataset into a rendered cell
// and indexes the cells by their rounded viewing angles.
package grid

import "anglegrid/internal/models"

// PaintTarget is a surface that accepts RGBA pixel data.
type PaintTarget interface {
	// PutImageData writes a width*height*4 RGBA buffer with its top-left
	// corner at (x, y). The caller reuses rgba once the call returns.
	PutImageData(rgba []byte, x, y, width, height int) error
}

// PaintTargetFactory creates one paint target per cell.
type PaintTargetFactory interface {
	NewTarget(width, height int) PaintTarget
}

// Container presents cells in the order they are appended.
type Container interface {
	Append(cell *Cell)
}

// Cell is the rendered form of one record.
type Cell struct {
	// Index is the record's position in the source
	Index int

	// A and B are the rounded angles the cell is navigable by
	A int
	B int

	// Target holds the painted pixels
	Target PaintTarget
}

// Key returns the index key of the cell.
func (c *Cell) Key() models.Key {
	return models.Key{A: c.A, B: c.B}
}
