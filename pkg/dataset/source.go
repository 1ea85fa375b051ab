// Package dataset provides access to angle-labelled image stacks shaped
// [N, H, W, 3] and the record loader used by the grid renderer.
package dataset

import (
	"context"
	"fmt"
)

// Shape describes a stack of N images of Height x Width pixels with
// Channels interleaved bytes per pixel.
type Shape struct {
	N        int
	Height   int
	Width    int
	Channels int
}

// RecordSize is the number of bytes of a single record.
func (s Shape) RecordSize() int {
	return s.Height * s.Width * s.Channels
}

// Validate checks that the shape describes RGB records.
func (s Shape) Validate() error {
	if s.N < 0 {
		return fmt.Errorf("record count must be non-negative, got %d", s.N)
	}
	if s.Height <= 0 || s.Width <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.Channels != 3 {
		return fmt.Errorf("expected 3 channels, got %d", s.Channels)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", s.N, s.Height, s.Width, s.Channels)
}

// Source delivers individual records of an image stack.
type Source interface {
	// Shape returns the dimensions of the stack.
	Shape() Shape

	// ReadRecord returns the raw bytes of record index along the leading axis.
	ReadRecord(ctx context.Context, index int) ([]byte, error)
}

// Dataset is a Source that also carries the per-record viewing angles.
type Dataset interface {
	Source
	Alphas() []float64
	Betas() []float64
	Close() error
}
