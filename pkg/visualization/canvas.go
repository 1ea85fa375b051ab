// Package visualization hosts rendered cells: RGBA canvases, the sheet
// that flows them in source order, the viewport that follows navigation,
// and image export.
package visualization

import (
	"fmt"
	"image"

	"anglegrid/pkg/grid"
)

// Canvas is a paint target backed by an *image.RGBA.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// PutImageData copies a width*height RGBA buffer to (x, y). The region
// must lie inside the canvas.
func (c *Canvas) PutImageData(rgba []byte, x, y, width, height int) error {
	if len(rgba) != width*height*4 {
		return fmt.Errorf("buffer holds %d bytes, %dx%d needs %d", len(rgba), width, height, width*height*4)
	}
	region := image.Rect(x, y, x+width, y+height)
	if !region.In(c.img.Bounds()) {
		return fmt.Errorf("region %v exceeds canvas %v", region, c.img.Bounds())
	}

	rowBytes := width * 4
	for row := 0; row < height; row++ {
		offset := c.img.PixOffset(x, y+row)
		copy(c.img.Pix[offset:offset+rowBytes], rgba[row*rowBytes:(row+1)*rowBytes])
	}
	return nil
}

// Image returns the canvas pixels.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// CanvasFactory creates a Canvas for every cell.
type CanvasFactory struct{}

func (CanvasFactory) NewTarget(width, height int) grid.PaintTarget {
	return NewCanvas(width, height)
}

// CellImage returns the pixels of a cell painted on a Canvas.
func CellImage(cell *grid.Cell) (*image.RGBA, error) {
	canvas, ok := cell.Target.(*Canvas)
	if !ok {
		return nil, fmt.Errorf("cell %d is painted on %T, not a canvas", cell.Index, cell.Target)
	}
	return canvas.Image(), nil
}
