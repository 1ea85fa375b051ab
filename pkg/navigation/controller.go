// Package navigation turns slider movements into scroll requests for the
// cell registered under the rounded angle pair.
package navigation

import (
	"sync"

	"anglegrid/internal/models"
	"anglegrid/pkg/grid"
)

// Behavior of a scroll request.
type Behavior string

const Smooth Behavior = "smooth"

// Block is the vertical alignment of the target cell in the viewport.
type Block string

const Center Block = "center"

// ScrollOptions describes how the host brings a cell into view.
type ScrollOptions struct {
	Behavior Behavior `json:"behavior"`
	Block    Block    `json:"block"`
}

// Lookuper finds the cell of a rounded angle pair.
type Lookuper interface {
	Lookup(a, b int) (*grid.Cell, bool)
}

// Scroller brings a cell into the visible viewport.
type Scroller interface {
	ScrollIntoView(cell *grid.Cell, opts ScrollOptions)
}

// Labels displays the raw slider values.
type Labels interface {
	SetAlpha(raw float64)
	SetBeta(raw float64)
}

// Controller tracks both slider values and scrolls to the matching cell
// whenever either changes. It only reads the index.
type Controller struct {
	index    Lookuper
	scroller Scroller
	labels   Labels
	opts     ScrollOptions

	mu    sync.Mutex
	alpha float64
	beta  float64
}

// New creates a controller whose sliders start at initialAlpha and
// initialBeta. labels may be nil.
func New(index Lookuper, scroller Scroller, labels Labels, initialAlpha, initialBeta float64) *Controller {
	return &Controller{
		index:    index,
		scroller: scroller,
		labels:   labels,
		opts:     ScrollOptions{Behavior: Smooth, Block: Center},
		alpha:    initialAlpha,
		beta:     initialBeta,
	}
}

// OnAlphaChange handles a new alpha slider value and returns the cell
// scrolled to, or nil when no cell matches.
func (c *Controller) OnAlphaChange(raw float64) *grid.Cell {
	c.mu.Lock()
	c.alpha = raw
	if c.labels != nil {
		c.labels.SetAlpha(raw)
	}
	key := models.KeyFor(c.alpha, c.beta)
	c.mu.Unlock()

	return c.navigate(key)
}

// OnBetaChange handles a new beta slider value and returns the cell
// scrolled to, or nil when no cell matches.
func (c *Controller) OnBetaChange(raw float64) *grid.Cell {
	c.mu.Lock()
	c.beta = raw
	if c.labels != nil {
		c.labels.SetBeta(raw)
	}
	key := models.KeyFor(c.alpha, c.beta)
	c.mu.Unlock()

	return c.navigate(key)
}

// Values returns the current raw slider values.
func (c *Controller) Values() (alpha, beta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alpha, c.beta
}

func (c *Controller) navigate(key models.Key) *grid.Cell {
	cell, ok := c.index.Lookup(key.A, key.B)
	if !ok {
		return nil
	}
	c.scroller.ScrollIntoView(cell, c.opts)
	return cell
}
