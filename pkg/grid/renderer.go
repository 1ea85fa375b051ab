package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"anglegrid/internal/models"
	"anglegrid/pkg/dataset"
	"anglegrid/pkg/pixel"
)

// ErrParamLength is returned when fewer angles than records are supplied.
var ErrParamLength = errors.New("grid: angle count does not cover every record")

// Stats counts the progress of a build.
type Stats struct {
	Rendered   int `json:"rendered"`
	Collisions int `json:"collisions"`
}

// Renderer builds the cell grid of a dataset in one sequential pass.
//
// Records are loaded one at a time in source order, so at most one raw
// record and one converted buffer are live, and insertion order into the
// container and the index is the source order.
type Renderer struct {
	// Targets creates the paint target of every cell
	Targets PaintTargetFactory

	// Container receives the cells in source order
	Container Container

	// Index receives every cell under its rounded angle pair
	Index *Index

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// OnCellReady, if set, is called after each cell is painted, appended
	// and registered.
	OnCellReady func(cell *Cell)

	rendered   atomic.Int64
	collisions atomic.Int64
}

// Stats returns the counts of the current or last build.
func (r *Renderer) Stats() Stats {
	return Stats{
		Rendered:   int(r.rendered.Load()),
		Collisions: int(r.collisions.Load()),
	}
}

// Build renders records 0..N-1 of src. alphas and betas hold the angles of
// every record. The first load, conversion or paint failure stops the build
// and is returned; cells rendered before it stay in the container and the
// index. A load failure is a *dataset.SliceLoadError.
func (r *Renderer) Build(ctx context.Context, src dataset.Source, alphas, betas []float64) error {
	shape := src.Shape()
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("invalid dataset shape: %w", err)
	}
	if len(alphas) < shape.N || len(betas) < shape.N {
		return fmt.Errorf("%w: %d records, %d alpha and %d beta values",
			ErrParamLength, shape.N, len(alphas), len(betas))
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.rendered.Store(0)
	r.collisions.Store(0)

	logger.Info("building grid", "records", shape.N, "width", shape.Width, "height", shape.Height)
	start := time.Now()

	rgba := make([]byte, shape.Width*shape.Height*4)

	for i := 0; i < shape.N; i++ {
		a, b := models.Round(alphas[i]), models.Round(betas[i])
		cell := &Cell{
			Index:  i,
			A:      a,
			B:      b,
			Target: r.Targets.NewTarget(shape.Width, shape.Height),
		}

		raw, err := dataset.LoadSlice(ctx, src, i)
		if err != nil {
			logger.Error("build aborted", "index", i, "rendered", i, "error", err)
			return err
		}

		if err := pixel.Into(rgba, raw, shape.Width, shape.Height); err != nil {
			return fmt.Errorf("convert record %d: %w", i, err)
		}
		if err := cell.Target.PutImageData(rgba, 0, 0, shape.Width, shape.Height); err != nil {
			return fmt.Errorf("paint record %d: %w", i, err)
		}

		r.Container.Append(cell)

		if prev := r.Index.Register(a, b, cell); prev != nil {
			r.collisions.Add(1)
			logger.Warn("angle pair reused, earlier cell is no longer navigable",
				"key", cell.Key().String(), "index", i, "shadowed", prev.Index)
		}
		r.rendered.Add(1)

		logger.Debug("cell rendered", "index", i, "a", a, "b", b)
		if r.OnCellReady != nil {
			r.OnCellReady(cell)
		}
	}

	logger.Info("grid built",
		"records", shape.N,
		"keys", r.Index.Len(),
		"collisions", r.collisions.Load(),
		"elapsed", time.Since(start))
	return nil
}
