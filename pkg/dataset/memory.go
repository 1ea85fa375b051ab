package dataset

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource is a Dataset held entirely in memory.
type MemorySource struct {
	shape  Shape
	pixels []byte
	alphas []float64
	betas  []float64

	mu       sync.Mutex
	failures map[int]error
}

// NewMemorySource wraps a row-major [N,H,W,3] pixel buffer and its angles.
func NewMemorySource(shape Shape, pixels []byte, alphas, betas []float64) (*MemorySource, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(pixels) != shape.N*shape.RecordSize() {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, shape %v needs %d",
			len(pixels), shape, shape.N*shape.RecordSize())
	}
	if len(alphas) != shape.N || len(betas) != shape.N {
		return nil, fmt.Errorf("expected %d angles, got %d alpha and %d beta",
			shape.N, len(alphas), len(betas))
	}
	return &MemorySource{
		shape:    shape,
		pixels:   pixels,
		alphas:   alphas,
		betas:    betas,
		failures: make(map[int]error),
	}, nil
}

// FailAt makes every read of record index return err.
func (m *MemorySource) FailAt(index int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[index] = err
}

func (m *MemorySource) Shape() Shape { return m.shape }

func (m *MemorySource) Alphas() []float64 { return m.alphas }

func (m *MemorySource) Betas() []float64 { return m.betas }

func (m *MemorySource) Close() error { return nil }

func (m *MemorySource) ReadRecord(ctx context.Context, index int) ([]byte, error) {
	m.mu.Lock()
	err := m.failures[index]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= m.shape.N {
		return nil, fmt.Errorf("index %d out of range", index)
	}

	size := m.shape.RecordSize()
	record := make([]byte, size)
	copy(record, m.pixels[index*size:(index+1)*size])
	return record, nil
}
