package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"
)

// Default dataset names inside the container.
const (
	DefaultImages = "original"
	DefaultAlpha  = "alpha"
	DefaultBeta   = "beta"
)

// HDF5Options selects the datasets to read.
type HDF5Options struct {
	Images string
	Alpha  string
	Beta   string
}

func (o HDF5Options) withDefaults() HDF5Options {
	if o.Images == "" {
		o.Images = DefaultImages
	}
	if o.Alpha == "" {
		o.Alpha = DefaultAlpha
	}
	if o.Beta == "" {
		o.Beta = DefaultBeta
	}
	return o
}

// HDF5Source reads records from an HDF5 container holding an uint8
// [N,H,W,3] image dataset and two float angle datasets of length N.
type HDF5Source struct {
	file   *hdf5.File
	images *hdf5.Dataset
	shape  Shape
	alphas []float64
	betas  []float64

	// the HDF5 library is not reentrant
	mu sync.Mutex
}

// OpenHDF5 opens the container at path. The image shape comes from the
// dataspace of the image dataset and the angles are read eagerly; image
// records are read one hyperslab at a time by ReadRecord.
func OpenHDF5(path string, opts HDF5Options) (*HDF5Source, error) {
	opts = opts.withDefaults()

	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	src, err := newHDF5Source(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	return src, nil
}

func newHDF5Source(file *hdf5.File, opts HDF5Options) (*HDF5Source, error) {
	alphas, err := readAngles(file, opts.Alpha)
	if err != nil {
		return nil, err
	}
	betas, err := readAngles(file, opts.Beta)
	if err != nil {
		return nil, err
	}
	if len(alphas) != len(betas) {
		return nil, fmt.Errorf("%s has %d values but %s has %d",
			opts.Alpha, len(alphas), opts.Beta, len(betas))
	}

	images, err := openDataset(file, opts.Images)
	if err != nil {
		return nil, err
	}
	shape, err := imageShape(images)
	if err != nil {
		images.Close()
		return nil, fmt.Errorf("invalid %s dataset: %w", opts.Images, err)
	}
	if shape.N != len(alphas) {
		images.Close()
		return nil, fmt.Errorf("%s holds %d records but %s has %d values",
			opts.Images, shape.N, opts.Alpha, len(alphas))
	}

	return &HDF5Source{
		file:   file,
		images: images,
		shape:  shape,
		alphas: alphas,
		betas:  betas,
	}, nil
}

func openDataset(file *hdf5.File, name string) (*hdf5.Dataset, error) {
	ds, err := file.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("dataset %q not found in container: %w", name, err)
	}
	return ds, nil
}

func extent(ds *hdf5.Dataset) ([]uint, error) {
	space := ds.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataspace: %w", err)
	}
	return dims, nil
}

// imageShape derives N, H and W from a [N,H,W,3] uint8 dataset.
func imageShape(ds *hdf5.Dataset) (Shape, error) {
	dtype, err := ds.Datatype()
	if err != nil {
		return Shape{}, err
	}
	defer dtype.Close()
	if dtype.Class() != hdf5.T_INTEGER || dtype.Size() != 1 {
		return Shape{}, fmt.Errorf("expected uint8 elements, got class %v of %d bytes", dtype.Class(), dtype.Size())
	}

	dims, err := extent(ds)
	if err != nil {
		return Shape{}, err
	}
	if len(dims) != 4 {
		return Shape{}, fmt.Errorf("expected 4 dimensions, got %v", dims)
	}

	shape := Shape{N: int(dims[0]), Height: int(dims[1]), Width: int(dims[2]), Channels: int(dims[3])}
	if err := shape.Validate(); err != nil {
		return Shape{}, err
	}
	return shape, nil
}

// readAngles reads a one-dimensional float32 or float64 dataset.
func readAngles(file *hdf5.File, name string) ([]float64, error) {
	ds, err := openDataset(file, name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	dims, err := extent(ds)
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("%s: expected 1 dimension, got %v", name, dims)
	}

	dtype, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer dtype.Close()
	if dtype.Class() != hdf5.T_FLOAT {
		return nil, fmt.Errorf("%s: expected floating point values, got class %v", name, dtype.Class())
	}

	switch dtype.Size() {
	case 4:
		raw := make([]float32, dims[0])
		if err := ds.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = float64(v)
		}
		return out, nil
	case 8:
		out := make([]float64, dims[0])
		if err := ds.Read(&out); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported float width %d", name, dtype.Size())
	}
}

func (s *HDF5Source) Shape() Shape { return s.shape }

func (s *HDF5Source) Alphas() []float64 { return s.alphas }

func (s *HDF5Source) Betas() []float64 { return s.betas }

// ReadRecord reads the hyperslab [index, 0:H, 0:W, 0:3] straight into a
// byte buffer of one record.
func (s *HDF5Source) ReadRecord(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= s.shape.N {
		return nil, fmt.Errorf("record %d outside [0,%d)", index, s.shape.N)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := []uint{1, uint(s.shape.Height), uint(s.shape.Width), uint(s.shape.Channels)}

	filespace := s.images.Space()
	defer filespace.Close()
	if err := filespace.SelectHyperslab([]uint{uint(index), 0, 0, 0}, nil, count, nil); err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}

	memspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()

	buf := make([]byte, s.shape.RecordSize())
	if err := s.images.ReadSubset(&buf, memspace, filespace); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *HDF5Source) Close() error {
	return errors.Join(s.images.Close(), s.file.Close())
}
