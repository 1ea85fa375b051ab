package dataset

import (
	"context"
	"fmt"
)

// SliceLoadError reports that the bytes of a record could not be delivered.
type SliceLoadError struct {
	Index int
	Err   error
}

func (e *SliceLoadError) Error() string {
	return fmt.Sprintf("load record %d: %v", e.Index, e.Err)
}

func (e *SliceLoadError) Unwrap() error {
	return e.Err
}

// LoadSlice fetches record index from src. The returned buffer holds
// exactly Height*Width*3 bytes. Out-of-range indices, read failures and
// short reads are reported as *SliceLoadError.
func LoadSlice(ctx context.Context, src Source, index int) ([]byte, error) {
	shape := src.Shape()
	if index < 0 || index >= shape.N {
		return nil, &SliceLoadError{Index: index, Err: fmt.Errorf("index out of range [0,%d)", shape.N)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SliceLoadError{Index: index, Err: err}
	}

	data, err := src.ReadRecord(ctx, index)
	if err != nil {
		return nil, &SliceLoadError{Index: index, Err: err}
	}
	if len(data) != shape.RecordSize() {
		return nil, &SliceLoadError{
			Index: index,
			Err:   fmt.Errorf("got %d bytes, want %d", len(data), shape.RecordSize()),
		}
	}
	return data, nil
}
