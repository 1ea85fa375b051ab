// Package pixel converts packed RGB image buffers into the RGBA layout
// expected by paint targets.
package pixel

import "fmt"

// Opaque is the alpha value written for every converted pixel.
const Opaque = 255

// InvalidInputError reports a source buffer whose length does not match
// the declared dimensions.
type InvalidInputError struct {
	Width  int
	Height int
	Length int
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("pixel: buffer of %d bytes does not hold %dx%d RGB pixels (want %d)",
		e.Length, e.Width, e.Height, e.Width*e.Height*3)
}

// RGBToRGBA converts a width*height*3 channel-interleaved RGB buffer into a
// newly allocated width*height*4 RGBA buffer. Alpha is always Opaque.
func RGBToRGBA(src []byte, width, height int) ([]byte, error) {
	if err := check(src, width, height); err != nil {
		return nil, err
	}
	dst := make([]byte, width*height*4)
	convert(dst, src)
	return dst, nil
}

// Into is RGBToRGBA writing into dst, which must hold width*height*4 bytes.
// It lets a caller reuse one destination buffer across records.
func Into(dst, src []byte, width, height int) error {
	if err := check(src, width, height); err != nil {
		return err
	}
	if len(dst) != width*height*4 {
		return fmt.Errorf("pixel: destination holds %d bytes, want %d", len(dst), width*height*4)
	}
	convert(dst, src)
	return nil
}

func check(src []byte, width, height int) error {
	if width < 0 || height < 0 || len(src) != width*height*3 {
		return &InvalidInputError{Width: width, Height: height, Length: len(src)}
	}
	return nil
}

func convert(dst, src []byte) {
	for p, q := 0, 0; p < len(src); p, q = p+3, q+4 {
		dst[q] = src[p]
		dst[q+1] = src[p+1]
		dst[q+2] = src[p+2]
		dst[q+3] = Opaque
	}
}
