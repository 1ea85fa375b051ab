package dataset

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// plate and background colors of the generated license plates
var (
	plateColor      = [3]byte{255, 203, 9}
	backgroundColor = [3]byte{0, 0, 0}
	markColor       = [3]byte{20, 20, 20}
)

// SyntheticOptions tunes the generated plates.
type SyntheticOptions struct {
	// Focal is the camera distance in pixels. Zero uses the plate width.
	Focal float64

	// Noise is the standard deviation of the Gaussian lightness noise
	// added to plate pixels. Zero disables it.
	Noise float64
	Seed  uint64
}

// Synthetic generates n noiseless plate images of height x width pixels.
func Synthetic(n, height, width int) (*MemorySource, error) {
	return GenerateSynthetic(n, height, width, SyntheticOptions{})
}

// GenerateSynthetic generates n plate images laid over a regular angle
// lattice covering [0,89] in both directions. Each plate is rotated by
// alpha around the vertical axis and by beta around the horizontal axis,
// then projected through a pinhole camera.
func GenerateSynthetic(n, height, width int, opts SyntheticOptions) (*MemorySource, error) {
	shape := Shape{N: n, Height: height, Width: width, Channels: 3}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if opts.Noise < 0 {
		return nil, fmt.Errorf("noise must be non-negative, got %v", opts.Noise)
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols

	var noise *distuv.Normal
	if opts.Noise > 0 {
		noise = &distuv.Normal{Mu: 0, Sigma: opts.Noise, Src: rand.NewSource(opts.Seed)}
	}

	alphas := make([]float64, n)
	betas := make([]float64, n)
	pixels := make([]byte, n*shape.RecordSize())

	for i := 0; i < n; i++ {
		alphas[i] = latticeAngle(i%cols, cols)
		betas[i] = latticeAngle(i/cols, rows)
		p := newPlate(width, height, opts.Focal)
		p.draw(pixels[i*shape.RecordSize():(i+1)*shape.RecordSize()], alphas[i], betas[i], noise)
	}

	return NewMemorySource(shape, pixels, alphas, betas)
}

func latticeAngle(pos, count int) float64 {
	if count <= 1 {
		return 0
	}
	return float64(pos) * 89 / float64(count-1)
}

// plate is an upright plate centered in a width x height frame, with the
// frame 1.5 times wider and twice as tall as the plate.
type plate struct {
	width, height int
	x0, y0        float64
	w, h          float64
	focal         float64
}

func newPlate(width, height int, focal float64) plate {
	w := float64(width) / 1.5
	h := float64(height) / 2
	if focal <= 0 {
		focal = w
	}
	return plate{
		width:  width,
		height: height,
		x0:     (float64(width) - w) / 2,
		y0:     (float64(height) - h) / 2,
		w:      w,
		h:      h,
		focal:  focal,
	}
}

// corners returns the plate corners clockwise from the top left.
func (p plate) corners() [4][2]float64 {
	return [4][2]float64{
		{p.x0, p.y0},
		{p.x0 + p.w, p.y0},
		{p.x0 + p.w, p.y0 + p.h},
		{p.x0, p.y0 + p.h},
	}
}

// rotation returns R = Ry(alpha) * Rx(beta), angles in degrees.
func rotation(alpha, beta float64) *mat.Dense {
	a, b := alpha*math.Pi/180, beta*math.Pi/180
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, math.Cos(b), -math.Sin(b),
		0, math.Sin(b), math.Cos(b),
	})
	ry := mat.NewDense(3, 3, []float64{
		math.Cos(a), 0, math.Sin(a),
		0, 1, 0,
		-math.Sin(a), 0, math.Cos(a),
	})
	var r mat.Dense
	r.Mul(ry, rx)
	return &r
}

// project rotates the plate corners about the frame center and projects
// them back onto the image plane.
func (p plate) project(alpha, beta float64) ([4][2]float64, error) {
	r := rotation(alpha, beta)
	cx, cy := p.x0+p.w/2, p.y0+p.h/2

	var dst [4][2]float64
	var v mat.VecDense
	for i, c := range p.corners() {
		v.MulVec(r, mat.NewVecDense(3, []float64{c[0] - cx, c[1] - cy, 0}))
		depth := p.focal + v.AtVec(2)
		if depth <= 0 {
			return dst, fmt.Errorf("corner %d behind the camera", i)
		}
		dst[i] = [2]float64{cx + p.focal*v.AtVec(0)/depth, cy + p.focal*v.AtVec(1)/depth}
	}
	return dst, nil
}

// perspective solves the homography mapping the four from points onto the
// four to points, with its bottom right element fixed to 1.
func perspective(from, to [4][2]float64) (*mat.Dense, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := from[i][0], from[i][1]
		u, v := to[i][0], to[i][1]
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("degenerate plate projection: %w", err)
	}
	return mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}), nil
}

// draw paints the rotated plate into an RGB buffer. Every output pixel is
// mapped back onto the upright plate through the inverse homography. An
// edge-on plate leaves only the background.
func (p plate) draw(buf []byte, alpha, beta float64, noise *distuv.Normal) {
	fill(buf, backgroundColor)

	dst, err := p.project(alpha, beta)
	if err != nil {
		return
	}
	inv, err := perspective(dst, p.corners())
	if err != nil {
		return
	}

	var q mat.VecDense
	pt := mat.NewVecDense(3, nil)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			pt.SetVec(0, float64(x)+0.5)
			pt.SetVec(1, float64(y)+0.5)
			pt.SetVec(2, 1)
			q.MulVec(inv, pt)
			if q.AtVec(2) == 0 {
				continue
			}
			u := (q.AtVec(0)/q.AtVec(2) - p.x0) / p.w
			v := (q.AtVec(1)/q.AtVec(2) - p.y0) / p.h
			if u < 0 || u >= 1 || v < 0 || v >= 1 {
				continue
			}

			c := plateColor
			if v > 0.25 && v < 0.75 && isDigitColumn(u) {
				c = markColor
			}
			o := (y*p.width + x) * 3
			if noise == nil {
				buf[o], buf[o+1], buf[o+2] = c[0], c[1], c[2]
				continue
			}
			n := noise.Rand()
			buf[o], buf[o+1], buf[o+2] = shade(c[0], n), shade(c[1], n), shade(c[2], n)
		}
	}
}

func fill(buf []byte, c [3]byte) {
	for o := 0; o+2 < len(buf); o += 3 {
		buf[o], buf[o+1], buf[o+2] = c[0], c[1], c[2]
	}
}

// shade offsets a channel by d and clamps it to [0,255].
func shade(c byte, d float64) byte {
	v := math.Round(float64(c) + d)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

// isDigitColumn reports whether u in [0,1) falls on one of six digit strokes.
func isDigitColumn(u float64) bool {
	cell := u * 6
	frac := cell - math.Floor(cell)
	return frac > 0.3 && frac < 0.7
}
