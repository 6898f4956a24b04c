// Package phantom synthesizes multi-coil Cartesian k-space from a modified
// Shepp-Logan phantom and writes it to a dataset.
//
// Images are stored row-major with x fastest: pixel (x, y) of an nx-wide
// image is at index y*nx+x, and coil c of a stack at c*nx*ny+y*nx+x.
package phantom

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Ellipse is one component of an analytic phantom in normalized
// coordinates, [-1, 1] on both axes.
type Ellipse struct {
	Amplitude float64
	A, B      float64 // semi-axes
	X0, Y0    float64 // center
	PhiDeg    float64 // rotation in degrees
}

// Inside reports whether (x, y) lies in the ellipse.
func (e Ellipse) Inside(x, y float64) bool {
	phi := e.PhiDeg * math.Pi / 180
	cosp, sinp := math.Cos(phi), math.Sin(phi)
	dx, dy := x-e.X0, y-e.Y0
	u := dx*cosp + dy*sinp
	v := dy*cosp - dx*sinp
	return u*u/(e.A*e.A)+v*v/(e.B*e.B) <= 1
}

// SheppLogan returns the modified Shepp-Logan ellipses, which have higher
// contrast than the 1974 Shepp-Logan set.
func SheppLogan() []Ellipse {
	return []Ellipse{
		{1, .69, .92, 0, 0, 0},
		{-.8, .6624, .8740, 0, -.0184, 0},
		{-.2, .1100, .3100, .22, 0, -18},
		{-.2, .1600, .4100, -.22, 0, 18},
		{.1, .2100, .2500, 0, .35, 0},
		{.1, .0460, .0460, 0, .1, 0},
		{.1, .0460, .0460, 0, -.1, 0},
		{.1, .0460, .0230, -.08, -.605, 0},
		{.1, .0230, .0230, 0, -.606, 0},
		{.1, .0230, .0460, .06, -.605, 0},
	}
}

func coord(i, n int) float64 {
	half := n >> 1
	return float64(i-half) / float64(half)
}

// Image rasterizes ellipses on an n by n grid.
func Image(ellipses []Ellipse, n int) []complex128 {
	out := make([]complex128, n*n)
	for _, e := range ellipses {
		for y := 0; y < n; y++ {
			yc := coord(y, n)
			for x := 0; x < n; x++ {
				if e.Inside(coord(x, n), yc) {
					out[y*n+x] += complex(e.Amplitude, 0)
				}
			}
		}
	}
	return out
}

// Birdcage returns the sensitivities of ncoils coils spaced evenly on a
// circle of relative radius r around an n by n field of view.
func Birdcage(n, ncoils int, r float64) []complex128 {
	out := make([]complex128, ncoils*n*n)
	for c := 0; c < ncoils; c++ {
		angle := float64(c) * 2 * math.Pi / float64(ncoils)
		cx, cy := r*math.Cos(angle), r*math.Sin(angle)
		for y := 0; y < n; y++ {
			yc := coord(y, n) - cy
			for x := 0; x < n; x++ {
				xc := coord(x, n) - cx
				rr := math.Hypot(xc, yc)
				phi := math.Atan2(xc, -yc) - angle
				out[c*n*n+y*n+x] = cmplx.Rect(1/rr, phi)
			}
		}
	}
	return out
}

// AddNoise adds complex Gaussian noise with standard deviation sd to both
// parts of every element.
func AddNoise(data []complex128, sd float64, rng *rand.Rand) {
	for i := range data {
		data[i] += complex(rng.NormFloat64()*sd, rng.NormFloat64()*sd)
	}
}

// FFT2c transforms every nx by ny plane of data in place with a centered,
// orthonormal 2-D DFT.
func FFT2c(data []complex128, nx, ny int) {
	fft2c(data, nx, ny, true)
}

// IFFT2c is the inverse of FFT2c.
func IFFT2c(data []complex128, nx, ny int) {
	fft2c(data, nx, ny, false)
}

func fft2c(data []complex128, nx, ny int, forward bool) {
	plane := nx * ny
	fx := fourier.NewCmplxFFT(nx)
	fy := fourier.NewCmplxFFT(ny)
	col := make([]complex128, ny)
	scale := complex(1/math.Sqrt(float64(plane)), 0)

	for off := 0; off+plane <= len(data); off += plane {
		p := data[off : off+plane]
		shift2(p, nx, ny)
		for y := 0; y < ny; y++ {
			row := p[y*nx : (y+1)*nx]
			if forward {
				fx.Coefficients(row, row)
			} else {
				fx.Sequence(row, row)
			}
		}
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				col[y] = p[y*nx+x]
			}
			if forward {
				fy.Coefficients(col, col)
			} else {
				fy.Sequence(col, col)
			}
			for y := 0; y < ny; y++ {
				p[y*nx+x] = col[y]
			}
		}
		shift2(p, nx, ny)
		for i := range p {
			p[i] *= scale
		}
	}
}

// shift2 circularly shifts a plane by half its size on both axes.
func shift2(p []complex128, nx, ny int) {
	tmp := make([]complex128, len(p))
	for y := 0; y < ny; y++ {
		ys := (y + ny/2) % ny
		for x := 0; x < nx; x++ {
			xs := (x + nx/2) % nx
			tmp[ys*nx+xs] = p[y*nx+x]
		}
	}
	copy(p, tmp)
}
